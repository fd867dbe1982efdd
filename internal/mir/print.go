package mir

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"facet/internal/types"
)

// DumpModule writes a human-readable representation of a MIR module.
// Output order is deterministic for identical input.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner) error {
	if w == nil || m == nil {
		return nil
	}
	fmt.Fprintf(w, "funcs=%d\n", len(m.Funcs))
	for _, f := range m.Funcs {
		if err := DumpFunc(w, f, typesIn); err != nil {
			return err
		}
	}
	return nil
}

// DumpFunc writes a human-readable representation of one function body.
func DumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "fn %s: %s (args=%d, entry=bb%d)\n",
		f.Name, types.Label(typesIn, f.Result), f.ArgCount, f.Entry)
	for i := range f.Locals {
		l := &f.Locals[i]
		name := l.Name
		if name == "" {
			name = "_"
		}
		flags := ""
		if l.Flags&LocalFlagMut != 0 {
			flags += " mut"
		}
		if l.Flags&LocalFlagSynthetic != 0 {
			flags += " synth"
		}
		fmt.Fprintf(w, "  L%d: %s%s name=%s\n", i, types.Label(typesIn, l.Type), flags, name)
	}
	for di := range f.Debug {
		fmt.Fprintf(w, "  debug %s\n", debugStr(&f.Debug[di]))
	}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		fmt.Fprintf(w, "  bb%d:\n", bb.ID)
		for ii := range bb.Instrs {
			fmt.Fprintf(w, "    %s\n", instrStr(&bb.Instrs[ii]))
		}
		fmt.Fprintf(w, "    %s\n", termStr(&bb.Term))
	}
	return nil
}

func placeStr(p Place) string {
	var sb strings.Builder
	sb.WriteString("L")
	sb.WriteString(strconv.Itoa(int(p.Local)))
	for _, pr := range p.Proj {
		switch pr.Kind {
		case ProjDeref:
			sb.WriteString(".*")
		case ProjField:
			sb.WriteString(".")
			sb.WriteString(strconv.Itoa(pr.FieldIdx))
		case ProjIndex:
			sb.WriteString("[L")
			sb.WriteString(strconv.Itoa(int(pr.IndexLocal)))
			sb.WriteString("]")
		case ProjDowncast:
			sb.WriteString("@")
			sb.WriteString(strconv.Itoa(pr.Variant))
		}
	}
	return sb.String()
}

func projStr(proj []PlaceProj) string {
	return placeStr(Place{Local: NoLocalID, Proj: proj})[len("L-1"):]
}

func constStr(c Const) string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.IntValue, 10)
	case ConstUint:
		return strconv.FormatUint(c.UintValue, 10) + "u"
	case ConstFloat:
		return strconv.FormatFloat(c.FloatValue, 'g', -1, 64)
	case ConstBool:
		return strconv.FormatBool(c.BoolValue)
	case ConstString:
		return strconv.Quote(c.StringValue)
	case ConstAggregate:
		return "const{...}"
	default:
		return "?"
	}
}

func operandStr(op Operand) string {
	switch op.Kind {
	case OperandConst:
		return "const " + constStr(op.Const)
	case OperandCopy:
		return "copy " + placeStr(op.Place)
	case OperandMove:
		return "move " + placeStr(op.Place)
	default:
		return "?"
	}
}

func rvalueStr(rv *RValue) string {
	switch rv.Kind {
	case RValueUse:
		return operandStr(rv.Use)
	case RValueRef:
		prefix := "&"
		if rv.Ref.Raw {
			prefix = "&raw "
		} else if rv.Ref.Mutable {
			prefix = "&mut "
		}
		return prefix + placeStr(rv.Ref.Place)
	case RValueUnaryOp:
		return fmt.Sprintf("un%d(%s)", rv.Unary.Op, operandStr(rv.Unary.Operand))
	case RValueBinaryOp:
		return fmt.Sprintf("bin%d(%s, %s)", rv.Binary.Op, operandStr(rv.Binary.Left), operandStr(rv.Binary.Right))
	case RValueCast:
		return fmt.Sprintf("cast(%s)", operandStr(rv.Cast.Value))
	case RValueAggregate:
		parts := make([]string, len(rv.Aggregate.Ops))
		for i, op := range rv.Aggregate.Ops {
			parts[i] = operandStr(op)
		}
		return "aggregate(" + strings.Join(parts, ", ") + ")"
	case RValueLen:
		return "len(" + placeStr(rv.Len.Place) + ")"
	default:
		return "?"
	}
}

func instrStr(in *Instr) string {
	switch in.Kind {
	case InstrAssign:
		return placeStr(in.Assign.Dst) + " = " + rvalueStr(&in.Assign.Src)
	case InstrCall:
		parts := make([]string, len(in.Call.Args))
		for i, op := range in.Call.Args {
			parts[i] = operandStr(op)
		}
		call := in.Call.Callee + "(" + strings.Join(parts, ", ") + ")"
		if in.Call.HasDst {
			return placeStr(in.Call.Dst) + " = " + call
		}
		return call
	case InstrDrop:
		return "drop " + placeStr(in.Drop.Place)
	case InstrStorageLive:
		return fmt.Sprintf("storage_live L%d", in.StorageLive.Local)
	case InstrStorageDead:
		return fmt.Sprintf("storage_dead L%d", in.StorageDead.Local)
	case InstrDeinit:
		return "deinit " + placeStr(in.Deinit.Place)
	case InstrNop:
		return "nop"
	default:
		return "?"
	}
}

func termStr(t *Terminator) string {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			return "return " + operandStr(t.Return.Value)
		}
		return "return"
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", operandStr(t.If.Cond), t.If.Then, t.If.Else)
	case TermSwitchInt:
		parts := make([]string, len(t.SwitchInt.Cases))
		for i, c := range t.SwitchInt.Cases {
			parts[i] = fmt.Sprintf("%d->bb%d", c.Value, c.Target)
		}
		return fmt.Sprintf("switch %s [%s] default bb%d",
			operandStr(t.SwitchInt.Value), strings.Join(parts, ", "), t.SwitchInt.Default)
	case TermUnreachable:
		return "unreachable"
	case TermNone:
		return "<unterminated>"
	default:
		return "?"
	}
}

func debugStr(di *VarDebugInfo) string {
	switch di.Kind {
	case DebugPlace:
		return di.Name + " => " + placeStr(di.Place)
	case DebugConst:
		return di.Name + " => const " + constStr(di.Const)
	case DebugComposite:
		parts := make([]string, len(di.Fragments))
		for i, fr := range di.Fragments {
			parts[i] = projStr(fr.Proj) + ": " + placeStr(fr.Place)
		}
		return di.Name + " => composite{" + strings.Join(parts, ", ") + "}"
	default:
		return di.Name + " => ?"
	}
}
