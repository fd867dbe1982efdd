package mir

type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermGoto
	TermIf
	TermSwitchInt
	TermUnreachable
)

type Terminator struct {
	Kind TermKind

	Return      ReturnTerm
	Goto        GotoTerm
	If          IfTerm
	SwitchInt   SwitchIntTerm
	Unreachable struct{}
}

// ReturnTerm returns from the function. The return value, when present, has
// already been written to the return slot; Value carries an optional extra
// operand for diagnostics-oriented lowerings that keep it inline.
type ReturnTerm struct {
	HasValue bool
	Value    Operand
}

type GotoTerm struct {
	Target BlockID
}

type IfTerm struct {
	Cond Operand
	Then BlockID
	Else BlockID
}

type SwitchIntCase struct {
	Value  int64
	Target BlockID
}

type SwitchIntTerm struct {
	Value   Operand
	Cases   []SwitchIntCase
	Default BlockID
}

// Successors returns the block targets of the terminator.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermIf:
		return []BlockID{t.If.Then, t.If.Else}
	case TermSwitchInt:
		out := make([]BlockID, 0, len(t.SwitchInt.Cases)+1)
		for _, c := range t.SwitchInt.Cases {
			out = append(out, c.Target)
		}
		return append(out, t.SwitchInt.Default)
	default:
		return nil
	}
}
