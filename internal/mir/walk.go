package mir

// Place traversal helpers shared by the analysis and rewrite passes. Places
// are visited in textual order; the callback receives a pointer so mutating
// passes can rewrite in place. Storage lifetime markers carry bare locals,
// not places, and are not visited.

func forEachPlaceInOperand(op *Operand, visit func(p *Place)) {
	switch op.Kind {
	case OperandCopy, OperandMove:
		visit(&op.Place)
	case OperandConst:
	}
}

func forEachPlaceInRValue(rv *RValue, visit func(p *Place)) {
	switch rv.Kind {
	case RValueUse:
		forEachPlaceInOperand(&rv.Use, visit)
	case RValueRef:
		visit(&rv.Ref.Place)
	case RValueUnaryOp:
		forEachPlaceInOperand(&rv.Unary.Operand, visit)
	case RValueBinaryOp:
		forEachPlaceInOperand(&rv.Binary.Left, visit)
		forEachPlaceInOperand(&rv.Binary.Right, visit)
	case RValueCast:
		forEachPlaceInOperand(&rv.Cast.Value, visit)
	case RValueAggregate:
		for i := range rv.Aggregate.Ops {
			forEachPlaceInOperand(&rv.Aggregate.Ops[i], visit)
		}
	case RValueLen:
		visit(&rv.Len.Place)
	}
}

func forEachPlaceInInstr(in *Instr, visit func(p *Place)) {
	switch in.Kind {
	case InstrAssign:
		visit(&in.Assign.Dst)
		forEachPlaceInRValue(&in.Assign.Src, visit)
	case InstrCall:
		if in.Call.HasDst {
			visit(&in.Call.Dst)
		}
		for i := range in.Call.Args {
			forEachPlaceInOperand(&in.Call.Args[i], visit)
		}
	case InstrDrop:
		visit(&in.Drop.Place)
	case InstrDeinit:
		visit(&in.Deinit.Place)
	case InstrStorageLive, InstrStorageDead, InstrNop:
	}
}

func forEachPlaceInTerm(t *Terminator, visit func(p *Place)) {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			forEachPlaceInOperand(&t.Return.Value, visit)
		}
	case TermIf:
		forEachPlaceInOperand(&t.If.Cond, visit)
	case TermSwitchInt:
		forEachPlaceInOperand(&t.SwitchInt.Value, visit)
	case TermGoto, TermUnreachable, TermNone:
	}
}
