package mir

import (
	"facet/internal/types"
)

// escapingLocals identifies all locals that are not eligible for scalar
// replacement:
//   - the return slot and the parameters, whose layout is the function's
//     external contract;
//   - locals of union or enum type, whose storage overlaps or depends on the
//     active variant;
//   - locals used as a whole value, or whose address is taken through a
//     non-indirect reference, or that are dropped: the full layout is
//     observable there.
//
// Decisions are local and monotonic, so a single traversal in any order
// suffices.
func escapingLocals(f *Func, typesIn *types.Interner) *localSet {
	set := newLocalSet(len(f.Locals))
	for l := LocalID(0); int(l) <= f.ArgCount && int(l) < len(f.Locals); l++ {
		set.insert(l)
	}
	for l := range f.Locals {
		if typesIn.IsUnionOrEnum(f.Locals[l].Type) {
			set.insert(LocalID(l))
		}
	}

	ev := &escapeVisitor{set: set}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			ev.visitInstr(&bb.Instrs[ii])
		}
		ev.visitTerm(&bb.Term)
	}
	// Debug info never blocks decomposition; the rewriter reconstructs it
	// from fragments.
	return set
}

type escapeVisitor struct {
	set *localSet
}

func (ev *escapeVisitor) visitInstr(in *Instr) {
	switch in.Kind {
	case InstrAssign:
		ev.visitAssign(&in.Assign)
	case InstrCall:
		if in.Call.HasDst {
			ev.visitPlace(&in.Call.Dst)
		}
		for i := range in.Call.Args {
			ev.visitOperand(&in.Call.Args[i])
		}
	case InstrDrop:
		// Drop takes the address of the full value and may run arbitrary
		// code depending on its layout.
		if !in.Drop.Place.IsIndirect() {
			ev.set.insert(in.Drop.Place.Local)
			return
		}
		ev.visitPlace(&in.Drop.Place)
	case InstrStorageLive, InstrStorageDead, InstrDeinit:
		// Storage lifetime markers are expanded per fragment by the
		// rewriter.
	case InstrNop:
	}
}

func (ev *escapeVisitor) visitAssign(as *AssignInstr) {
	if _, ok := as.Dst.AsLocal(); ok {
		switch as.Src.Kind {
		case RValueAggregate, RValueUse:
			// Aggregate construction and whole-value copies into a bare
			// local are expanded by the rewriter; only their operands can
			// escape.
			ev.visitRValue(&as.Src)
			return
		}
	}
	ev.visitPlace(&as.Dst)
	ev.visitRValue(&as.Src)
}

func (ev *escapeVisitor) visitRValue(rv *RValue) {
	if rv.Kind == RValueRef && !rv.Ref.Place.IsIndirect() {
		// The resulting reference can reach any overlapping memory of the
		// whole aggregate.
		ev.set.insert(rv.Ref.Place.Local)
		return
	}
	forEachPlaceInRValue(rv, ev.visitPlace)
}

func (ev *escapeVisitor) visitOperand(op *Operand) {
	forEachPlaceInOperand(op, ev.visitPlace)
}

func (ev *escapeVisitor) visitTerm(t *Terminator) {
	forEachPlaceInTerm(t, ev.visitPlace)
}

// visitPlace applies the generic escape rule: a bare local use consumes the
// aggregate atomically, while a path starting with a field step elides only
// that first step. Later steps are visited normally and index operands count
// as whole-value uses of their locals.
func (ev *escapeVisitor) visitPlace(p *Place) {
	proj := p.Proj
	if len(proj) > 0 && proj[0].Kind == ProjField {
		ev.visitProjSteps(proj[1:])
		return
	}
	ev.set.insert(p.Local)
	ev.visitProjSteps(proj)
}

func (ev *escapeVisitor) visitProjSteps(steps []PlaceProj) {
	for i := range steps {
		if steps[i].Kind == ProjIndex {
			ev.set.insert(steps[i].IndexLocal)
		}
	}
}
