package mir

import (
	"fmt"

	"facet/internal/types"
)

// sroaFragment records that field Field of an eliminated local now lives in
// the scalar local Local.
type sroaFragment struct {
	Field int
	Local LocalID
}

// replaceFlattenedLocals applies the decomposition plan: instructions,
// terminators and debug info are rewritten to use the new scalar locals.
// Structural edits are staged into a Patch and applied once traversal is
// done, so positions stay stable while the body is read.
func replaceFlattenedLocals(f *Func, typesIn *types.Interner, plan *replacementMap) {
	dead := newLocalSet(len(f.Locals))
	fragments := make(map[LocalID][]sroaFragment)
	for _, key := range plan.order {
		dead.insert(key.Local)
		fragments[key.Local] = append(fragments[key.Local], sroaFragment{
			Field: key.Field,
			Local: plan.fields[key],
		})
	}

	rw := &rewriter{
		f:         f,
		typesIn:   typesIn,
		plan:      plan,
		dead:      dead,
		fragments: fragments,
		patch:     NewPatch(f),
	}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			rw.rewriteInstr(Location{Block: bb.ID, Index: ii}, &bb.Instrs[ii])
		}
		forEachPlaceInTerm(&bb.Term, rw.rewritePlace)
	}
	for di := range f.Debug {
		rw.rewriteDebug(&f.Debug[di])
	}
	rw.patch.Apply(f)
	removeNops(f)
	rw.checkEliminated()
}

type rewriter struct {
	f         *Func
	typesIn   *types.Interner
	plan      *replacementMap
	dead      *localSet
	fragments map[LocalID][]sroaFragment
	patch     *Patch
}

// replacePlace rebases a path whose one-field prefix is a plan key onto the
// replacement local, keeping the remaining projection suffix.
func (rw *rewriter) replacePlace(p Place) (Place, bool) {
	if len(p.Proj) == 0 || p.Proj[0].Kind != ProjField {
		return Place{}, false
	}
	nl, ok := rw.plan.lookup(fieldKey{Local: p.Local, Field: p.Proj[0].FieldIdx})
	if !ok {
		return Place{}, false
	}
	return Place{Local: nl, Proj: append([]PlaceProj(nil), p.Proj[1:]...)}, true
}

func (rw *rewriter) rewritePlace(p *Place) {
	if rp, ok := rw.replacePlace(*p); ok {
		*p = rp
	}
}

func (rw *rewriter) rewriteInstr(loc Location, in *Instr) {
	switch in.Kind {
	case InstrStorageLive:
		if frs := rw.fragments[in.StorageLive.Local]; frs != nil {
			for _, fr := range frs {
				rw.patch.AddInstr(loc, Instr{
					Kind:        InstrStorageLive,
					StorageLive: StorageLiveInstr{Local: fr.Local},
				})
			}
			*in = Instr{Kind: InstrNop}
		}
		return

	case InstrStorageDead:
		if frs := rw.fragments[in.StorageDead.Local]; frs != nil {
			for _, fr := range frs {
				rw.patch.AddInstr(loc, Instr{
					Kind:        InstrStorageDead,
					StorageDead: StorageDeadInstr{Local: fr.Local},
				})
			}
			*in = Instr{Kind: InstrNop}
		}
		return

	case InstrDeinit:
		if l, ok := in.Deinit.Place.AsLocal(); ok {
			if frs := rw.fragments[l]; frs != nil {
				for _, fr := range frs {
					rw.patch.AddInstr(loc, Instr{
						Kind:   InstrDeinit,
						Deinit: DeinitInstr{Place: PlaceFor(fr.Local)},
					})
				}
				*in = Instr{Kind: InstrNop}
				return
			}
		}

	case InstrAssign:
		if l, ok := in.Assign.Dst.AsLocal(); ok {
			if frs := rw.fragments[l]; frs != nil && rw.rewriteFragmentAssign(loc, in, l, frs) {
				return
			}
		}
	}

	forEachPlaceInInstr(in, rw.rewritePlace)
}

// rewriteFragmentAssign expands an assignment into a local with fragments.
// Reports whether the instruction was handled.
func (rw *rewriter) rewriteFragmentAssign(loc Location, in *Instr, dst LocalID, frs []sroaFragment) bool {
	src := &in.Assign.Src
	switch src.Kind {
	case RValueAggregate:
		agg := &src.Aggregate
		if want := rw.typesIn.FieldCount(agg.Type); want != len(agg.Ops) {
			panic(fmt.Sprintf("mir: sroa: aggregate for local %d has %d operands, type %s declares %d fields",
				dst, len(agg.Ops), types.Label(rw.typesIn, agg.Type), want))
		}
		// Each field initializer becomes an independent scalar assignment.
		for _, fr := range frs {
			if fr.Field < 0 || fr.Field >= len(agg.Ops) {
				panic(fmt.Sprintf("mir: sroa: planned field %d outside aggregate of %d operands", fr.Field, len(agg.Ops)))
			}
			op := agg.Ops[fr.Field]
			forEachPlaceInOperand(&op, rw.rewritePlace)
			rw.patch.AddInstr(loc, Instr{
				Kind:   InstrAssign,
				Assign: AssignInstr{Dst: PlaceFor(fr.Local), Src: RValue{Kind: RValueUse, Use: op}},
			})
		}
		*in = Instr{Kind: InstrNop}
		return true

	case RValueUse:
		switch src.Use.Kind {
		case OperandConst:
			// A constant has no addressable place to project from, so the
			// base local keeps its backing storage and each fragment is
			// moved out of it. This is the one pattern where the base local
			// legitimately survives the rewrite. The moves land after the
			// retained store.
			after := Location{Block: loc.Block, Index: loc.Index + 1}
			for _, fr := range frs {
				fieldPlace := PlaceFor(dst).ProjectDeeper(PlaceProj{Kind: ProjField, FieldIdx: fr.Field})
				rw.patch.AddInstr(after, Instr{
					Kind: InstrAssign,
					Assign: AssignInstr{
						Dst: PlaceFor(fr.Local),
						Src: RValue{Kind: RValueUse, Use: Operand{
							Kind:  OperandMove,
							Type:  rw.f.LocalType(fr.Local),
							Place: fieldPlace,
						}},
					},
				})
			}
			rw.dead.remove(dst)
			return true

		case OperandCopy, OperandMove:
			srcPlace := src.Use.Place
			if rp, ok := rw.replacePlace(srcPlace); ok {
				srcPlace = rp
			}
			for _, fr := range frs {
				fieldPlace := srcPlace.ProjectDeeper(PlaceProj{Kind: ProjField, FieldIdx: fr.Field})
				rw.patch.AddInstr(loc, Instr{
					Kind: InstrAssign,
					Assign: AssignInstr{
						Dst: PlaceFor(fr.Local),
						Src: RValue{Kind: RValueUse, Use: Operand{
							Kind:  src.Use.Kind,
							Type:  rw.f.LocalType(fr.Local),
							Place: fieldPlace,
						}},
					},
				})
			}
			*in = Instr{Kind: InstrNop}
			return true
		}
	}
	return false
}

// gatherDebugFragments collects the stored fragments of the place's local
// whose projections extend the place's own projection. Reports false when
// the local has no fragments at all.
func (rw *rewriter) gatherDebugFragments(p Place) ([]VarDebugFragment, bool) {
	frs := rw.fragments[p.Local]
	if frs == nil {
		return nil, false
	}
	var out []VarDebugFragment
	for _, fr := range frs {
		stored := []PlaceProj{{Kind: ProjField, FieldIdx: fr.Field}}
		if !projStartsWith(stored, p.Proj) {
			continue
		}
		out = append(out, VarDebugFragment{
			Proj:  append([]PlaceProj(nil), stored[len(p.Proj):]...),
			Place: PlaceFor(fr.Local),
		})
	}
	return out, true
}

func projStartsWith(proj, prefix []PlaceProj) bool {
	if len(proj) < len(prefix) {
		return false
	}
	for i := range prefix {
		if proj[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (rw *rewriter) rewriteDebug(di *VarDebugInfo) {
	switch di.Kind {
	case DebugPlace:
		if rp, ok := rw.replacePlace(di.Place); ok {
			di.Place = rp
			return
		}
		frs, ok := rw.gatherDebugFragments(di.Place)
		if !ok {
			return
		}
		// The original single-variable view is rebuilt from the scalars.
		di.Kind = DebugComposite
		di.CompositeType = PlaceType(rw.f, rw.typesIn, di.Place)
		di.Fragments = frs
		di.Place = Place{Local: NoLocalID}

	case DebugComposite:
		out := make([]VarDebugFragment, 0, len(di.Fragments))
		for _, fr := range di.Fragments {
			if rp, ok := rw.replacePlace(fr.Place); ok {
				fr.Place = rp
				out = append(out, fr)
				continue
			}
			if subs, ok := rw.gatherDebugFragments(fr.Place); ok {
				// The local was decomposed. Matching sub-fragments are
				// spliced in with concatenated projections; if none match,
				// the fragment has nothing left to describe and is dropped.
				for _, sub := range subs {
					proj := make([]PlaceProj, 0, len(fr.Proj)+len(sub.Proj))
					proj = append(proj, fr.Proj...)
					proj = append(proj, sub.Proj...)
					out = append(out, VarDebugFragment{Proj: proj, Place: sub.Place})
				}
				continue
			}
			out = append(out, fr)
		}
		di.Fragments = out

	case DebugConst:
	}
}

func removeNops(f *Func) {
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		kept := bb.Instrs[:0]
		for _, in := range bb.Instrs {
			if in.Kind != InstrNop {
				kept = append(kept, in)
			}
		}
		bb.Instrs = kept
	}
}

// checkEliminated verifies that no instruction or terminator still references
// a fully eliminated local. A violation is a bug in the pass or an ill-formed
// input body, never a user error.
func (rw *rewriter) checkEliminated() {
	check := func(p *Place) {
		if rw.dead.contains(p.Local) {
			panic(fmt.Sprintf("mir: sroa: eliminated local %d survives rewriting", p.Local))
		}
		for _, pr := range p.Proj {
			if pr.Kind == ProjIndex && rw.dead.contains(pr.IndexLocal) {
				panic(fmt.Sprintf("mir: sroa: eliminated local %d survives as index operand", pr.IndexLocal))
			}
		}
	}
	for bi := range rw.f.Blocks {
		bb := &rw.f.Blocks[bi]
		for ii := range bb.Instrs {
			in := &bb.Instrs[ii]
			switch in.Kind {
			case InstrStorageLive:
				if rw.dead.contains(in.StorageLive.Local) {
					panic(fmt.Sprintf("mir: sroa: eliminated local %d survives in storage marker", in.StorageLive.Local))
				}
			case InstrStorageDead:
				if rw.dead.contains(in.StorageDead.Local) {
					panic(fmt.Sprintf("mir: sroa: eliminated local %d survives in storage marker", in.StorageDead.Local))
				}
			}
			forEachPlaceInInstr(in, check)
		}
		forEachPlaceInTerm(&bb.Term, check)
	}
}
