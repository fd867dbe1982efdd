package mir

import (
	"strings"
	"testing"

	"facet/internal/source"
	"facet/internal/types"
)

// Test helpers -----------------------------------------------------------

func cInt(v int64) Operand {
	return Operand{Kind: OperandConst, Const: Const{Kind: ConstInt, IntValue: v}}
}

func copyP(p Place) Operand {
	return Operand{Kind: OperandCopy, Place: p}
}

func moveP(p Place) Operand {
	return Operand{Kind: OperandMove, Place: p}
}

func field(l LocalID, idx int) Place {
	return Place{Local: l, Proj: []PlaceProj{{Kind: ProjField, FieldIdx: idx}}}
}

func assign(dst Place, src RValue) Instr {
	return Instr{Kind: InstrAssign, Assign: AssignInstr{Dst: dst, Src: src}}
}

func use(op Operand) RValue {
	return RValue{Kind: RValueUse, Use: op}
}

func aggregate(ty types.TypeID, ops ...Operand) RValue {
	return RValue{Kind: RValueAggregate, Aggregate: AggregateRValue{Type: ty, Ops: ops}}
}

func add(left, right Operand) RValue {
	return RValue{Kind: RValueBinaryOp, Binary: BinaryOp{Op: BinaryAdd, Left: left, Right: right}}
}

func storageLive(l LocalID) Instr {
	return Instr{Kind: InstrStorageLive, StorageLive: StorageLiveInstr{Local: l}}
}

func storageDead(l LocalID) Instr {
	return Instr{Kind: InstrStorageDead, StorageDead: StorageDeadInstr{Local: l}}
}

func retVoid() Terminator {
	return Terminator{Kind: TermReturn}
}

// referencesLocal reports whether any instruction or terminator of the body
// still mentions the local, directly or as an index operand.
func referencesLocal(f *Func, l LocalID) bool {
	found := false
	check := func(p *Place) {
		if p.Local == l {
			found = true
		}
		for _, pr := range p.Proj {
			if pr.Kind == ProjIndex && pr.IndexLocal == l {
				found = true
			}
		}
	}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			in := &bb.Instrs[ii]
			switch in.Kind {
			case InstrStorageLive:
				if in.StorageLive.Local == l {
					found = true
				}
			case InstrStorageDead:
				if in.StorageDead.Local == l {
					found = true
				}
			}
			forEachPlaceInInstr(in, check)
		}
		forEachPlaceInTerm(&bb.Term, check)
	}
	return found
}

func dumpString(t *testing.T, f *Func, typesIn *types.Interner) string {
	t.Helper()
	var sb strings.Builder
	if err := DumpFunc(&sb, f, typesIn); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	return sb.String()
}

// pairFunc builds the canonical test body:
//
//	bb0:
//	  storage_live x
//	  x = aggregate(1, 2)
//	  y = x.0 + x.1
//	  storage_dead x
//	  return
//
// with L0 the unit return slot, L1 = x: (int, int), L2 = y: int.
func pairFunc(typesIn *types.Interner) *Func {
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	return &Func{
		Name:   "pair",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "x", Type: pair, Flags: LocalFlagMut},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				storageLive(1),
				assign(PlaceFor(1), aggregate(pair, cInt(1), cInt(2))),
				assign(PlaceFor(2), add(copyP(field(1, 0)), copyP(field(1, 1)))),
				storageDead(1),
			},
			Term: retVoid(),
		}},
	}
}

// Tests ------------------------------------------------------------------

func TestSROAEnabled(t *testing.T) {
	if SROAEnabled(SROAMinOptLevel - 1) {
		t.Errorf("pass must be disabled below level %d", SROAMinOptLevel)
	}
	if !SROAEnabled(SROAMinOptLevel) {
		t.Errorf("pass must be enabled at level %d", SROAMinOptLevel)
	}
}

func TestSROAFlattensAggregate(t *testing.T) {
	typesIn := types.NewInterner()
	f := pairFunc(typesIn)

	ScalarReplaceAggregates(f, typesIn)

	if len(f.Locals) != 5 {
		t.Fatalf("expected 2 new locals, got %d total", len(f.Locals))
	}
	intID := typesIn.Builtins().Int
	for _, l := range []LocalID{3, 4} {
		if f.Locals[l].Type != intID {
			t.Errorf("L%d: expected int, got %s", l, types.Label(typesIn, f.Locals[l].Type))
		}
		if f.Locals[l].Flags&LocalFlagMut == 0 {
			t.Errorf("L%d: mutability not copied from base local", l)
		}
	}
	if f.Locals[3].Name != "x$0" || f.Locals[4].Name != "x$1" {
		t.Errorf("unexpected scalar names %q, %q", f.Locals[3].Name, f.Locals[4].Name)
	}

	if referencesLocal(f, 1) {
		t.Errorf("eliminated local x still referenced:\n%s", dumpString(t, f, typesIn))
	}

	instrs := f.Blocks[0].Instrs
	if len(instrs) != 7 {
		t.Fatalf("expected 7 instructions, got %d:\n%s", len(instrs), dumpString(t, f, typesIn))
	}
	// storage markers duplicated per fragment
	if instrs[0].Kind != InstrStorageLive || instrs[0].StorageLive.Local != 3 ||
		instrs[1].Kind != InstrStorageLive || instrs[1].StorageLive.Local != 4 {
		t.Errorf("storage_live not expanded per fragment:\n%s", dumpString(t, f, typesIn))
	}
	if instrs[5].Kind != InstrStorageDead || instrs[6].Kind != InstrStorageDead {
		t.Errorf("storage_dead not expanded per fragment:\n%s", dumpString(t, f, typesIn))
	}
	// field initializers became independent scalar assignments
	for i, want := range []struct {
		dst LocalID
		val int64
	}{{3, 1}, {4, 2}} {
		in := instrs[2+i]
		if in.Kind != InstrAssign {
			t.Fatalf("instr %d: expected assign", 2+i)
		}
		if l, ok := in.Assign.Dst.AsLocal(); !ok || l != want.dst {
			t.Errorf("instr %d: expected dst L%d", 2+i, want.dst)
		}
		if in.Assign.Src.Kind != RValueUse || in.Assign.Src.Use.Const.IntValue != want.val {
			t.Errorf("instr %d: expected const %d", 2+i, want.val)
		}
	}
	// the sum reads the scalars directly
	sum := instrs[4]
	if sum.Assign.Src.Binary.Left.Place.Local != 3 || sum.Assign.Src.Binary.Right.Place.Local != 4 {
		t.Errorf("sum does not read the new scalars:\n%s", dumpString(t, f, typesIn))
	}
}

func TestSROAFixedPoint(t *testing.T) {
	typesIn := types.NewInterner()
	f := pairFunc(typesIn)

	ScalarReplaceAggregates(f, typesIn)
	first := dumpString(t, f, typesIn)
	locals := len(f.Locals)

	ScalarReplaceAggregates(f, typesIn)
	second := dumpString(t, f, typesIn)

	if first != second {
		t.Errorf("rerunning the pass changed the body:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if len(f.Locals) != locals {
		t.Errorf("rerunning the pass allocated locals: %d -> %d", locals, len(f.Locals))
	}
}

func TestSROANoopWithoutAggregates(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	f := &Func{
		Name:   "scalars",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "a", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID:     0,
			Instrs: []Instr{assign(PlaceFor(1), use(cInt(7)))},
			Term:   retVoid(),
		}},
	}

	before := dumpString(t, f, typesIn)
	ScalarReplaceAggregates(f, typesIn)
	if got := dumpString(t, f, typesIn); got != before {
		t.Errorf("empty plan must leave the body untouched:\n%s", got)
	}
}

func TestSROAWholeValueUseEscapes(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	f := &Func{
		Name:   "whole",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "x", Type: pair},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(1), aggregate(pair, cInt(1), cInt(2))),
				assign(PlaceFor(2), use(copyP(field(1, 0)))),
				{Kind: InstrCall, Call: CallInstr{Callee: "sink", Args: []Operand{moveP(PlaceFor(1))}}},
			},
			Term: retVoid(),
		}},
	}

	before := dumpString(t, f, typesIn)
	ScalarReplaceAggregates(f, typesIn)
	if got := dumpString(t, f, typesIn); got != before {
		t.Errorf("whole-value use must block decomposition:\nbefore:\n%s\nafter:\n%s", before, got)
	}
}

func TestSROAAddressOfEscapes(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	refPair := typesIn.Intern(types.MakeReference(pair, false))
	f := &Func{
		Name:   "addr",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "x", Type: pair},
			{Name: "r", Type: refPair},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(1), aggregate(pair, cInt(1), cInt(2))),
				assign(PlaceFor(2), RValue{Kind: RValueRef, Ref: RefRValue{Place: PlaceFor(1)}}),
				assign(PlaceFor(3), use(copyP(field(1, 0)))),
			},
			Term: retVoid(),
		}},
	}

	before := dumpString(t, f, typesIn)
	ScalarReplaceAggregates(f, typesIn)
	if got := dumpString(t, f, typesIn); got != before {
		t.Errorf("address-taken local must stay intact, including its field accesses:\nbefore:\n%s\nafter:\n%s", before, got)
	}
}

func TestSROAParamsAndReturnNeverDecomposed(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	// fn param(p: (int, int)) -> (int, int), accessed strictly field-wise.
	f := &Func{
		Name:     "param",
		Result:   pair,
		ArgCount: 1,
		Locals: []Local{
			{Name: "_ret", Type: pair},
			{Name: "p", Type: pair, Flags: LocalFlagArg},
			{Name: "t", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(2), use(copyP(field(1, 0)))),
				assign(field(0, 0), use(copyP(PlaceFor(2)))),
				assign(field(0, 1), use(copyP(field(1, 1)))),
			},
			Term: retVoid(),
		}},
	}

	before := dumpString(t, f, typesIn)
	ScalarReplaceAggregates(f, typesIn)
	if got := dumpString(t, f, typesIn); got != before {
		t.Errorf("parameters and return slot must never be decomposed:\nbefore:\n%s\nafter:\n%s", before, got)
	}
}

func TestSROAUnionAndEnumNeverDecomposed(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	un := typesIn.RegisterUnion("IntOrFloat", source.Span{})
	typesIn.SetUnionMembers(un, []types.UnionMember{
		{Name: typesIn.Strings().Intern("i"), Type: b.Int},
		{Name: typesIn.Strings().Intern("f"), Type: b.Float},
	})
	en := typesIn.RegisterEnum("Opt", source.Span{})
	typesIn.SetEnumVariants(en, []types.EnumVariant{
		{Name: typesIn.Strings().Intern("None")},
		{Name: typesIn.Strings().Intern("Some"), Fields: []types.TypeID{b.Int}},
	})

	f := &Func{
		Name:   "variant",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "u", Type: un},
			{Name: "e", Type: en},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				// u.0 is a field-shaped access on a union
				assign(PlaceFor(3), use(copyP(field(1, 0)))),
				// e@1.0 projects the Some payload
				assign(PlaceFor(3), use(copyP(Place{Local: 2, Proj: []PlaceProj{
					{Kind: ProjDowncast, Variant: 1},
					{Kind: ProjField, FieldIdx: 0},
				}}))),
			},
			Term: retVoid(),
		}},
	}

	before := dumpString(t, f, typesIn)
	ScalarReplaceAggregates(f, typesIn)
	if got := dumpString(t, f, typesIn); got != before {
		t.Errorf("union/enum locals must never be decomposed:\nbefore:\n%s\nafter:\n%s", before, got)
	}
}

func TestSROADropEscapes(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	f := &Func{
		Name:   "dropper",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "x", Type: pair},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(1), aggregate(pair, cInt(1), cInt(2))),
				assign(PlaceFor(2), use(copyP(field(1, 0)))),
				{Kind: InstrDrop, Drop: DropInstr{Place: PlaceFor(1)}},
			},
			Term: retVoid(),
		}},
	}

	before := dumpString(t, f, typesIn)
	ScalarReplaceAggregates(f, typesIn)
	if got := dumpString(t, f, typesIn); got != before {
		t.Errorf("dropped local must stay intact:\nbefore:\n%s\nafter:\n%s", before, got)
	}
}

func TestSROACopyOfPlaceExpandsPerField(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	// z = copy p (p is a parameter), then z used field-wise only.
	f := &Func{
		Name:     "copy_expand",
		Result:   b.Unit,
		ArgCount: 1,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "p", Type: pair, Flags: LocalFlagArg},
			{Name: "z", Type: pair},
			{Name: "w", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(2), use(copyP(PlaceFor(1)))),
				assign(PlaceFor(3), add(copyP(field(2, 0)), copyP(field(2, 1)))),
			},
			Term: retVoid(),
		}},
	}

	ScalarReplaceAggregates(f, typesIn)

	if referencesLocal(f, 2) {
		t.Fatalf("eliminated local z still referenced:\n%s", dumpString(t, f, typesIn))
	}
	instrs := f.Blocks[0].Instrs
	if len(instrs) != 3 {
		t.Fatalf("expected 3 instructions, got %d:\n%s", len(instrs), dumpString(t, f, typesIn))
	}
	for i, wantField := range []int{0, 1} {
		in := instrs[i]
		src := in.Assign.Src.Use
		if src.Kind != OperandCopy {
			t.Errorf("instr %d: copy semantics not preserved", i)
		}
		if src.Place.Local != 1 || len(src.Place.Proj) != 1 || src.Place.Proj[0].FieldIdx != wantField {
			t.Errorf("instr %d: expected copy of p.%d, got %s", i, wantField, dumpString(t, f, typesIn))
		}
	}
}

func TestSROAMovePreservesMoveSemantics(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	f := &Func{
		Name:     "move_expand",
		Result:   b.Unit,
		ArgCount: 1,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "p", Type: pair, Flags: LocalFlagArg},
			{Name: "z", Type: pair},
			{Name: "w", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(2), use(moveP(PlaceFor(1)))),
				assign(PlaceFor(3), use(copyP(field(2, 0)))),
			},
			Term: retVoid(),
		}},
	}

	ScalarReplaceAggregates(f, typesIn)

	if referencesLocal(f, 2) {
		t.Fatalf("eliminated local z still referenced:\n%s", dumpString(t, f, typesIn))
	}
	first := f.Blocks[0].Instrs[0]
	if first.Assign.Src.Use.Kind != OperandMove {
		t.Errorf("move semantics not preserved:\n%s", dumpString(t, f, typesIn))
	}
}

func TestSROAConstantKeepsBackingStorage(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	// x = const (a promoted aggregate constant), then x.0 read. The
	// constant has no addressable place, so x keeps its backing storage.
	f := &Func{
		Name:   "const_src",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "x", Type: pair},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(1), use(Operand{Kind: OperandConst, Const: Const{Kind: ConstAggregate, Type: pair}})),
				assign(PlaceFor(2), use(copyP(field(1, 0)))),
			},
			Term: retVoid(),
		}},
	}

	ScalarReplaceAggregates(f, typesIn)

	instrs := f.Blocks[0].Instrs
	if len(instrs) != 3 {
		t.Fatalf("expected 3 instructions, got %d:\n%s", len(instrs), dumpString(t, f, typesIn))
	}
	// the constant store survives
	if instrs[0].Kind != InstrAssign || instrs[0].Assign.Src.Use.Kind != OperandConst {
		t.Errorf("constant store must be retained:\n%s", dumpString(t, f, typesIn))
	}
	if l, ok := instrs[0].Assign.Dst.AsLocal(); !ok || l != 1 {
		t.Errorf("constant store must still target the base local:\n%s", dumpString(t, f, typesIn))
	}
	// the fragment is moved out of the retained storage, after the store
	frag := instrs[1]
	if frag.Assign.Src.Use.Kind != OperandMove || frag.Assign.Src.Use.Place.Local != 1 {
		t.Errorf("fragment must move the field out of the base local:\n%s", dumpString(t, f, typesIn))
	}
	// every other read of x.0 is redirected to the scalar
	last := instrs[2]
	if last.Assign.Src.Use.Place.Local != 3 || len(last.Assign.Src.Use.Place.Proj) != 0 {
		t.Errorf("field read not redirected to the scalar:\n%s", dumpString(t, f, typesIn))
	}
}

func TestSROADeinitExpandsPerFragment(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	f := &Func{
		Name:   "deinit",
		Result: b.Unit,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "x", Type: pair},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(1), aggregate(pair, cInt(1), cInt(2))),
				{Kind: InstrDeinit, Deinit: DeinitInstr{Place: PlaceFor(1)}},
				assign(PlaceFor(2), use(copyP(field(1, 1)))),
				assign(PlaceFor(2), use(copyP(field(1, 0)))),
			},
			Term: retVoid(),
		}},
	}

	ScalarReplaceAggregates(f, typesIn)

	if referencesLocal(f, 1) {
		t.Fatalf("eliminated local x still referenced:\n%s", dumpString(t, f, typesIn))
	}
	deinits := 0
	for _, in := range f.Blocks[0].Instrs {
		if in.Kind == InstrDeinit {
			deinits++
			if l, ok := in.Deinit.Place.AsLocal(); !ok || (l != 3 && l != 4) {
				t.Errorf("deinit must target a fragment local, got %s", placeStr(in.Deinit.Place))
			}
		}
	}
	if deinits != 2 {
		t.Errorf("expected one deinit per fragment, got %d:\n%s", deinits, dumpString(t, f, typesIn))
	}
}

func TestSROADebugInfoBecomesComposite(t *testing.T) {
	typesIn := types.NewInterner()
	f := pairFunc(typesIn)
	pairTy := f.Locals[1].Type
	f.Debug = []VarDebugInfo{
		{Name: "x", Kind: DebugPlace, Place: PlaceFor(1)},
		{Name: "first", Kind: DebugPlace, Place: field(1, 0)},
	}

	ScalarReplaceAggregates(f, typesIn)

	// whole-variable entry becomes a two-fragment composite
	x := f.Debug[0]
	if x.Kind != DebugComposite {
		t.Fatalf("expected composite entry for x, got kind %d", x.Kind)
	}
	if x.CompositeType != pairTy {
		t.Errorf("composite must carry the original type")
	}
	if len(x.Fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(x.Fragments))
	}
	for i, fr := range x.Fragments {
		if len(fr.Proj) != 1 || fr.Proj[0].Kind != ProjField || fr.Proj[0].FieldIdx != i {
			t.Errorf("fragment %d: unexpected projection", i)
		}
		if fr.Place.Local != LocalID(3+i) || len(fr.Place.Proj) != 0 {
			t.Errorf("fragment %d: expected bare scalar place, got %s", i, placeStr(fr.Place))
		}
	}

	// single-path entry matching the generic rewrite is replaced in place
	first := f.Debug[1]
	if first.Kind != DebugPlace || first.Place.Local != 3 || len(first.Place.Proj) != 0 {
		t.Errorf("field entry should be rewritten to the scalar, got %s", debugStr(&first))
	}
}

func TestSROADebugCompositeRederived(t *testing.T) {
	typesIn := types.NewInterner()
	f := pairFunc(typesIn)
	// A pre-existing composite whose fragment points at the decomposed
	// local is expanded with concatenated projections; a fragment whose
	// local is untouched stays as-is.
	deref := PlaceProj{Kind: ProjDeref}
	f.Debug = []VarDebugInfo{{
		Name:          "view",
		Kind:          DebugComposite,
		CompositeType: f.Locals[1].Type,
		Fragments: []VarDebugFragment{
			{Proj: []PlaceProj{deref}, Place: PlaceFor(1)},
			{Proj: nil, Place: PlaceFor(2)},
		},
	}}

	ScalarReplaceAggregates(f, typesIn)

	view := f.Debug[0]
	if len(view.Fragments) != 3 {
		t.Fatalf("expected 3 fragments after rederivation, got %d:\n%s", len(view.Fragments), debugStr(&view))
	}
	for i, fr := range view.Fragments[:2] {
		if len(fr.Proj) != 2 || fr.Proj[0] != deref || fr.Proj[1].FieldIdx != i {
			t.Errorf("fragment %d: projections not concatenated: %s", i, debugStr(&view))
		}
		if fr.Place.Local != LocalID(3+i) {
			t.Errorf("fragment %d: expected scalar local, got %s", i, placeStr(fr.Place))
		}
	}
	if kept := view.Fragments[2]; kept.Place.Local != 2 || len(kept.Proj) != 0 {
		t.Errorf("fragment of untouched local must be retained: %s", debugStr(&view))
	}
}

func TestSROASuffixRebasedOnDeepAccess(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	inner := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	outer := typesIn.RegisterTuple([]types.TypeID{inner, b.Int})
	// y = x.0.1: only the one-field prefix (x, 0) is planned; the access is
	// rewritten by rebasing the suffix onto the new local.
	f := &Func{
		Name:     "deep",
		Result:   b.Unit,
		ArgCount: 1,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "p", Type: outer, Flags: LocalFlagArg},
			{Name: "x", Type: outer},
			{Name: "y", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(2), use(copyP(PlaceFor(1)))),
				assign(PlaceFor(3), use(copyP(Place{Local: 2, Proj: []PlaceProj{
					{Kind: ProjField, FieldIdx: 0},
					{Kind: ProjField, FieldIdx: 1},
				}}))),
			},
			Term: retVoid(),
		}},
	}

	ScalarReplaceAggregates(f, typesIn)

	if referencesLocal(f, 2) {
		t.Fatalf("eliminated local x still referenced:\n%s", dumpString(t, f, typesIn))
	}
	// only (x, 0) is planned, so exactly one new local of the inner type
	if len(f.Locals) != 5 {
		t.Fatalf("expected exactly 1 new local, got %d total:\n%s", len(f.Locals), dumpString(t, f, typesIn))
	}
	if f.Locals[4].Type != inner {
		t.Errorf("new local type must equal the one-field path type")
	}
	read := f.Blocks[0].Instrs[1]
	p := read.Assign.Src.Use.Place
	if p.Local != 4 || len(p.Proj) != 1 || p.Proj[0].FieldIdx != 1 {
		t.Errorf("deep access not rebased onto the scalar: %s", placeStr(p))
	}
}

func TestSROAOperandOfAggregateRewritten(t *testing.T) {
	typesIn := types.NewInterner()
	b := typesIn.Builtins()
	pair := typesIn.RegisterTuple([]types.TypeID{b.Int, b.Int})
	// z = aggregate(copy x.0, const 9) where both x and z are decomposed:
	// z's field initializer must read the scalar replacing x.0.
	f := &Func{
		Name:     "agg_operand",
		Result:   b.Unit,
		ArgCount: 1,
		Locals: []Local{
			{Name: "_ret", Type: b.Unit},
			{Name: "p", Type: pair, Flags: LocalFlagArg},
			{Name: "x", Type: pair},
			{Name: "z", Type: pair},
			{Name: "w", Type: b.Int},
		},
		Entry: 0,
		Blocks: []Block{{
			ID: 0,
			Instrs: []Instr{
				assign(PlaceFor(2), use(copyP(PlaceFor(1)))),
				assign(PlaceFor(3), aggregate(pair, copyP(field(2, 0)), cInt(9))),
				assign(PlaceFor(4), use(copyP(field(3, 0)))),
				assign(PlaceFor(4), use(copyP(field(3, 1)))),
			},
			Term: retVoid(),
		}},
	}

	ScalarReplaceAggregates(f, typesIn)

	if referencesLocal(f, 2) || referencesLocal(f, 3) {
		t.Fatalf("eliminated locals still referenced:\n%s", dumpString(t, f, typesIn))
	}
}
