package mir

import (
	"fmt"

	"facet/internal/types"
)

// replacementMap is the decomposition plan: an insertion-ordered mapping from
// one-field path prefixes to freshly allocated scalar locals. Keys are always
// exactly one field step deep; deeper accesses are rewritten by rebasing
// their suffix onto the new local.
type replacementMap struct {
	fields map[fieldKey]LocalID
	order  []fieldKey
}

func (m *replacementMap) empty() bool {
	return len(m.fields) == 0
}

func (m *replacementMap) lookup(k fieldKey) (LocalID, bool) {
	l, ok := m.fields[k]
	return l, ok
}

// computeFlattening assigns a new local to each accessed field of every
// non-escaping local. Traversal follows program textual order so that
// discovery order, and with it everything derived from the plan, is
// reproducible across runs on identical input.
func computeFlattening(f *Func, typesIn *types.Interner, escaping *localSet) *replacementMap {
	pf := &preFlattenVisitor{
		f:        f,
		typesIn:  typesIn,
		escaping: escaping,
		map_:     replacementMap{fields: make(map[fieldKey]LocalID)},
	}
	for bi := range f.Blocks {
		bb := &f.Blocks[bi]
		for ii := range bb.Instrs {
			forEachPlaceInInstr(&bb.Instrs[ii], pf.visitPlace)
		}
		forEachPlaceInTerm(&bb.Term, pf.visitPlace)
	}
	return &pf.map_
}

type preFlattenVisitor struct {
	f        *Func
	typesIn  *types.Interner
	escaping *localSet
	map_     replacementMap
}

func (pf *preFlattenVisitor) visitPlace(p *Place) {
	if len(p.Proj) == 0 || p.Proj[0].Kind != ProjField {
		return
	}
	if pf.escaping.contains(p.Local) {
		return
	}
	key := fieldKey{Local: p.Local, Field: p.Proj[0].FieldIdx}
	if _, ok := pf.map_.fields[key]; ok {
		return
	}

	base := pf.f.Locals[p.Local]
	fieldTy, ok := pf.typesIn.FieldType(base.Type, key.Field)
	if !ok {
		panic(fmt.Sprintf("mir: sroa: field %d out of range for local %d (%s)",
			key.Field, p.Local, types.Label(pf.typesIn, base.Type)))
	}
	// The new scalar keeps the base local's mutability and source info; only
	// the type and name change.
	nl := pf.f.NewLocal(Local{
		Name:  fmt.Sprintf("%s$%d", base.Name, key.Field),
		Type:  fieldTy,
		Flags: (base.Flags &^ LocalFlagArg) | LocalFlagSynthetic,
		Span:  base.Span,
	})
	pf.map_.fields[key] = nl
	pf.map_.order = append(pf.map_.order, key)
}
