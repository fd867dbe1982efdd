package mir

import (
	"facet/internal/source"
	"facet/internal/types"
)

type FuncID int32
type BlockID int32
type LocalID int32

const (
	NoFuncID  FuncID  = -1
	NoBlockID BlockID = -1
	NoLocalID LocalID = -1
)

type LocalFlags uint8

const (
	LocalFlagMut LocalFlags = 1 << iota
	LocalFlagArg
	LocalFlagSynthetic
)

// Local is one stack slot of a function. New locals introduced by passes are
// appended to Func.Locals and owned by the function body from then on.
type Local struct {
	Name  string
	Type  types.TypeID
	Flags LocalFlags
	Span  source.Span
}

type PlaceProjKind uint8

const (
	// ProjDeref follows a pointer or reference.
	ProjDeref PlaceProjKind = iota
	// ProjField selects a field of a struct, tuple or downcast enum variant.
	ProjField
	// ProjIndex selects an array element; the index value lives in a local.
	ProjIndex
	// ProjDowncast fixes the active variant of an enum before a field step.
	ProjDowncast
)

// PlaceProj is one projection step inside a place.
type PlaceProj struct {
	Kind PlaceProjKind

	FieldIdx   int     // ProjField
	IndexLocal LocalID // ProjIndex
	Variant    int     // ProjDowncast
}

// Place is a memory location path: a root local plus projection steps.
type Place struct {
	Local LocalID
	Proj  []PlaceProj
}

// PlaceFor builds a projection-free place for a local.
func PlaceFor(l LocalID) Place {
	return Place{Local: l}
}

func (p Place) IsValid() bool {
	return p.Local != NoLocalID
}

// AsLocal returns the root local when the place carries no projections.
func (p Place) AsLocal() (LocalID, bool) {
	if len(p.Proj) == 0 {
		return p.Local, true
	}
	return NoLocalID, false
}

// IsIndirect reports whether the place goes through a dereference, meaning it
// no longer addresses the root local's own storage.
func (p Place) IsIndirect() bool {
	for _, pr := range p.Proj {
		if pr.Kind == ProjDeref {
			return true
		}
	}
	return false
}

// ProjectDeeper returns a copy of the place with extra steps appended.
func (p Place) ProjectDeeper(steps ...PlaceProj) Place {
	proj := make([]PlaceProj, 0, len(p.Proj)+len(steps))
	proj = append(proj, p.Proj...)
	proj = append(proj, steps...)
	return Place{Local: p.Local, Proj: proj}
}

// fieldKey identifies a one-field prefix of a place: the borrowed path
// reference used as a decomposition plan key. Go map keys own their bits, so
// no projection interning is needed to make lookups cheap.
type fieldKey struct {
	Local LocalID
	Field int
}

// PlaceType computes the static type of the sub-location addressed by the
// place. Panics on an ill-formed projection: that is a contract violation
// between passes, not a user error.
func PlaceType(f *Func, typesIn *types.Interner, p Place) types.TypeID {
	ty := f.LocalType(p.Local)
	variant := -1
	for _, pr := range p.Proj {
		switch pr.Kind {
		case ProjDeref:
			tt := typesIn.MustLookup(ty)
			if tt.Kind != types.KindPointer && tt.Kind != types.KindReference {
				panic("mir: deref projection on non-pointer type")
			}
			ty = tt.Elem
			variant = -1
		case ProjField:
			var (
				ft types.TypeID
				ok bool
			)
			if variant >= 0 {
				ft, ok = typesIn.VariantFieldType(ty, variant, pr.FieldIdx)
			} else {
				ft, ok = typesIn.FieldType(ty, pr.FieldIdx)
			}
			if !ok {
				panic("mir: field projection out of range")
			}
			ty = ft
			variant = -1
		case ProjIndex:
			tt := typesIn.MustLookup(ty)
			if tt.Kind != types.KindArray {
				panic("mir: index projection on non-array type")
			}
			ty = tt.Elem
			variant = -1
		case ProjDowncast:
			variant = pr.Variant
		}
	}
	return ty
}
