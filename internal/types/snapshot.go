package types

import (
	"errors"
	"fmt"

	"facet/internal/source"
)

// Snapshot is the serializable form of an Interner. It captures the type
// table, the side tables for composite metadata and the backing string
// table, so TypeIDs and StringIDs recorded in other artifacts stay valid
// after a restore.
type Snapshot struct {
	Types   []Type
	Strings []string
	Structs []StructInfo
	Tuples  []TupleInfo
	Unions  []UnionInfo
	Enums   []EnumInfo
}

var errMalformedSnapshot = errors.New("types: malformed interner snapshot")

// Snapshot exports the interner's full state.
func (in *Interner) Snapshot() *Snapshot {
	return &Snapshot{
		Types:   append([]Type(nil), in.types...),
		Strings: in.strings.All(),
		Structs: append([]StructInfo(nil), in.structs...),
		Tuples:  append([]TupleInfo(nil), in.tuples...),
		Unions:  append([]UnionInfo(nil), in.unions...),
		Enums:   append([]EnumInfo(nil), in.enums...),
	}
}

// FromSnapshot rebuilds an interner from exported state. The builtin IDs are
// re-derived from the restored table; a table missing the seeded primitives
// is rejected.
func FromSnapshot(s *Snapshot) (*Interner, error) {
	if s == nil || len(s.Types) == 0 || s.Types[0].Kind != KindInvalid {
		return nil, errMalformedSnapshot
	}
	strings, err := source.Restore(s.Strings)
	if err != nil {
		return nil, err
	}

	in := &Interner{
		types:   append([]Type(nil), s.Types...),
		index:   make(map[Type]TypeID, len(s.Types)),
		strings: strings,
		structs: append([]StructInfo(nil), s.Structs...),
		tuples:  append([]TupleInfo(nil), s.Tuples...),
		unions:  append([]UnionInfo(nil), s.Unions...),
		enums:   append([]EnumInfo(nil), s.Enums...),
	}
	if len(in.structs) == 0 || len(in.tuples) == 0 || len(in.unions) == 0 || len(in.enums) == 0 {
		return nil, errMalformedSnapshot
	}
	for id, t := range in.types {
		if _, dup := in.index[t]; dup {
			return nil, fmt.Errorf("%w: duplicate type entry %d", errMalformedSnapshot, id)
		}
		in.index[t] = TypeID(id) //nolint:gosec // G115: bounded by table length
	}

	lookup := func(t Type) (TypeID, error) {
		id, ok := in.index[t]
		if !ok {
			return 0, fmt.Errorf("%w: missing builtin %v", errMalformedSnapshot, t.Kind)
		}
		return id, nil
	}
	if in.builtins.Invalid, err = lookup(Type{Kind: KindInvalid}); err != nil {
		return nil, err
	}
	if in.builtins.Unit, err = lookup(Type{Kind: KindUnit}); err != nil {
		return nil, err
	}
	if in.builtins.Bool, err = lookup(Type{Kind: KindBool}); err != nil {
		return nil, err
	}
	if in.builtins.String, err = lookup(Type{Kind: KindString}); err != nil {
		return nil, err
	}
	if in.builtins.Int, err = lookup(MakeInt(WidthAny)); err != nil {
		return nil, err
	}
	if in.builtins.Uint, err = lookup(MakeUint(WidthAny)); err != nil {
		return nil, err
	}
	if in.builtins.Float, err = lookup(MakeFloat(WidthAny)); err != nil {
		return nil, err
	}
	return in, nil
}
