package types

import (
	"fmt"

	"fortio.org/safecast"

	"facet/internal/source"
)

// UnionMember describes a single variant inside a union.
type UnionMember struct {
	Name source.StringID
	Type TypeID
}

// UnionInfo stores metadata for a union type. The variants share storage, so
// per-field independence never holds for unions.
type UnionInfo struct {
	Name    source.StringID
	Decl    source.Span
	Members []UnionMember
}

// EnumVariant describes one tagged variant of an enum.
type EnumVariant struct {
	Name   source.StringID
	Fields []TypeID
}

// EnumInfo stores metadata for an enum (tagged variant) type.
type EnumInfo struct {
	Name     source.StringID
	Decl     source.Span
	Variants []EnumVariant
}

// RegisterUnion allocates a nominal union type slot and returns its TypeID.
func (in *Interner) RegisterUnion(name string, decl source.Span) TypeID {
	in.unions = append(in.unions, UnionInfo{Name: in.strings.Intern(name), Decl: decl})
	slot, err := safecast.Conv[uint32](len(in.unions) - 1)
	if err != nil {
		panic(fmt.Errorf("union info overflow: %w", err))
	}
	return in.internRaw(Type{Kind: KindUnion, Payload: slot})
}

// SetUnionMembers stores the resolved members for the union type.
func (in *Interner) SetUnionMembers(typeID TypeID, members []UnionMember) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindUnion || tt.Payload == 0 || int(tt.Payload) >= len(in.unions) {
		return
	}
	in.unions[tt.Payload].Members = append([]UnionMember(nil), members...)
}

// UnionInfo returns metadata for the provided union TypeID.
func (in *Interner) UnionInfo(typeID TypeID) (*UnionInfo, bool) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindUnion || tt.Payload == 0 || int(tt.Payload) >= len(in.unions) {
		return nil, false
	}
	return &in.unions[tt.Payload], true
}

// RegisterEnum allocates a nominal enum type slot and returns its TypeID.
func (in *Interner) RegisterEnum(name string, decl source.Span) TypeID {
	in.enums = append(in.enums, EnumInfo{Name: in.strings.Intern(name), Decl: decl})
	slot, err := safecast.Conv[uint32](len(in.enums) - 1)
	if err != nil {
		panic(fmt.Errorf("enum info overflow: %w", err))
	}
	return in.internRaw(Type{Kind: KindEnum, Payload: slot})
}

// SetEnumVariants stores the resolved variants for the enum type.
func (in *Interner) SetEnumVariants(typeID TypeID, variants []EnumVariant) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindEnum || tt.Payload == 0 || int(tt.Payload) >= len(in.enums) {
		return
	}
	in.enums[tt.Payload].Variants = append([]EnumVariant(nil), variants...)
}

// EnumInfo returns metadata for the provided enum TypeID.
func (in *Interner) EnumInfo(typeID TypeID) (*EnumInfo, bool) {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindEnum || tt.Payload == 0 || int(tt.Payload) >= len(in.enums) {
		return nil, false
	}
	return &in.enums[tt.Payload], true
}

// VariantFieldType returns the type of field idx of enum variant v.
func (in *Interner) VariantFieldType(id TypeID, variant, idx int) (TypeID, bool) {
	info, ok := in.EnumInfo(id)
	if !ok || variant < 0 || variant >= len(info.Variants) {
		return NoTypeID, false
	}
	fields := info.Variants[variant].Fields
	if idx < 0 || idx >= len(fields) {
		return NoTypeID, false
	}
	return fields[idx], true
}

// IsUnionOrEnum reports whether the type has overlapping or tag-dependent
// storage layout.
func (in *Interner) IsUnionOrEnum(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && (tt.Kind == KindUnion || tt.Kind == KindEnum)
}
