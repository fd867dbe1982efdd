package types

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"facet/internal/source"
)

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name source.StringID
	Type TypeID
}

// StructInfo stores metadata for a struct type.
type StructInfo struct {
	Name   source.StringID
	Decl   source.Span
	Fields []StructField
}

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(name string, decl source.Span) TypeID {
	slot := in.appendStructInfo(StructInfo{Name: in.strings.Intern(name), Decl: decl})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the resolved field descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	info := in.structInfo(typeID)
	if info == nil {
		return
	}
	info.Fields = append([]StructField(nil), fields...)
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(typeID TypeID) (*StructInfo, bool) {
	info := in.structInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

func (in *Interner) structInfo(typeID TypeID) *StructInfo {
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindStruct {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}

func (in *Interner) appendStructInfo(info StructInfo) uint32 {
	in.structs = append(in.structs, info)
	slot, err := safecast.Conv[uint32](len(in.structs) - 1)
	if err != nil {
		panic(fmt.Errorf("struct info overflow: %w", err))
	}
	return slot
}

// RegisterTuple creates a tuple type with the given elements.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	slot := in.appendTupleInfo(TupleInfo{Elems: append([]TypeID(nil), elems...)})
	return in.internRaw(Type{Kind: KindTuple, Payload: slot})
}

// TupleInfo returns the element types for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.tuples) {
		return nil, false
	}
	return &in.tuples[tt.Payload], true
}

func (in *Interner) appendTupleInfo(info TupleInfo) uint32 {
	in.tuples = append(in.tuples, info)
	slot, err := safecast.Conv[uint32](len(in.tuples) - 1)
	if err != nil {
		panic(fmt.Errorf("tuple info overflow: %w", err))
	}
	return slot
}

// Field queries --------------------------------------------------------------

// IsProduct reports whether the type has independently addressable named or
// positional fields (struct or tuple).
func (in *Interner) IsProduct(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && (tt.Kind == KindStruct || tt.Kind == KindTuple)
}

// FieldCount returns the number of fields of a product type, 0 otherwise.
func (in *Interner) FieldCount(id TypeID) int {
	if info := in.structInfo(id); info != nil {
		return len(info.Fields)
	}
	if info, ok := in.TupleInfo(id); ok {
		return len(info.Elems)
	}
	return 0
}

// FieldType returns the type of field idx of a product type.
func (in *Interner) FieldType(id TypeID, idx int) (TypeID, bool) {
	if info := in.structInfo(id); info != nil {
		if idx < 0 || idx >= len(info.Fields) {
			return NoTypeID, false
		}
		return info.Fields[idx].Type, true
	}
	if info, ok := in.TupleInfo(id); ok {
		if idx < 0 || idx >= len(info.Elems) {
			return NoTypeID, false
		}
		return info.Elems[idx], true
	}
	return NoTypeID, false
}

// FieldName returns a printable name for field idx: the declared name for
// structs, the positional index for tuples.
func (in *Interner) FieldName(id TypeID, idx int) string {
	if info := in.structInfo(id); info != nil && idx >= 0 && idx < len(info.Fields) {
		if s, ok := in.strings.Lookup(info.Fields[idx].Name); ok && s != "" {
			return s
		}
	}
	return strconv.Itoa(idx)
}
