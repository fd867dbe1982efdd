package types

import (
	"fmt"
	"strconv"
	"strings"

	"facet/internal/source"
)

// Label returns a user-friendly label for a TypeID.
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID || typesIn == nil {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return formatNumericType("int", tt.Width)
	case KindUint:
		return formatNumericType("uint", tt.Width)
	case KindFloat:
		return formatNumericType("float", tt.Width)
	case KindPointer:
		return "*" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindReference:
		if tt.Mutable {
			return "&mut " + labelDepth(typesIn, tt.Elem, depth+1)
		}
		return "&" + labelDepth(typesIn, tt.Elem, depth+1)
	case KindArray:
		elem := labelDepth(typesIn, tt.Elem, depth+1)
		if tt.Count == ArrayDynamicLength {
			return "[" + elem + "]"
		}
		return fmt.Sprintf("[%s; %d]", elem, tt.Count)
	case KindStruct:
		if info, ok := typesIn.StructInfo(id); ok {
			return nameFallback(typesIn, info.Name, "struct")
		}
		return "?"
	case KindTuple:
		info, ok := typesIn.TupleInfo(id)
		if !ok {
			return "(?)"
		}
		parts := make([]string, len(info.Elems))
		for i, elem := range info.Elems {
			parts[i] = labelDepth(typesIn, elem, depth+1)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindUnion:
		if info, ok := typesIn.UnionInfo(id); ok {
			return nameFallback(typesIn, info.Name, "union")
		}
		return "?"
	case KindEnum:
		if info, ok := typesIn.EnumInfo(id); ok {
			return nameFallback(typesIn, info.Name, "enum")
		}
		return "?"
	default:
		return "?"
	}
}

func formatNumericType(base string, width Width) string {
	if width == WidthAny {
		return base
	}
	return base + strconv.Itoa(int(width))
}

func nameFallback(typesIn *Interner, id source.StringID, fallback string) string {
	if s, ok := typesIn.strings.Lookup(id); ok && s != "" {
		return s
	}
	return fallback
}
