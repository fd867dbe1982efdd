package mir

import (
	"facet/internal/types"
)

// VarDebugKind distinguishes how a source variable is located at runtime.
type VarDebugKind uint8

const (
	// DebugPlace names a single memory location.
	DebugPlace VarDebugKind = iota
	// DebugConst names a literal constant.
	DebugConst
	// DebugComposite reassembles the variable from several scalar fragments
	// after decomposition.
	DebugComposite
)

// VarDebugFragment maps one projection of the original variable to the place
// that now holds it.
type VarDebugFragment struct {
	Proj  []PlaceProj
	Place Place
}

// VarDebugInfo associates a source-level variable name with its location.
type VarDebugInfo struct {
	Name string
	Kind VarDebugKind

	Place Place
	Const Const

	// Composite form: the original variable's type plus per-fragment places.
	CompositeType types.TypeID
	Fragments     []VarDebugFragment
}
