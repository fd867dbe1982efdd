package mir

import (
	"facet/internal/source"
	"facet/internal/types"
)

// Func is one function body. Locals[0] is the return slot and
// Locals[1..=ArgCount] are the parameters; their layout is part of the
// function's external contract.
type Func struct {
	ID   FuncID
	Name string
	Span source.Span

	Result   types.TypeID
	ArgCount int

	Locals []Local
	Blocks []Block
	Entry  BlockID

	Debug []VarDebugInfo
}

// ReturnLocal is the index of the return slot in Func.Locals.
const ReturnLocal LocalID = 0

// NewLocal appends a local to the body and returns its ID.
func (f *Func) NewLocal(l Local) LocalID {
	id := LocalID(len(f.Locals))
	f.Locals = append(f.Locals, l)
	return id
}

// LocalType returns the static type of a local.
func (f *Func) LocalType(l LocalID) types.TypeID {
	if l < 0 || int(l) >= len(f.Locals) {
		panic("mir: local out of range")
	}
	return f.Locals[l].Type
}

// IsArgOrReturn reports whether the local is the return slot or a parameter.
func (f *Func) IsArgOrReturn(l LocalID) bool {
	return l >= 0 && int(l) <= f.ArgCount
}
