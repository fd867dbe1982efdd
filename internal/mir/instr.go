package mir

import (
	"facet/internal/types"
)

// InstrKind enumerates instruction kinds in MIR.
type InstrKind uint8

const (
	// InstrAssign represents an assignment instruction.
	InstrAssign InstrKind = iota
	// InstrCall represents a call instruction.
	InstrCall
	// InstrDrop represents a destructor invocation.
	InstrDrop
	// InstrStorageLive marks the beginning of a local's storage lifetime.
	InstrStorageLive
	// InstrStorageDead marks the end of a local's storage lifetime.
	InstrStorageDead
	// InstrDeinit reinitializes a place without reading it.
	InstrDeinit
	// InstrNop represents a no-op instruction.
	InstrNop
)

// Instr represents a MIR instruction.
type Instr struct {
	Kind InstrKind

	Assign      AssignInstr
	Call        CallInstr
	Drop        DropInstr
	StorageLive StorageLiveInstr
	StorageDead StorageDeadInstr
	Deinit      DeinitInstr
}

// AssignInstr represents an assignment instruction.
type AssignInstr struct {
	Dst Place
	Src RValue
}

// CallInstr represents a function call instruction.
type CallInstr struct {
	HasDst bool
	Dst    Place
	Callee string
	Args   []Operand
}

// DropInstr runs the destructor of a place. Destruction takes the address of
// the full value, so it pins the layout of whatever it roots at.
type DropInstr struct {
	Place Place
}

// StorageLiveInstr marks a local's storage as live.
type StorageLiveInstr struct {
	Local LocalID
}

// StorageDeadInstr marks a local's storage as dead.
type StorageDeadInstr struct {
	Local LocalID
}

// DeinitInstr marks a place as deinitialized without reading it.
type DeinitInstr struct {
	Place Place
}

// OperandKind distinguishes operand types.
type OperandKind uint8

const (
	// OperandConst represents a literal constant operand.
	OperandConst OperandKind = iota
	// OperandCopy reads a place, leaving it initialized.
	OperandCopy
	// OperandMove reads a place and invalidates it.
	OperandMove
)

// Operand represents a MIR operand.
type Operand struct {
	Kind OperandKind
	Type types.TypeID

	Const Const
	Place Place
}

// ConstKind distinguishes constant kinds.
type ConstKind uint8

const (
	// ConstInt represents an integer constant.
	ConstInt ConstKind = iota
	// ConstUint represents an unsigned integer constant.
	ConstUint
	// ConstFloat represents a float constant.
	ConstFloat
	// ConstBool represents a boolean constant.
	ConstBool
	// ConstString represents a string constant.
	ConstString
	// ConstAggregate represents a constant of aggregate type whose fields are
	// only reachable by projecting out of the place it is stored into.
	ConstAggregate
)

// Const represents a MIR constant.
type Const struct {
	Kind ConstKind
	Type types.TypeID

	IntValue    int64
	UintValue   uint64
	FloatValue  float64
	BoolValue   bool
	StringValue string
}

// RValueKind distinguishes right-hand value kinds.
type RValueKind uint8

const (
	// RValueUse represents a use of a single operand.
	RValueUse RValueKind = iota
	// RValueRef takes a reference or raw address of a place.
	RValueRef
	// RValueUnaryOp represents a unary operation.
	RValueUnaryOp
	// RValueBinaryOp represents a binary operation.
	RValueBinaryOp
	// RValueCast represents a cast operation.
	RValueCast
	// RValueAggregate constructs a product value from per-field operands.
	RValueAggregate
	// RValueLen reads the length of an array place.
	RValueLen
)

// RValue represents a right-hand value in MIR.
type RValue struct {
	Kind RValueKind

	Use       Operand
	Ref       RefRValue
	Unary     UnaryOp
	Binary    BinaryOp
	Cast      CastOp
	Aggregate AggregateRValue
	Len       LenRValue
}

// RefRValue takes the address of a place. Raw distinguishes an unchecked
// address-of from a borrow; both observe the layout of the target.
type RefRValue struct {
	Place   Place
	Mutable bool
	Raw     bool
}

// UnaryOpKind enumerates unary operators.
type UnaryOpKind uint8

const (
	UnaryNeg UnaryOpKind = iota
	UnaryNot
)

// UnaryOp represents a unary operation.
type UnaryOp struct {
	Op      UnaryOpKind
	Operand Operand
}

// BinaryOpKind enumerates binary operators.
type BinaryOpKind uint8

const (
	BinaryAdd BinaryOpKind = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryRem
	BinaryEq
	BinaryNe
	BinaryLt
	BinaryLe
	BinaryGt
	BinaryGe
	BinaryAnd
	BinaryOr
)

// BinaryOp represents a binary operation.
type BinaryOp struct {
	Op    BinaryOpKind
	Left  Operand
	Right Operand
}

// CastOp represents a cast operation.
type CastOp struct {
	Value    Operand
	TargetTy types.TypeID
}

// AggregateRValue constructs a struct or tuple value. Ops holds one operand
// per declared field, in declaration order.
type AggregateRValue struct {
	Type types.TypeID
	Ops  []Operand
}

// LenRValue reads the length of an array or slice place.
type LenRValue struct {
	Place Place
}
