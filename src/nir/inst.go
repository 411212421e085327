package nir

// InstKind enumerates the closed instruction set of spec.md §3.1: a basic block is a
// Label followed by zero or more Lets and exactly one terminator.
type InstKind uint8

const (
	ILabel InstKind = iota
	ILet
	IRet
	IJump
	IIf
	ISwitch
	IUnreachable
	INone
)

// NextKind names the control-transfer shape a terminator or a Call's unwind edge takes.
type NextKind uint8

const (
	NLabel NextKind = iota // Unconditional edge to Target, passing Vals as the target's params.
	NCase                  // One arm of a Switch: jump to Target on CaseVal.
	NUnwind                // A Call's unwind edge: jump to Target's landing pad.
	NNone                  // No successor. A Call with no unwind leaves Inst.Unwind nil instead.
)

// Next describes a single control-flow edge.
type Next struct {
	Kind    NextKind
	Target  Local // The destination block's entry label id.
	Vals    []Value
	CaseVal Value // Meaningful only for NCase.
}

// Inst is a tagged instruction. Only the fields relevant to Kind are meaningful.
type Inst struct {
	Kind InstKind

	// Label.
	LabelID Local
	Params  []Local // Phi-bearing block parameters; bound from predecessors' Next.Vals.
	ParamTy []Type

	// Let.
	Result Local
	Op     Op
	Unwind *Next // Non-nil only for a Call op that may throw.

	// Ret.
	RetVal *Value // Nil for a void return.

	// Jump.
	JumpTo Next

	// If.
	Cond        Value
	IfThen      Next
	IfElse      Next

	// Switch.
	SwitchVal   Value
	Cases       []Next
	SwitchOther Next
}
