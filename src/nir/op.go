package nir

import (
	"strconv"
	"strings"
)

// OpKind enumerates the closed, low-level operation set of spec.md §3.1/§4.4. Any op
// outside this set is a supported-subset violation the backend must reject as fatal.
type OpKind uint8

const (
	OCall OpKind = iota
	OLoad
	OStore
	OElem
	OStackalloc
	OExtract
	OInsert
	OBin
	OComp
	OConv
	OSelect
	OCopy
)

// BinOp names a binary arithmetic opcode. Names follow the source-level spelling listed in
// spec.md §4.4 ("Iadd|Isub|Imul ... sdiv, udiv, srem, urem, fadd, etc.").
type BinOp uint8

const (
	BinIadd BinOp = iota
	BinIsub
	BinImul
	BinSdiv
	BinUdiv
	BinSrem
	BinUrem
	BinFadd
	BinFsub
	BinFmul
	BinFdiv
	BinFrem
	BinShl
	BinLshr
	BinAshr
	BinAnd
	BinOr
	BinXor
)

var binMnemonic = [...]string{
	BinIadd: "add",
	BinIsub: "sub",
	BinImul: "mul",
	BinSdiv: "sdiv",
	BinUdiv: "udiv",
	BinSrem: "srem",
	BinUrem: "urem",
	BinFadd: "fadd",
	BinFsub: "fsub",
	BinFmul: "fmul",
	BinFdiv: "fdiv",
	BinFrem: "frem",
	BinShl:  "shl",
	BinLshr: "lshr",
	BinAshr: "ashr",
	BinAnd:  "and",
	BinOr:   "or",
	BinXor:  "xor",
}

// String returns the LLVM opcode word: add/sub/mul for Iadd/Isub/Imul, otherwise the
// opcode's own lowercase mnemonic (spec.md §4.4).
func (b BinOp) String() string {
	return binMnemonic[b]
}

// CompOp names an integer or floating-point comparison predicate.
type CompOp uint8

const (
	CIEq CompOp = iota
	CINe
	CISgt
	CISge
	CISlt
	CISle
	CIUgt
	CIUge
	CIUlt
	CIUle
	CFOeq
	CFOne
	CFOgt
	CFOge
	CFOlt
	CFOle
	CFUeq
	CFUne
	CFUgt
	CFUge
	CFUlt
	CFUle
	CFOrd
	CFUno
)

var compMnemonic = [...]string{
	CIEq: "eq", CINe: "ne", CISgt: "sgt", CISge: "sge", CISlt: "slt", CISle: "sle",
	CIUgt: "ugt", CIUge: "uge", CIUlt: "ult", CIUle: "ule",
	CFOeq: "oeq", CFOne: "one", CFOgt: "ogt", CFOge: "oge", CFOlt: "olt", CFOle: "ole",
	CFUeq: "ueq", CFUne: "une", CFUgt: "ugt", CFUge: "uge", CFUlt: "ult", CFUle: "ule",
	CFOrd: "ord", CFUno: "uno",
}

// IsFloat reports whether op is a floating-point predicate (fcmp) as opposed to an
// integer one (icmp).
func (op CompOp) IsFloat() bool {
	return op >= CFOeq
}

// Mnemonic returns the icmp/fcmp predicate keyword for op.
func (op CompOp) Mnemonic() string {
	return compMnemonic[op]
}

// Instr returns "icmp" or "fcmp" depending on op's domain.
func (op CompOp) Instr() string {
	if op.IsFloat() {
		return "fcmp"
	}
	return "icmp"
}

// ConvKind names a value conversion opcode.
type ConvKind uint8

const (
	ConvTrunc ConvKind = iota
	ConvZext
	ConvSext
	ConvFptrunc
	ConvFpext
	ConvFptoui
	ConvFptosi
	ConvUitofp
	ConvSitofp
	ConvPtrtoint
	ConvInttoptr
	ConvBitcast
)

var convMnemonic = [...]string{
	ConvTrunc: "trunc", ConvZext: "zext", ConvSext: "sext",
	ConvFptrunc: "fptrunc", ConvFpext: "fpext",
	ConvFptoui: "fptoui", ConvFptosi: "fptosi",
	ConvUitofp: "uitofp", ConvSitofp: "sitofp",
	ConvPtrtoint: "ptrtoint", ConvInttoptr: "inttoptr", ConvBitcast: "bitcast",
}

func (c ConvKind) String() string {
	return convMnemonic[c]
}

// Op is a tagged NIR operation. Only the fields relevant to Kind are meaningful.
type Op struct {
	Kind     OpKind
	ResultTy Type // Void for ops with no result binding (Store).

	// Call.
	Callee    Value
	CalleeSig Type // The call site's recorded Function(args,ret) signature.
	Args      []Value

	// Load/Store.
	Ptr      Value
	StoreVal Value
	Volatile bool

	// Elem (getelementptr).
	Base    Value
	BaseTy  Type // The struct/array type addressed by Base once bitcast from i8*.
	Indexes []Value

	// Stackalloc.
	AllocTy Type
	Count   *Value

	// Extract/Insert.
	Agg       Value
	InsertVal Value
	Indices   []int

	// Bin.
	BinOp BinOp
	L, R  Value

	// Comp.
	CompOp CompOp

	// Conv.
	Conv ConvKind
	Src  Value

	// Select.
	SelCond, SelThen, SelElse Value

	// Copy.
	CopySrc Value
}

// IndicesString renders a comma-separated extractvalue/insertvalue index list.
func IndicesString(idx []int) string {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
