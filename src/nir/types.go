package nir

import (
	"strconv"
	"strings"
)

// Kind enumerates the closed type algebra of low-level NIR. Anything outside this set
// (the higher-level types upstream lowering must eliminate) is unrepresentable here;
// callers that deserialize from an external producer must treat an unknown kind as the
// "unlowered type" fatal condition of spec.md §3.1.
type Kind uint8

const (
	KVoid   Kind = iota
	KVararg      // The "..." marker trailing a variadic function's parameter list.
	KPtr         // Always prints as i8* — see the value-type-vs-pointer discipline in spec.md §4.4.
	KBool
	KInt // Width-bearing integer; see Type.Width.
	KFloat
	KDouble
	KArray
	KStruct
	KFunc
)

// Type is a closed algebraic type. Only the fields relevant to Kind are meaningful; the
// rest are zero. This flat representation (rather than one concrete Go type per variant)
// mirrors the teacher's own types.go, which represents its own closed operation algebras
// (ArithmeticOperation, RelationalOperation) as plain enums with a string lookup table.
type Type struct {
	Kind    Kind
	Width   int    // KInt bit width.
	Elem    *Type  // KArray element type.
	Len     int    // KArray element count.
	Name    string // KStruct name; empty means an anonymous/literal struct.
	Fields  []Type // KStruct field types.
	Params  []Type // KFunc parameter types (may end with a KVararg marker).
	Ret     *Type  // KFunc return type.
}

func VoidType() Type   { return Type{Kind: KVoid} }
func VarargType() Type { return Type{Kind: KVararg} }
func PtrType() Type    { return Type{Kind: KPtr} }
func BoolType() Type   { return Type{Kind: KBool} }
func IntType(width int) Type { return Type{Kind: KInt, Width: width} }
func FloatType() Type  { return Type{Kind: KFloat} }
func DoubleType() Type { return Type{Kind: KDouble} }

func ArrayType(elem Type, n int) Type {
	e := elem
	return Type{Kind: KArray, Elem: &e, Len: n}
}

func StructType(name string, fields []Type) Type {
	return Type{Kind: KStruct, Name: name, Fields: fields}
}

func FuncType(params []Type, ret Type) Type {
	r := ret
	return Type{Kind: KFunc, Params: params, Ret: &r}
}

// IsVoid reports whether t is the void type.
func (t Type) IsVoid() bool { return t.Kind == KVoid }

// Equal reports structural equality of two types, used by the direct-call-vs-bitcast
// decision of spec.md §4.4 ("the recorded signature matches the call-site type").
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KInt:
		return t.Width == o.Width
	case KArray:
		return t.Len == o.Len && t.Elem.Equal(*o.Elem)
	case KStruct:
		if t.Name != o.Name || len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(o.Fields[i]) {
				return false
			}
		}
		return true
	case KFunc:
		if len(t.Params) != len(o.Params) || !t.Ret.Equal(*o.Ret) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the LLVM IR mnemonic for t. Pointers always render "i8*"; named structs
// render as a quoted reference to the type declared elsewhere ("%\"Name\""), never inline.
func (t Type) String() string {
	switch t.Kind {
	case KVoid:
		return "void"
	case KVararg:
		return "..."
	case KPtr:
		return "i8*"
	case KBool:
		return "i1"
	case KInt:
		return "i" + strconv.Itoa(t.Width)
	case KFloat:
		return "float"
	case KDouble:
		return "double"
	case KArray:
		return "[" + strconv.Itoa(t.Len) + " x " + t.Elem.String() + "]"
	case KStruct:
		if t.Name != "" {
			return `%"` + t.Name + `"`
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case KFunc:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return t.Ret.String() + " (" + strings.Join(parts, ", ") + ")"
	default:
		return "<unsupported-type>"
	}
}

// PointerTo renders t as the pointer-to-t mnemonic, e.g. "i32*". Used where LLVM syntax
// demands a typed pointer locally (bitcast targets, alloca/getelementptr/load/store
// operands) even though the NIR interface itself only ever exposes i8* (spec.md §4.4).
func (t Type) PointerTo() string {
	return t.String() + "*"
}

// FuncPointer renders the function-pointer mnemonic for a KFunc type, e.g.
// "i32 (i32, i32)*", used as the bitcast target for indirect calls.
func (t Type) FuncPointer() string {
	return t.String() + "*"
}

