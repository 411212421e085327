package nir

// ValueKind enumerates the closed value algebra of spec.md §3.1:
// True|False|Null|Zero(T)|Undef(T)|Byte|Short|Int|Long|Float|Double|Chars(string)|
// StructValue|ArrayValue|Local|Global|Const(inner).
type ValueKind uint8

const (
	VTrue ValueKind = iota
	VFalse
	VNull
	VZero
	VUndef
	VByte
	VShort
	VInt
	VLong
	VFloat
	VDouble
	VChars
	VStruct
	VArray
	VLocal
	VGlobal
	VConst
)

// Value is a tagged NIR value. Every value carries its own Type; only the fields relevant
// to Kind are meaningful.
type Value struct {
	Kind     ValueKind
	Ty       Type
	IntVal   int64   // Byte/Short/Int/Long.
	FloatVal float64 // Float/Double.
	Str      string  // Chars payload.
	Elems    []Value // StructValue/ArrayValue elements.
	LocalID  Local   // Local.
	Global   Name    // Global.
	Inner    *Value  // Const(inner).
}

func True() Value  { return Value{Kind: VTrue, Ty: BoolType()} }
func False() Value { return Value{Kind: VFalse, Ty: BoolType()} }
func Null() Value  { return Value{Kind: VNull, Ty: PtrType()} }

func Zero(t Type) Value  { return Value{Kind: VZero, Ty: t} }
func Undef(t Type) Value { return Value{Kind: VUndef, Ty: t} }

func Byte(v int8) Value   { return Value{Kind: VByte, Ty: IntType(8), IntVal: int64(v)} }
func Short(v int16) Value { return Value{Kind: VShort, Ty: IntType(16), IntVal: int64(v)} }
func Int(v int32) Value   { return Value{Kind: VInt, Ty: IntType(32), IntVal: int64(v)} }
func Long(v int64) Value  { return Value{Kind: VLong, Ty: IntType(64), IntVal: v} }

func Float32(v float32) Value { return Value{Kind: VFloat, Ty: FloatType(), FloatVal: float64(v)} }
func Float64(v float64) Value { return Value{Kind: VDouble, Ty: DoubleType(), FloatVal: v} }

// Chars constructs a raw character-sequence value of array type ty (typically
// ArrayType(IntType(8), len(s)+1) to account for a NUL terminator).
func Chars(s string, ty Type) Value {
	return Value{Kind: VChars, Ty: ty, Str: s}
}

func StructVal(ty Type, elems []Value) Value {
	return Value{Kind: VStruct, Ty: ty, Elems: elems}
}

func ArrayVal(ty Type, elems []Value) Value {
	return Value{Kind: VArray, Ty: ty, Elems: elems}
}

func LocalVal(id Local, ty Type) Value {
	return Value{Kind: VLocal, Ty: ty, LocalID: id}
}

func GlobalVal(name Name, ty Type) Value {
	return Value{Kind: VGlobal, Ty: ty, Global: name}
}

// ConstVal wraps inner in a Const marker: "lift this value to a private global and use
// its address in place of the value" (spec.md §4.5). Its type is always Ptr.
func ConstVal(inner Value) Value {
	v := inner
	return Value{Kind: VConst, Ty: PtrType(), Inner: &v}
}
