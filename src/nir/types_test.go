package nir

import "testing"

func TestTypeString(t *testing.T) {
	cases := []struct {
		name string
		ty   Type
		want string
	}{
		{"void", VoidType(), "void"},
		{"vararg", VarargType(), "..."},
		{"ptr", PtrType(), "i8*"},
		{"bool", BoolType(), "i1"},
		{"i32", IntType(32), "i32"},
		{"i64", IntType(64), "i64"},
		{"float", FloatType(), "float"},
		{"double", DoubleType(), "double"},
		{"array", ArrayType(IntType(8), 3), "[3 x i8]"},
		{"named struct", StructType("Point", []Type{IntType(32), IntType(32)}), `%"Point"`},
		{"anon struct", StructType("", []Type{IntType(32), BoolType()}), "{ i32, i1 }"},
		{"func", FuncType([]Type{IntType(32), IntType(32)}, IntType(32)), "i32 (i32, i32)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.ty.String(); got != c.want {
				t.Errorf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestTypeEqual(t *testing.T) {
	a := FuncType([]Type{IntType(32), PtrType()}, VoidType())
	b := FuncType([]Type{IntType(32), PtrType()}, VoidType())
	c := FuncType([]Type{IntType(64), PtrType()}, VoidType())

	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestPointerTo(t *testing.T) {
	if got, want := IntType(32).PointerTo(), "i32*"; got != want {
		t.Errorf("PointerTo() = %q, want %q", got, want)
	}
}
