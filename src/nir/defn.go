package nir

// DefnKind enumerates the closed top-level definition set of spec.md §3.1.
type DefnKind uint8

const (
	DStruct DefnKind = iota
	DVar
	DConst
	DDeclare
	DDefine
)

// Attrs is a bitmask of the definition-level attributes spec.md §3.1/§4.2 names.
type Attrs uint8

const (
	AttrHidden    Attrs = 1 << iota // Printed "hidden", not "dllexport"/default linkage.
	AttrExternal                    // This Defn is a declaration of something defined elsewhere (a module boundary).
	AttrMayInline                   // Absence of "noinline" — printed by omission, never as a positive keyword.
)

// Has reports whether a contains flag.
func (a Attrs) Has(flag Attrs) bool { return a&flag != 0 }

// Defn is a tagged top-level definition. Only the fields relevant to Kind are meaningful.
type Defn struct {
	Kind  DefnKind
	Attrs Attrs
	Name  Name

	// Struct.
	Fields []Type

	// Var / Const. RHS is nil for a header-only declaration (spec.md §4.2: "a defn
	// whose rhs is no value is emitted with its declared type only").
	Ty  Type
	RHS *Value

	// Declare / Define: function signature.
	Params   []Type
	Variadic bool
	Ret      Type

	// Define only.
	Insts []Inst
}

// Sig returns d's function type for Declare/Define definitions, the signature used for
// call-site matching (Type.Equal) through TypeOf.
func (d *Defn) Sig() Type {
	params := d.Params
	if d.Variadic {
		params = append(append([]Type{}, params...), VarargType())
	}
	return FuncType(params, d.Ret)
}

// IsFunction reports whether d is a Declare or Define.
func (d *Defn) IsFunction() bool {
	return d.Kind == DDeclare || d.Kind == DDefine
}

// TypeOf returns the type a reference to d carries at a use site: a function's signature
// for Declare/Define, or the stored value type for Var/Const. Struct has no value type.
func (d *Defn) TypeOf() Type {
	switch d.Kind {
	case DDeclare, DDefine:
		return d.Sig()
	case DVar, DConst:
		return d.Ty
	default:
		return VoidType()
	}
}
