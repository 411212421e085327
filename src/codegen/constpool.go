package codegen

import (
	"strconv"
	"strings"

	"github.com/nirlang/nirllvm/src/nir"
)

// deconstify recursively replaces inline Const(v) wrappers with addresses of interned
// private globals (spec.md §4.5). It is idempotent: running it twice produces the same
// result, since the output of a Const replacement is a Global value that falls through
// the default case unchanged.
func (e *Emitter) deconstify(v nir.Value) nir.Value {
	switch v.Kind {
	case nir.VLocal:
		if cv, ok := e.copies[v.LocalID]; ok {
			return e.deconstify(cv)
		}
		return v
	case nir.VStruct:
		elems := make([]nir.Value, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = e.deconstify(el)
		}
		return nir.StructVal(v.Ty, elems)
	case nir.VArray:
		elems := make([]nir.Value, len(v.Elems))
		for i, el := range v.Elems {
			elems[i] = e.deconstify(el)
		}
		return nir.ArrayVal(v.Ty, elems)
	case nir.VConst:
		inner := e.deconstify(*v.Inner)
		name := e.constFor(inner)
		return nir.GlobalVal(name, nir.PtrType())
	default:
		return v
	}
}

// constFor interns the closed, deconstified value v and returns the global name that
// addresses it, assigning a fresh sequential name under Top("__const") on first sight.
// Two structurally identical constants always collapse to the same name.
func (e *Emitter) constFor(v nir.Value) nir.Name {
	key := structuralKey(v)
	if name, ok := e.constMap[key]; ok {
		return name
	}
	name := nir.Top("__const").Member(strconv.Itoa(e.constSeq))
	e.constSeq++
	e.constMap[key] = name
	e.constOrder = append(e.constOrder, name)
	e.constTy[name.Normalized()] = v.Ty
	e.constVal[name.Normalized()] = v
	return name
}

// structuralKey encodes v's shape and payload as a string suitable for map-key
// equality, so that two syntactically distinct but structurally equal closed values
// intern to the same constant (spec.md §8 "const interning idempotence").
func structuralKey(v nir.Value) string {
	var b strings.Builder
	writeKey(&b, v)
	return b.String()
}

func writeKey(b *strings.Builder, v nir.Value) {
	b.WriteByte(byte(v.Kind))
	b.WriteByte('|')
	b.WriteString(v.Ty.String())
	b.WriteByte('|')
	switch v.Kind {
	case nir.VByte, nir.VShort, nir.VInt, nir.VLong:
		b.WriteString(strconv.FormatInt(v.IntVal, 10))
	case nir.VFloat, nir.VDouble:
		b.WriteString(strconv.FormatFloat(v.FloatVal, 'g', -1, 64))
	case nir.VChars:
		b.WriteString(strconv.Quote(v.Str))
	case nir.VStruct, nir.VArray:
		for _, el := range v.Elems {
			writeKey(b, el)
			b.WriteByte(',')
		}
	case nir.VLocal:
		b.WriteString(strconv.Itoa(int(v.LocalID)))
	case nir.VGlobal:
		b.WriteString(v.Global.Normalized())
	case nir.VConst:
		writeKey(b, *v.Inner)
	}
	b.WriteByte(';')
}
