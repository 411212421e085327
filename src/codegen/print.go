// Package codegen translates a linked, reachability-pruned nir.Program into textual LLVM
// IR, sharded across one or more output modules by the Partitioner.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nirlang/nirllvm/src/nir"
)

// typedVal renders "<ty> <val>" for v, which must already be deconstified.
func (e *Emitter) typedVal(v nir.Value) (string, error) {
	tok, err := e.valToken(v)
	if err != nil {
		return "", err
	}
	return v.Ty.String() + " " + tok, nil
}

// valToken renders the bare value token for v (no leading type), which must already be
// deconstified. Globals referenced here always print as a bitcast to i8*, matching the
// NIR boundary discipline of spec.md §4.4/§4.5; direct, untyped references to a callee
// global are rendered separately by the call-emission path.
func (e *Emitter) valToken(v nir.Value) (string, error) {
	switch v.Kind {
	case nir.VTrue:
		return "true", nil
	case nir.VFalse:
		return "false", nil
	case nir.VNull:
		return "null", nil
	case nir.VZero:
		return "zeroinitializer", nil
	case nir.VUndef:
		return "undef", nil
	case nir.VByte, nir.VShort, nir.VInt, nir.VLong:
		return strconv.FormatInt(v.IntVal, 10), nil
	case nir.VFloat, nir.VDouble:
		return formatFloat(v.FloatVal), nil
	case nir.VChars:
		return charsLiteral(v.Str), nil
	case nir.VStruct:
		return e.aggLiteral("{ ", " }", v.Elems)
	case nir.VArray:
		return e.aggLiteral("[ ", " ]", v.Elems)
	case nir.VLocal:
		return v.LocalID.Ref(), nil
	case nir.VGlobal:
		lookupTy, err := e.lookup(v.Global)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("bitcast (%s* @%s to i8*)", lookupTy.String(), v.Global.Quoted()), nil
	case nir.VConst:
		return "", fmt.Errorf("nirllvm: internal error: un-deconstified Const value at print time")
	default:
		return "", fmt.Errorf("nirllvm: unsupported value kind %d", v.Kind)
	}
}

func (e *Emitter) aggLiteral(open, close string, elems []nir.Value) (string, error) {
	parts := make([]string, len(elems))
	for i, el := range elems {
		tv, err := e.typedVal(el)
		if err != nil {
			return "", err
		}
		parts[i] = tv
	}
	return open + strings.Join(parts, ", ") + close, nil
}

// formatFloat renders an LLVM floating-point constant. LLVM accepts plain decimal
// notation for values that round-trip; this backend does not attempt the full
// hexadecimal-float canonicalization LLVM's own printer uses for non-representable
// values, since no part of the supported subset requires it (see DESIGN.md).
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// charsLiteral renders s as an LLVM c"..." byte-string constant, one byte per source
// byte plus a trailing \00, hex-escaping every byte outside the safe printable range.
// Escaping is lenient: unrecognized input bytes are passed through unchanged rather
// than rejected (spec.md §9 open question — mirrored here as a design choice, not
// independently re-derived).
func charsLiteral(s string) string {
	var b strings.Builder
	b.WriteString(`c"`)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "\\%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	b.WriteString(`\00"`)
	return b.String()
}
