package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"

	"github.com/nirlang/nirllvm/src/nir"
)

// typeInfoSymbol names the Itanium typeinfo for the native exception-wrapper class that
// every landing pad in every shard compares against (spec.md §4.3, §6 "fixed runtime
// symbols"). typeInfoType is a deliberately simplified struct shape (vtable slot, name
// pointer); its true definition lives in the runtime the generated IR is linked against,
// so only its address and size class matter here.
const (
	typeInfoSymbol = "_ZTIN3nir9ExceptionE"
	typeInfoType   = "{ i8*, i8* }"
)

// Emitter owns the per-shard state of spec.md §3.2: it translates one shard's worth of
// nir.Defn into a single, self-contained LLVM IR text buffer.
type Emitter struct {
	prog   *nir.Program
	triple string

	localNames map[string]bool // normalized names of defns this shard will emit itself.
	generated  map[string]bool // normalized names already written to body this run.
	deps       map[string]struct{}

	copies map[nir.Local]nir.Value

	constMap   map[string]nir.Name // structuralKey -> interned global name.
	constTy    map[string]nir.Type // normalized __const name -> its type.
	constVal   map[string]nir.Value
	constOrder []nir.Name
	constSeq   int

	body strings.Builder
}

// NewEmitter constructs an Emitter bound to prog (the full linked defn index, used for
// cross-shard dependency lookups) and triple (the target triple string; empty means
// omit the "target triple" line).
func NewEmitter(prog *nir.Program, triple string) *Emitter {
	return &Emitter{
		prog:      prog,
		triple:    triple,
		generated: make(map[string]bool),
		deps:      make(map[string]struct{}),
		copies:    make(map[nir.Local]nir.Value),
		constMap:  make(map[string]nir.Name),
		constTy:   make(map[string]nir.Type),
		constVal:  make(map[string]nir.Value),
	}
}

// Gen emits defns — one shard's already-sorted slice — and returns the complete text of
// the shard's .ll file: prelude followed by body (spec.md §4.2).
func (e *Emitter) Gen(defns []nir.Defn) (string, error) {
	e.localNames = make(map[string]bool, len(defns))
	for i := range defns {
		e.localNames[defns[i].Name.Normalized()] = true
	}

	var structs, consts, vars, declares, defines []*nir.Defn
	for i := range defns {
		d := &defns[i]
		switch d.Kind {
		case nir.DStruct:
			structs = append(structs, d)
		case nir.DConst:
			consts = append(consts, d)
		case nir.DVar:
			vars = append(vars, d)
		case nir.DDeclare:
			declares = append(declares, d)
		case nir.DDefine:
			defines = append(defines, d)
		default:
			return "", fmt.Errorf("nirllvm: unsupported defn kind %d for %q", d.Kind, d.Name.Source())
		}
	}

	for _, group := range [][]*nir.Defn{structs, consts, vars, declares, defines} {
		for _, d := range group {
			if err := e.genDefn(d); err != nil {
				return "", err
			}
		}
	}

	prelude, err := e.genPrelude()
	if err != nil {
		return "", err
	}
	glog.V(1).Infof("nirllvm: shard emitted %d defns, %d interned consts, %d deps",
		len(defns), len(e.constOrder), len(e.deps))
	return prelude + e.body.String(), nil
}

func (e *Emitter) genDefn(d *nir.Defn) error {
	norm := d.Name.Normalized()
	if e.generated[norm] {
		return nil
	}
	e.generated[norm] = true

	switch d.Kind {
	case nir.DStruct:
		return e.genStruct(&e.body, d)
	case nir.DVar:
		return e.genGlobal(&e.body, d, "global")
	case nir.DConst:
		return e.genGlobal(&e.body, d, "constant")
	case nir.DDeclare:
		return e.genDeclare(&e.body, d)
	case nir.DDefine:
		return e.genDefine(d)
	default:
		return fmt.Errorf("nirllvm: unsupported defn kind %d", d.Kind)
	}
}

func (e *Emitter) genStruct(buf *strings.Builder, d *nir.Defn) error {
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = f.String()
	}
	fmt.Fprintf(buf, "%%%s = type { %s }\n", d.Name.Quoted(), strings.Join(parts, ", "))
	return nil
}

// genGlobal emits a Var/Const definition. A header declaration (d.RHS == nil) always
// prints as external, regardless of d.Attrs, since only external/extern_weak globals may
// omit an initializer in LLVM IR (spec.md §4.2 "a defn whose rhs is no value").
func (e *Emitter) genGlobal(buf *strings.Builder, d *nir.Defn, keyword string) error {
	if d.RHS == nil {
		fmt.Fprintf(buf, "@%s = external %s %s\n", d.Name.Quoted(), keyword, d.Ty.String())
		return nil
	}
	linkage := ""
	if d.Attrs.Has(nir.AttrHidden) {
		linkage = "hidden "
	}
	rhs, err := e.typedVal(e.deconstify(*d.RHS))
	if err != nil {
		return err
	}
	fmt.Fprintf(buf, "@%s = %s%s %s\n", d.Name.Quoted(), linkage, keyword, rhs)
	return nil
}

func (e *Emitter) genDeclare(buf *strings.Builder, d *nir.Defn) error {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.String()
	}
	if d.Variadic {
		params = append(params, "...")
	}
	fmt.Fprintf(buf, "declare %s @%s(%s)\n", d.Ret.String(), d.Name.Quoted(), strings.Join(params, ", "))
	return nil
}

// genPrelude assembles the triple, fixed runtime declarations, interned constants
// (sorted by name) and dependency extern-declarations, in that order (spec.md §4.2).
func (e *Emitter) genPrelude() (string, error) {
	var b strings.Builder

	if e.triple != "" {
		fmt.Fprintf(&b, "target triple = %q\n\n", e.triple)
	}

	fmt.Fprintf(&b, "declare i32 @__gxx_personality_v0(...)\n")
	fmt.Fprintf(&b, "declare i32 @llvm.eh.typeid.for(i8*)\n")
	fmt.Fprintf(&b, "declare i8* @__cxa_begin_catch(i8*)\n")
	fmt.Fprintf(&b, "declare void @__cxa_end_catch()\n")
	fmt.Fprintf(&b, "@%s = external constant %s\n\n", typeInfoSymbol, typeInfoType)

	names := append([]nir.Name{}, e.constOrder...)
	sort.Slice(names, func(i, j int) bool { return names[i].Normalized() < names[j].Normalized() })
	for _, n := range names {
		val := e.constVal[n.Normalized()]
		tv, err := e.typedVal(val)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "@%s = private unnamed_addr constant %s\n", n.Quoted(), tv)
	}
	if len(names) > 0 {
		b.WriteByte('\n')
	}

	depNames := make([]string, 0, len(e.deps))
	for n := range e.deps {
		if !e.generated[n] {
			depNames = append(depNames, n)
		}
	}
	sort.Strings(depNames)
	for _, norm := range depNames {
		d, ok := e.prog.Lookup(nir.Name{Segments: strings.Split(norm, "::")})
		if !ok {
			return "", fmt.Errorf("nirllvm: dependency %q has no definition in the linked program", norm)
		}
		if err := e.genExternStub(&b, d); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

// genExternStub re-emits d as its extern/declaration form into buf, the prelude builder,
// for inclusion in a shard that only references it (spec.md §4.2 "then dependency
// declarations", §4.6, §8 Closure "appears as an extern declaration in the file's
// prelude"): structs verbatim, Var/Const with their initializer dropped and external
// linkage, Declare unchanged, Define stripped to a declare.
func (e *Emitter) genExternStub(buf *strings.Builder, d *nir.Defn) error {
	switch d.Kind {
	case nir.DStruct:
		return e.genStruct(buf, d)
	case nir.DVar:
		stub := *d
		stub.RHS = nil
		return e.genGlobal(buf, &stub, "global")
	case nir.DConst:
		stub := *d
		stub.RHS = nil
		return e.genGlobal(buf, &stub, "constant")
	case nir.DDeclare:
		return e.genDeclare(buf, d)
	case nir.DDefine:
		stub := &nir.Defn{Kind: nir.DDeclare, Name: d.Name, Params: d.Params, Variadic: d.Variadic, Ret: d.Ret}
		return e.genDeclare(buf, stub)
	default:
		return fmt.Errorf("nirllvm: unsupported dependency kind %d for %q", d.Kind, d.Name.Source())
	}
}
