package codegen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/nirlang/nirllvm/src/nir"
)

var wsRe = regexp.MustCompile(`\s+`)

// normalizeWS collapses runs of whitespace to a single space, matching spec.md §8's
// "tests must compare normalized whitespace" requirement.
func normalizeWS(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

func genShard(t *testing.T, defns []nir.Defn) string {
	t.Helper()
	prog := nir.NewProgram(defns)
	out, err := NewEmitter(prog, "").Gen(defns)
	if err != nil {
		t.Fatalf("Gen() error: %v", err)
	}
	return out
}

func TestEmptyFunction(t *testing.T) {
	d := nir.Defn{
		Kind: nir.DDefine,
		Name: nir.Top("f"),
		Ret:  nir.VoidType(),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0},
			{Kind: nir.IRet},
		},
	}
	out := normalizeWS(genShard(t, []nir.Defn{d}))

	if !strings.Contains(out, `define void @"f"()`) {
		t.Errorf("missing function header in: %s", out)
	}
	if !strings.Contains(out, "_0.0: ret void") {
		t.Errorf("missing empty body block in: %s", out)
	}
}

func TestIdentityI32(t *testing.T) {
	rv := nir.LocalVal(1, nir.IntType(32))
	d := nir.Defn{
		Kind: nir.DDefine,
		Name: nir.Top("id"),
		Ret:  nir.IntType(32),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0, Params: []nir.Local{1}, ParamTy: []nir.Type{nir.IntType(32)}},
			{Kind: nir.IRet, RetVal: &rv},
		},
	}
	out := normalizeWS(genShard(t, []nir.Defn{d}))

	if !strings.Contains(out, `define i32 @"id"(i32 %_1)`) {
		t.Errorf("missing typed parameter in header: %s", out)
	}
	if !strings.Contains(out, "_0.0: ret i32 %_1") {
		t.Errorf("missing identity return: %s", out)
	}
}

func TestDirectCallNoUnwind(t *testing.T) {
	g := nir.Defn{Kind: nir.DDeclare, Name: nir.Top("g"), Ret: nir.IntType(32)}
	callSig := nir.FuncType(nil, nir.IntType(32))
	f := nir.Defn{
		Kind: nir.DDefine,
		Name: nir.Top("f"),
		Ret:  nir.IntType(32),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0},
			{Kind: nir.ILet, Result: 1, Op: nir.Op{
				Kind: nir.OCall, ResultTy: nir.IntType(32),
				Callee: nir.GlobalVal(nir.Top("g"), callSig), CalleeSig: callSig,
			}},
			{Kind: nir.IRet, RetVal: valPtr(nir.LocalVal(1, nir.IntType(32)))},
		},
	}
	out := genShard(t, []nir.Defn{f, g})

	if strings.Contains(out, "bitcast") {
		t.Errorf("direct call must not bitcast the callee: %s", out)
	}
	if !strings.Contains(normalizeWS(out), `call i32 @"g"()`) {
		t.Errorf("missing direct call: %s", out)
	}
}

func TestIndirectCallBitcasts(t *testing.T) {
	callSig := nir.FuncType(nil, nir.IntType(32))
	f := nir.Defn{
		Kind: nir.DDefine,
		Name: nir.Top("f"),
		Ret:  nir.IntType(32),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0, Params: []nir.Local{5}, ParamTy: []nir.Type{nir.PtrType()}},
			{Kind: nir.ILet, Result: 2, Op: nir.Op{
				Kind: nir.OCall, ResultTy: nir.IntType(32),
				Callee: nir.LocalVal(5, nir.PtrType()), CalleeSig: callSig,
			}},
			{Kind: nir.IRet, RetVal: valPtr(nir.LocalVal(2, nir.IntType(32)))},
		},
	}
	out := normalizeWS(genShard(t, []nir.Defn{f}))

	if !strings.Contains(out, "bitcast i8* %_5 to i32 ()*") {
		t.Errorf("missing callee bitcast: %s", out)
	}
	if !strings.Contains(out, "call i32 %_2.c()") {
		t.Errorf("missing indirect call through bitcast temp: %s", out)
	}
}

func TestConstantInterningAcrossFunctions(t *testing.T) {
	arr := nir.ArrayVal(nir.ArrayType(nir.IntType(8), 3), []nir.Value{
		nir.Byte(1), nir.Byte(2), nir.Byte(3),
	})
	mkFn := func(name string) nir.Defn {
		rv := nir.ConstVal(arr)
		return nir.Defn{
			Kind: nir.DDefine, Name: nir.Top(name), Ret: nir.PtrType(),
			Insts: []nir.Inst{
				{Kind: nir.ILabel, LabelID: 0},
				{Kind: nir.IRet, RetVal: &rv},
			},
		}
	}
	out := normalizeWS(genShard(t, []nir.Defn{mkFn("a"), mkFn("b")}))

	want := `@"__const::0" = private unnamed_addr constant [3 x i8] [ i8 1, i8 2, i8 3 ]`
	count := strings.Count(out, want)
	if count != 1 {
		t.Errorf("expected exactly one interned constant, found %d in: %s", count, out)
	}
	if strings.Count(out, `@"__const::0"`) < 3 {
		t.Errorf("expected both functions to reference the one intern: %s", out)
	}
}

func TestExceptionHandlerPrologueVerbatim(t *testing.T) {
	handlerParam := nir.Local(9)
	unwind := &nir.Next{Kind: nir.NUnwind, Target: 1}
	callSig := nir.FuncType(nil, nir.VoidType())
	f := nir.Defn{
		Kind: nir.DDefine,
		Name: nir.Top("f"),
		Ret:  nir.VoidType(),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0},
			{Kind: nir.ILet, Result: 2, Unwind: unwind, Op: nir.Op{
				Kind: nir.OCall, ResultTy: nir.VoidType(),
				Callee: nir.GlobalVal(nir.Top("g"), callSig), CalleeSig: callSig,
			}},
			{Kind: nir.IJump, JumpTo: nir.Next{Kind: nir.NLabel, Target: 2}},

			{Kind: nir.ILabel, LabelID: 1, Params: []nir.Local{handlerParam}, ParamTy: []nir.Type{nir.PtrType()}},
			{Kind: nir.IRet},

			{Kind: nir.ILabel, LabelID: 2},
			{Kind: nir.IRet},
		},
	}
	g := nir.Defn{Kind: nir.DDeclare, Name: nir.Top("g"), Ret: nir.VoidType()}
	out := genShard(t, []nir.Defn{f, g})

	order := []string{
		"landingpad { i8*, i32 } catch i8*",
		"extractvalue { i8*, i32 }",
		"extractvalue { i8*, i32 }",
		"call i32 @llvm.eh.typeid.for(",
		"icmp eq i32",
		"br i1",
		"fail_1:",
		"resume { i8*, i32 }",
		"succ_1:",
		"call i8* @__cxa_begin_catch(",
		"bitcast i8*",
		"getelementptr i8*, i8** ",
		"load i8*, i8**",
		"call void @__cxa_end_catch()",
	}
	assertInOrder(t, out, order)

	if !strings.Contains(out, "invoke void @\"g\"()") {
		t.Errorf("expected the throwing call to be an invoke: %s", out)
	}
	if !strings.Contains(out, "unwind label %_1.0") {
		t.Errorf("expected invoke to unwind to the handler's entry: %s", out)
	}
}

// TestCrossShardDependencyInPrelude verifies that a dependency on a defn emitted by a
// different shard is rendered into this shard's prelude, before any locally-defined
// struct/global/function, rather than appended after the body (spec.md §4.2 ordering,
// §6, §8 Closure).
func TestCrossShardDependencyInPrelude(t *testing.T) {
	callSig := nir.FuncType(nil, nir.IntType(32))
	f := nir.Defn{
		Kind: nir.DDefine, Name: nir.Top("f"), Ret: nir.IntType(32),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0},
			{Kind: nir.ILet, Result: 1, Op: nir.Op{
				Kind: nir.OCall, ResultTy: nir.IntType(32),
				Callee: nir.GlobalVal(nir.Top("g"), callSig), CalleeSig: callSig,
			}},
			{Kind: nir.IRet, RetVal: valPtr(nir.LocalVal(1, nir.IntType(32)))},
		},
	}
	g := nir.Defn{Kind: nir.DDefine, Name: nir.Top("g"), Ret: nir.IntType(32),
		Insts: []nir.Inst{
			{Kind: nir.ILabel, LabelID: 0},
			{Kind: nir.IRet, RetVal: valPtr(nir.Int(0))},
		},
	}

	prog := nir.NewProgram([]nir.Defn{f, g})
	out, err := NewEmitter(prog, "").Gen([]nir.Defn{f})
	if err != nil {
		t.Fatalf("Gen() error: %v", err)
	}

	declIdx := strings.Index(out, `declare i32 @"g"()`)
	defineIdx := strings.Index(out, `define i32 @"f"()`)
	if declIdx < 0 {
		t.Fatalf("missing extern stub for cross-shard dependency: %s", out)
	}
	if defineIdx < 0 {
		t.Fatalf("missing local function definition: %s", out)
	}
	if declIdx > defineIdx {
		t.Errorf("extern stub must precede local definitions in the prelude, got stub at %d, define at %d:\n%s",
			declIdx, defineIdx, out)
	}
}

func TestVariadicDeclareIncludesEllipsis(t *testing.T) {
	d := nir.Defn{
		Kind: nir.DDeclare, Name: nir.Top("printf"), Ret: nir.IntType(32),
		Params: []nir.Type{nir.PtrType()}, Variadic: true,
	}
	out := normalizeWS(genShard(t, []nir.Defn{d}))

	if !strings.Contains(out, `declare i32 @"printf"(i8*, ...)`) {
		t.Errorf("missing variadic ellipsis in declare: %s", out)
	}
}

func assertInOrder(t *testing.T, haystack string, needles []string) {
	t.Helper()
	pos := 0
	for _, n := range needles {
		idx := strings.Index(haystack[pos:], n)
		if idx < 0 {
			t.Fatalf("expected to find %q after position %d in:\n%s", n, pos, haystack)
		}
		pos += idx + len(n)
	}
}

func valPtr(v nir.Value) *nir.Value { return &v }
