package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nirlang/nirllvm/src/nir"
)

// genLet emits one non-terminator instruction and returns the block's new split count.
// Every Call with a non-nil unwind forces an invoke, which must end the current basic
// block; genLet writes the fresh "<block>.<split>:" header itself so callers simply
// thread the returned split count into the next call (spec.md §4.4, §8 "invoke splitting").
func (e *Emitter) genLet(buf *strings.Builder, in nir.Inst, blockName string, split int) (int, error) {
	if in.Kind != nir.ILet {
		return split, fmt.Errorf("nirllvm: expected Let instruction, got kind %d", in.Kind)
	}
	switch in.Op.Kind {
	case nir.OCopy:
		return split, nil // elided; uses were already rewritten by deconstify.
	case nir.OCall:
		return e.genCall(buf, in, blockName, split)
	case nir.OLoad:
		return split, e.genLoad(buf, in)
	case nir.OStore:
		return split, e.genStore(buf, in)
	case nir.OElem:
		return split, e.genElem(buf, in)
	case nir.OStackalloc:
		return split, e.genStackalloc(buf, in)
	}

	rhs, err := e.renderSimpleOp(in.Op)
	if err != nil {
		return split, err
	}
	if in.Op.ResultTy.IsVoid() {
		fmt.Fprintf(buf, "  %s\n", rhs)
	} else {
		fmt.Fprintf(buf, "  %s = %s\n", in.Result.Ref(), rhs)
	}
	return split, nil
}

// renderSimpleOp renders the right-hand side of every op kind that fits in a single IR
// statement: Extract, Insert, Bin, Comp, Conv, Select.
func (e *Emitter) renderSimpleOp(op nir.Op) (string, error) {
	switch op.Kind {
	case nir.OExtract:
		agg, err := e.typedVal(e.deconstify(op.Agg))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("extractvalue %s, %s", agg, nir.IndicesString(op.Indices)), nil
	case nir.OInsert:
		agg, err := e.typedVal(e.deconstify(op.Agg))
		if err != nil {
			return "", err
		}
		ins, err := e.typedVal(e.deconstify(op.InsertVal))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("insertvalue %s, %s, %s", agg, ins, nir.IndicesString(op.Indices)), nil
	case nir.OBin:
		lt, err := e.typedVal(e.deconstify(op.L))
		if err != nil {
			return "", err
		}
		rt, err := e.valToken(e.deconstify(op.R))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s, %s", op.BinOp.String(), lt, rt), nil
	case nir.OComp:
		lt, err := e.typedVal(e.deconstify(op.L))
		if err != nil {
			return "", err
		}
		rt, err := e.valToken(e.deconstify(op.R))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s, %s", op.CompOp.Instr(), op.CompOp.Mnemonic(), lt, rt), nil
	case nir.OConv:
		src, err := e.typedVal(e.deconstify(op.Src))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s to %s", op.Conv.String(), src, op.ResultTy.String()), nil
	case nir.OSelect:
		cond, err := e.typedVal(e.deconstify(op.SelCond))
		if err != nil {
			return "", err
		}
		then, err := e.typedVal(e.deconstify(op.SelThen))
		if err != nil {
			return "", err
		}
		els, err := e.typedVal(e.deconstify(op.SelElse))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("select %s, %s, %s", cond, then, els), nil
	default:
		return "", fmt.Errorf("nirllvm: unsupported op kind %d", op.Kind)
	}
}

// genLoad implements "bitcast the i8* operand to <ty>*, then load; prepend volatile if
// flagged" (spec.md §4.4).
func (e *Emitter) genLoad(buf *strings.Builder, in nir.Inst) error {
	ptr, err := e.typedVal(e.deconstify(in.Op.Ptr))
	if err != nil {
		return err
	}
	tmp := synthReg(in.Result, "p")
	fmt.Fprintf(buf, "  %s = bitcast %s to %s\n", tmp, ptr, in.Op.ResultTy.PointerTo())
	vol := ""
	if in.Op.Volatile {
		vol = "volatile "
	}
	fmt.Fprintf(buf, "  %s = load %s%s, %s %s\n",
		in.Result.Ref(), vol, in.Op.ResultTy.String(), in.Op.ResultTy.PointerTo(), tmp)
	return nil
}

func (e *Emitter) genStore(buf *strings.Builder, in nir.Inst) error {
	ptr, err := e.typedVal(e.deconstify(in.Op.Ptr))
	if err != nil {
		return err
	}
	val, err := e.typedVal(e.deconstify(in.Op.StoreVal))
	if err != nil {
		return err
	}
	tmp := synthReg(in.Result, "p")
	fmt.Fprintf(buf, "  %s = bitcast %s to %s\n", tmp, ptr, in.Op.StoreVal.Ty.PointerTo())
	vol := ""
	if in.Op.Volatile {
		vol = "volatile "
	}
	fmt.Fprintf(buf, "  store %s%s, %s %s\n", vol, val, in.Op.StoreVal.Ty.PointerTo(), tmp)
	return nil
}

// genElem implements getelementptr: bitcast the i8* base to <ty>*, index, bitcast the
// result back to i8* (spec.md §4.4). The bound type is the element type addressed by
// the tail of indexes, which the caller has already recorded as in.Op.ResultTy.
func (e *Emitter) genElem(buf *strings.Builder, in nir.Inst) error {
	base, err := e.typedVal(e.deconstify(in.Op.Base))
	if err != nil {
		return err
	}
	tmp := synthReg(in.Result, "p")
	fmt.Fprintf(buf, "  %s = bitcast %s to %s\n", tmp, base, in.Op.BaseTy.PointerTo())

	idxParts := make([]string, len(in.Op.Indexes))
	for i, ix := range in.Op.Indexes {
		tv, err := e.typedVal(e.deconstify(ix))
		if err != nil {
			return err
		}
		idxParts[i] = tv
	}
	gepTmp := synthReg(in.Result, "g")
	fmt.Fprintf(buf, "  %s = getelementptr %s, %s %s, %s\n",
		gepTmp, in.Op.BaseTy.String(), in.Op.BaseTy.PointerTo(), tmp, strings.Join(idxParts, ", "))
	fmt.Fprintf(buf, "  %s = bitcast %s %s to i8*\n", in.Result.Ref(), in.Op.ResultTy.PointerTo(), gepTmp)
	return nil
}

// genStackalloc implements "alloca <ty>[, <n>]; result bitcast to i8*" (spec.md §4.4).
func (e *Emitter) genStackalloc(buf *strings.Builder, in nir.Inst) error {
	tmp := synthReg(in.Result, "a")
	if in.Op.Count != nil {
		n, err := e.typedVal(e.deconstify(*in.Op.Count))
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  %s = alloca %s, %s\n", tmp, in.Op.AllocTy.String(), n)
	} else {
		fmt.Fprintf(buf, "  %s = alloca %s\n", tmp, in.Op.AllocTy.String())
	}
	fmt.Fprintf(buf, "  %s = bitcast %s* %s to i8*\n", in.Result.Ref(), in.Op.AllocTy.String(), tmp)
	return nil
}

// genCall implements direct-vs-bitcast call dispatch and invoke splitting (spec.md §4.4,
// §8 "invoke splitting"): a known global callee whose recorded signature matches the
// call site's type is called directly; anything else is bitcast to the required
// function-pointer type first.
func (e *Emitter) genCall(buf *strings.Builder, in nir.Inst, blockName string, split int) (int, error) {
	args := make([]string, len(in.Op.Args))
	for i, a := range in.Op.Args {
		tv, err := e.typedVal(e.deconstify(a))
		if err != nil {
			return split, err
		}
		args[i] = tv
	}
	argList := strings.Join(args, ", ")
	retTy := in.Op.CalleeSig.Ret.String()

	calleeVal := e.deconstify(in.Op.Callee)
	var calleeRef string
	if calleeVal.Kind == nir.VGlobal {
		declTy, err := e.lookup(calleeVal.Global)
		if err != nil {
			return split, err
		}
		if declTy.Equal(in.Op.CalleeSig) {
			calleeRef = "@" + calleeVal.Global.Quoted()
		}
	}
	if calleeRef == "" {
		calleeTV, err := e.typedVal(calleeVal)
		if err != nil {
			return split, err
		}
		tmp := synthReg(in.Result, "c")
		fmt.Fprintf(buf, "  %s = bitcast %s to %s\n", tmp, calleeTV, in.Op.CalleeSig.FuncPointer())
		calleeRef = tmp
	}

	prefix := ""
	if !in.Op.ResultTy.IsVoid() {
		prefix = in.Result.Ref() + " = "
	}

	if in.Unwind == nil {
		fmt.Fprintf(buf, "  %scall %s %s(%s)\n", prefix, retTy, calleeRef, argList)
		return split, nil
	}

	newSplit := split + 1
	nextLabel := blockName + "." + strconv.Itoa(newSplit)
	handlerLabel := "_" + strconv.Itoa(int(in.Unwind.Target)) + ".0"
	fmt.Fprintf(buf, "  %sinvoke %s %s(%s) to label %%%s unwind label %%%s\n",
		prefix, retTy, calleeRef, argList, nextLabel, handlerLabel)
	fmt.Fprintf(buf, "%s:\n", nextLabel)
	return newSplit, nil
}

// genTerm emits a block terminator (spec.md §4.4's terminator table). Every branch
// target names the destination block's entry split, ".0" — only a phi's incoming-edge
// label (function.go's genPhiPrologue) needs a predecessor's final split.
func (e *Emitter) genTerm(buf *strings.Builder, term nir.Inst) error {
	switch term.Kind {
	case nir.IRet:
		if term.RetVal == nil {
			buf.WriteString("  ret void\n")
			return nil
		}
		tv, err := e.typedVal(e.deconstify(*term.RetVal))
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  ret %s\n", tv)
		return nil
	case nir.IJump:
		fmt.Fprintf(buf, "  br label %%%s\n", entryLabel(term.JumpTo.Target))
		return nil
	case nir.IIf:
		cond, err := e.typedVal(e.deconstify(term.Cond))
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "  br %s, label %%%s, label %%%s\n",
			cond, entryLabel(term.IfThen.Target), entryLabel(term.IfElse.Target))
		return nil
	case nir.ISwitch:
		scrut, err := e.typedVal(e.deconstify(term.SwitchVal))
		if err != nil {
			return err
		}
		var arms strings.Builder
		for _, c := range term.Cases {
			cv, err := e.typedVal(e.deconstify(c.CaseVal))
			if err != nil {
				return err
			}
			fmt.Fprintf(&arms, "%s, label %%%s ", cv, entryLabel(c.Target))
		}
		fmt.Fprintf(buf, "  switch %s, label %%%s [ %s]\n",
			scrut, entryLabel(term.SwitchOther.Target), arms.String())
		return nil
	case nir.IUnreachable:
		buf.WriteString("  unreachable\n")
		return nil
	case nir.INone:
		return nil
	default:
		return fmt.Errorf("nirllvm: unsupported terminator kind %d", term.Kind)
	}
}

func entryLabel(target nir.Local) string {
	return blockLabelName(target, 0)
}

func synthReg(base nir.Local, suffix string) string {
	return "%_" + strconv.Itoa(int(base)) + "." + suffix
}
