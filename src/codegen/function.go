package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nirlang/nirllvm/src/nir"
)

// block is one maximal straight-line instruction run from a Label to a terminator
// (spec.md §4.3 step 2).
type block struct {
	label   nir.Local
	params  []nir.Local
	paramTy []nir.Type
	lets    []nir.Inst
	term    nir.Inst
	handler bool
}

// finalSplit returns how many times this block's own body forces an invoke split: every
// Call with a non-nil unwind inserts one new "<name>.<k+1>:" header after itself
// (spec.md §4.4). A jump whose source is this block must reference "<name>.<finalSplit>",
// not "<name>.0", once execution reaches the terminator.
func (b *block) finalSplit() int {
	n := 0
	for _, in := range b.lets {
		if in.Kind == nir.ILet && in.Op.Kind == nir.OCall && in.Unwind != nil {
			n++
		}
	}
	return n
}

// splitBlocks partitions a flat instruction list into blocks at each Label boundary and
// marks as handlers any block targeted by some other block's invoke-unwind edge.
func splitBlocks(insts []nir.Inst) ([]*block, error) {
	var blocks []*block
	var cur *block
	for _, in := range insts {
		switch in.Kind {
		case nir.ILabel:
			cur = &block{label: in.LabelID, params: in.Params, paramTy: in.ParamTy}
			blocks = append(blocks, cur)
		case nir.IRet, nir.IJump, nir.IIf, nir.ISwitch, nir.IUnreachable:
			if cur == nil {
				return nil, fmt.Errorf("nirllvm: terminator outside any block")
			}
			cur.term = in
		default:
			if cur == nil {
				return nil, fmt.Errorf("nirllvm: instruction outside any block")
			}
			cur.lets = append(cur.lets, in)
		}
	}

	byLabel := make(map[nir.Local]*block, len(blocks))
	for _, b := range blocks {
		byLabel[b.label] = b
	}
	for _, b := range blocks {
		for _, in := range b.lets {
			if in.Kind == nir.ILet && in.Unwind != nil && in.Unwind.Kind == nir.NUnwind {
				if target, ok := byLabel[in.Unwind.Target]; ok {
					target.handler = true
				}
			}
		}
	}
	return blocks, nil
}

// predEdge is one incoming Jump/If/Switch edge into a regular block, carried for phi
// prologue construction.
type predEdge struct {
	from *block
	vals []nir.Value
}

// predecessorsOf collects every NLabel edge targeting dst from any block's terminator,
// dst's own included, in block order, for the phi prologue of spec.md §4.3.
func predecessorsOf(blocks []*block, dst nir.Local) []predEdge {
	var edges []predEdge
	for _, b := range blocks {
		for _, n := range termEdges(b.term) {
			if n.Kind == nir.NLabel && n.Target == dst {
				edges = append(edges, predEdge{from: b, vals: n.Vals})
			}
		}
	}
	return edges
}

func termEdges(term nir.Inst) []nir.Next {
	switch term.Kind {
	case nir.IJump:
		return []nir.Next{term.JumpTo}
	case nir.IIf:
		return []nir.Next{term.IfThen, term.IfElse}
	case nir.ISwitch:
		edges := append([]nir.Next{}, term.Cases...)
		return append(edges, term.SwitchOther)
	default:
		return nil
	}
}

// genDefine emits a Define defn: signature derived from the entry block's label
// parameters, then the function body (spec.md §4.2, §4.3).
func (e *Emitter) genDefine(d *nir.Defn) error {
	e.copies = make(map[nir.Local]nir.Value)
	for _, in := range d.Insts {
		if in.Kind == nir.ILet && in.Op.Kind == nir.OCopy {
			e.copies[in.Result] = in.Op.CopySrc
		}
	}

	blocks, err := splitBlocks(d.Insts)
	if err != nil {
		return fmt.Errorf("nirllvm: %s: %w", d.Name.Source(), err)
	}
	if len(blocks) == 0 {
		return fmt.Errorf("nirllvm: %s: function has no blocks", d.Name.Source())
	}
	entry := blocks[0]

	params := make([]string, len(entry.params))
	for i, p := range entry.params {
		params[i] = entry.paramTy[i].String() + " " + p.Ref()
	}

	inlineAttr := ""
	if !d.Attrs.Has(nir.AttrMayInline) {
		inlineAttr = " noinline"
	}
	fmt.Fprintf(&e.body, "define %s @%s(%s)%s personality i32 (...)* @__gxx_personality_v0 {\n",
		d.Ret.String(), d.Name.Quoted(), strings.Join(params, ", "), inlineAttr)

	for i, b := range blocks {
		if err := e.genBlock(&e.body, b, blocks, i == 0); err != nil {
			return fmt.Errorf("nirllvm: %s: %w", d.Name.Source(), err)
		}
	}

	e.body.WriteString("}\n\n")
	e.copies = make(map[nir.Local]nir.Value)
	return nil
}

func blockLabelName(id nir.Local, split int) string {
	return "_" + strconv.Itoa(int(id)) + "." + strconv.Itoa(split)
}

func (e *Emitter) genBlock(buf *strings.Builder, b *block, all []*block, entry bool) error {
	fmt.Fprintf(buf, "%s:\n", blockLabelName(b.label, 0))

	switch {
	case entry:
		// Entry block params are the function's own parameter list, bound by the
		// calling convention rather than a phi prologue (spec.md §4.3).
	case b.handler:
		if err := e.genHandlerPrologue(buf, b); err != nil {
			return err
		}
	case len(b.params) > 0:
		if err := e.genPhiPrologue(buf, b, all); err != nil {
			return err
		}
	}

	split := 0
	blockName := "_" + strconv.Itoa(int(b.label))
	for _, in := range b.lets {
		var err error
		split, err = e.genLet(buf, in, blockName, split)
		if err != nil {
			return err
		}
	}
	return e.genTerm(buf, b.term)
}

// genPhiPrologue emits one phi instruction per regular block parameter, with one
// [value, label] pair per incoming edge (spec.md §4.3, §8 "phi arity").
func (e *Emitter) genPhiPrologue(buf *strings.Builder, b *block, all []*block) error {
	edges := predecessorsOf(all, b.label)
	for k, paramLocal := range b.params {
		ty := b.paramTy[k]
		pairs := make([]string, len(edges))
		for i, edge := range edges {
			val, err := e.typedVal(e.deconstify(edge.vals[k]))
			if err != nil {
				return err
			}
			// A phi's incoming label must name the predecessor's *final* split, the
			// block it was actually control-flowing from when it branched here.
			pred := blockLabelName(edge.from.label, edge.from.finalSplit())
			pairs[i] = fmt.Sprintf("[ %s, %%%s ]", stripType(val), pred)
		}
		fmt.Fprintf(buf, "  %s = phi %s %s\n", paramLocal.Ref(), ty.String(), strings.Join(pairs, ", "))
	}
	return nil
}

// stripType drops the leading "<ty> " of a typedVal rendering, since phi's incoming
// pairs carry the type once at the front of the instruction, not per-pair.
func stripType(typedVal string) string {
	if idx := strings.IndexByte(typedVal, ' '); idx >= 0 {
		return typedVal[idx+1:]
	}
	return typedVal
}

// genHandlerPrologue emits the bit-exact landing-pad sequence of spec.md §4.3,
// qualifying every temporary register and sub-label with the handler's own block id so
// multiple handlers in one function never collide on SSA names.
func (e *Emitter) genHandlerPrologue(buf *strings.Builder, b *block) error {
	id := strconv.Itoa(int(b.label))
	typeInfoBitcast := fmt.Sprintf("bitcast (%s* @%s to i8*)", typeInfoType, typeInfoSymbol)

	fmt.Fprintf(buf, "  %%rec_%s = landingpad { i8*, i32 } catch i8* %s\n", id, typeInfoBitcast)
	fmt.Fprintf(buf, "  %%r0_%s = extractvalue { i8*, i32 } %%rec_%s, 0\n", id, id)
	fmt.Fprintf(buf, "  %%r1_%s = extractvalue { i8*, i32 } %%rec_%s, 1\n", id, id)
	fmt.Fprintf(buf, "  %%tid_%s = call i32 @llvm.eh.typeid.for(i8* %s)\n", id, typeInfoBitcast)
	fmt.Fprintf(buf, "  %%cmp_%s = icmp eq i32 %%r1_%s, %%tid_%s\n", id, id, id)
	fmt.Fprintf(buf, "  br i1 %%cmp_%s, label %%succ_%s, label %%fail_%s\n", id, id, id)
	fmt.Fprintf(buf, "fail_%s:\n", id)
	fmt.Fprintf(buf, "  resume { i8*, i32 } %%rec_%s\n", id)
	fmt.Fprintf(buf, "succ_%s:\n", id)
	fmt.Fprintf(buf, "  %%w0_%s = call i8* @__cxa_begin_catch(i8* %%r0_%s)\n", id, id)
	fmt.Fprintf(buf, "  %%w1_%s = bitcast i8* %%w0_%s to i8**\n", id, id)
	fmt.Fprintf(buf, "  %%w2_%s = getelementptr i8*, i8** %%w1_%s, i32 1\n", id, id)

	excReg := "%exc_" + id
	if len(b.params) > 0 {
		excReg = b.params[0].Ref()
	}
	fmt.Fprintf(buf, "  %s = load i8*, i8** %%w2_%s\n", excReg, id)
	fmt.Fprintf(buf, "  call void @__cxa_end_catch()\n")
	return nil
}
