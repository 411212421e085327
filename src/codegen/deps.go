package codegen

import (
	"fmt"

	"github.com/nirlang/nirllvm/src/nir"
)

// lookup resolves name's type from the linked program, recording it in deps unless the
// name is defined locally in this shard (spec.md §4.6). Interned __const names are
// answered from constTy before that check, so they are never recorded in deps.
func (e *Emitter) lookup(name nir.Name) (nir.Type, error) {
	norm := name.Normalized()
	if ty, ok := e.constTy[norm]; ok {
		return ty, nil
	}
	if !e.localNames[norm] {
		e.deps[norm] = struct{}{}
	}
	d, ok := e.prog.Lookup(name)
	if !ok {
		return nir.Type{}, fmt.Errorf("nirllvm: undefined global %q", name.Source())
	}
	return d.TypeOf(), nil
}
