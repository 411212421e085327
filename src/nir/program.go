package nir

// Program is the full, linked, reachability-pruned definition set the backend consumes
// (spec.md §1): a flat list of Defns plus an index keyed by normalized name for
// dependency and call-target lookups.
type Program struct {
	Defns []Defn
	index map[string]*Defn
}

// NewProgram builds a Program over defns, indexing each by its normalized name. A later
// definition with a name already seen overwrites the index entry; defns itself keeps
// every entry, in order, so Partitioner and Emitter still iterate the original order.
func NewProgram(defns []Defn) *Program {
	p := &Program{Defns: defns, index: make(map[string]*Defn, len(defns))}
	for i := range p.Defns {
		p.index[p.Defns[i].Name.Normalized()] = &p.Defns[i]
	}
	return p
}

// Lookup resolves name to its definition, if any is present in the program.
func (p *Program) Lookup(name Name) (*Defn, bool) {
	d, ok := p.index[name.Normalized()]
	return d, ok
}
