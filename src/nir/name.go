// Package nir defines the closed algebra of names, types, values, definitions and instructions
// that make up the native intermediate representation consumed by the LLVM backend.
package nir

import (
	"strconv"
	"strings"
)

// Name is a hierarchical global identifier: either a top-level definition or a member nested
// under some parent. Top("Foo") is the top-level name "Foo"; Top("Foo").Member("bar") is the
// nested name "Foo::bar".
type Name struct {
	Segments []string // Segments[0] is the top-level identifier.
	Sig      string    // Optional signature tag; carried for Source(), excluded from Normalized().
}

// Top creates a new top-level Name.
func Top(id string) Name {
	return Name{Segments: []string{id}}
}

// Member returns a new Name nesting id under parent.
func Member(parent Name, id string) Name {
	return parent.Member(id)
}

// Member returns a new Name with id appended under n.
func (n Name) Member(id string) Name {
	segs := make([]string, len(n.Segments)+1)
	copy(segs, n.Segments)
	segs[len(n.Segments)] = id
	return Name{Segments: segs, Sig: n.Sig}
}

// WithSig returns a copy of n carrying the given signature tag.
func (n Name) WithSig(sig string) Name {
	return Name{Segments: n.Segments, Sig: sig}
}

// TopID returns the enclosing top-level identifier of n, i.e. name.top in spec.md's
// vocabulary — the bucket used both for lowering groups and shard partitioning.
func (n Name) TopID() string {
	if len(n.Segments) == 0 {
		return ""
	}
	return n.Segments[0]
}

// Normalized returns the identity form of n used for set/map membership: the hierarchical
// path joined by "::", without the signature tag. This is also the form printed into LLVM IR,
// since a module-unique symbol name must not depend on upstream signature bookkeeping.
func (n Name) Normalized() string {
	return strings.Join(n.Segments, "::")
}

// Source returns the source form of n, which retains the signature tag. Used only for
// diagnostics; never for identity or for printed LLVM symbol names.
func (n Name) Source() string {
	base := n.Normalized()
	if n.Sig != "" {
		return base + n.Sig
	}
	return base
}

// String implements fmt.Stringer for diagnostic printing.
func (n Name) String() string {
	return n.Source()
}

// Quoted returns the printed LLVM reference form, e.g. `"Top::Member"`, suitable for
// embedding after an '@' or '%' sigil.
func (n Name) Quoted() string {
	return `"` + n.Normalized() + `"`
}

// Local is a numeric identifier unique within a single function body. It names both SSA
// values (printed "%_<id>") and basic block labels (printed "_<id>.<split>").
type Local int

// Ref returns the printed SSA register reference for l, e.g. "%_3".
func (l Local) Ref() string {
	return "%_" + strconv.Itoa(int(l))
}
