package nir

import "testing"

func TestNameNormalizedAndSource(t *testing.T) {
	n := Top("Foo").Member("bar").WithSig("(I)V")

	if got, want := n.Normalized(), "Foo::bar"; got != want {
		t.Errorf("Normalized() = %q, want %q", got, want)
	}
	if got, want := n.Source(), "Foo::bar(I)V"; got != want {
		t.Errorf("Source() = %q, want %q", got, want)
	}
	if got, want := n.Quoted(), `"Foo::bar"`; got != want {
		t.Errorf("Quoted() = %q, want %q", got, want)
	}
}

func TestNameTopID(t *testing.T) {
	n := Top("Foo").Member("bar").Member("baz")
	if got, want := n.TopID(), "Foo"; got != want {
		t.Errorf("TopID() = %q, want %q", got, want)
	}
}

func TestMemberDoesNotMutateParent(t *testing.T) {
	parent := Top("Foo")
	child := parent.Member("bar")
	if parent.Normalized() != "Foo" {
		t.Errorf("parent mutated: got %q", parent.Normalized())
	}
	if child.Normalized() != "Foo::bar" {
		t.Errorf("child = %q, want Foo::bar", child.Normalized())
	}
}

func TestLocalRef(t *testing.T) {
	if got, want := Local(3).Ref(), "%_3"; got != want {
		t.Errorf("Ref() = %q, want %q", got, want)
	}
}
