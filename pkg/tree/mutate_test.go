package tree

import (
	"errors"
	"slices"
	"testing"
)

func TestExampleCheckThenMoveToRoot(t *testing.T) {
	a, b, c, d := sample()
	f := &Forest{Roots: []*Node{a}}

	SetChecked(d, true, false, f.Policy)
	if !c.Checked || !a.HalfChecked {
		t.Fatalf("after check: C=%v A=%v", StateOf(c), StateOf(a))
	}

	if err := f.MoveNode(d, nil, 0, nil); err != nil {
		t.Fatalf("MoveNode failed: %v", err)
	}
	if !c.IsLeaf() || StateOf(c) != Unchecked {
		t.Errorf("C should be an unchecked leaf, got %v with %d children", StateOf(c), len(c.Children))
	}
	if StateOf(a) != Unchecked {
		t.Errorf("A = %v, want unchecked", StateOf(a))
	}
	if !slices.Equal(labelsOf(f.Roots), []string{"D", "A"}) {
		t.Errorf("roots = %v", labelsOf(f.Roots))
	}
	if d.Parent() != nil || !d.Checked {
		t.Error("D should be a checked root")
	}
	if !slices.Equal(labelsOf(a.Children), []string{"B", "C"}) {
		t.Errorf("A children = %v", labelsOf(a.Children))
	}
	_ = b
}

func TestMoveIntoSelfRejected(t *testing.T) {
	a, _, c, d := sample()
	f := &Forest{Roots: []*Node{a}}
	before := snapshot(a)

	tests := []struct {
		name                 string
		dragged, node, paren *Node
	}{
		{"onto itself", a, a, a},
		{"into child", a, c, nil},
		{"into grandchild", a, nil, d},
		{"leaf onto itself", d, d, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.MoveNode(tt.dragged, tt.node, 0, tt.paren)
			if !errors.Is(err, ErrInvalidOperation) {
				t.Fatalf("expected ErrInvalidOperation, got %v", err)
			}
			if snapshot(a) != before || len(f.Roots) != 1 {
				t.Error("tree changed after rejected move")
			}
		})
	}
}

func TestMoveNodeTargets(t *testing.T) {
	a, b, c, d := sample()
	f := &Forest{Roots: []*Node{a}}

	// targetParent wins over targetNode.
	if err := f.MoveNode(b, d, 0, c); err != nil {
		t.Fatal(err)
	}
	if b.Parent() != c || !slices.Equal(labelsOf(c.Children), []string{"B", "D"}) {
		t.Errorf("C children = %v", labelsOf(c.Children))
	}

	// targetNode alone is the container.
	if err := f.MoveNode(b, d, 0, nil); err != nil {
		t.Fatal(err)
	}
	if b.Parent() != d {
		t.Error("B should now be under D")
	}
	if Count(f.Roots) != 4 {
		t.Errorf("count = %d", Count(f.Roots))
	}
}

func TestMoveWithinSameParent(t *testing.T) {
	p := NewNode("p", "P")
	x, y, z := NewNode("x", "X"), NewNode("y", "Y"), NewNode("z", "Z")
	p.Append(x, y, z)
	f := &Forest{Roots: []*Node{p}}

	// Index is taken after removal: moving X to 2 puts it last.
	if err := f.MoveNode(x, nil, 2, p); err != nil {
		t.Fatal(err)
	}
	if got := labelsOf(p.Children); !slices.Equal(got, []string{"Y", "Z", "X"}) {
		t.Errorf("order = %v", got)
	}
	if err := f.MoveNode(x, nil, 3, p); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("index past the end should fail, got %v", err)
	}
	if got := labelsOf(p.Children); !slices.Equal(got, []string{"Y", "Z", "X"}) {
		t.Errorf("failed move changed order: %v", got)
	}
}

func TestMoveNodeErrors(t *testing.T) {
	a, b, _, _ := sample()
	f := &Forest{Roots: []*Node{a}}
	stranger := NewNode("s", "S")

	if err := f.MoveNode(nil, a, 0, nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("nil dragged: %v", err)
	}
	if err := f.MoveNode(stranger, a, 0, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("detached dragged: %v", err)
	}
	if err := f.MoveNode(b, stranger, 0, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign destination: %v", err)
	}
	if err := f.MoveNode(b, nil, -1, nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("negative index: %v", err)
	}
}

func TestMoveUpdatesBothChains(t *testing.T) {
	p1, p2 := NewNode("p1", "P1"), NewNode("p2", "P2")
	x, y, z := NewNode("x", "X"), NewNode("y", "Y"), NewNode("z", "Z")
	p1.Append(x, y)
	p2.Append(z)
	f := &Forest{Roots: []*Node{p1, p2}}
	SetChecked(x, true, false, f.Policy)
	if StateOf(p1) != HalfChecked {
		t.Fatalf("P1 = %v", StateOf(p1))
	}

	if err := f.MoveNode(y, nil, 0, p2); err != nil {
		t.Fatal(err)
	}
	if StateOf(p1) != Checked {
		t.Errorf("P1 = %v; only checked X remains", StateOf(p1))
	}
	if StateOf(p2) != Unchecked {
		t.Errorf("P2 = %v", StateOf(p2))
	}

	if err := f.MoveNode(x, nil, 0, p2); err != nil {
		t.Fatal(err)
	}
	if StateOf(p2) != HalfChecked {
		t.Errorf("P2 = %v after receiving checked X", StateOf(p2))
	}
	if StateOf(p1) != Unchecked || !p1.IsLeaf() {
		t.Errorf("emptied P1 = %v", StateOf(p1))
	}
}

func TestAddNode(t *testing.T) {
	a, b, _, d := sample()
	f := &Forest{Roots: []*Node{a}}
	SetChecked(b, true, false, f.Policy)

	n := NewNode("n", "N")
	if err := f.AddNode(a, n); err != nil {
		t.Fatal(err)
	}
	if n.Parent() != a || a.Children[2] != n {
		t.Error("AddNode did not append")
	}
	if StateOf(a) != HalfChecked {
		t.Error("AddNode must not propagate check state")
	}

	r := NewNode("r", "R")
	if err := f.AddNode(nil, r); err != nil || f.Roots[1] != r {
		t.Errorf("AddNode as root: %v", err)
	}

	tests := []struct {
		name   string
		parent *Node
		n      *Node
		want   error
	}{
		{"nil", a, nil, ErrInvalidOperation},
		{"attached", a, d, ErrInvalidOperation},
		{"root again", nil, r, ErrInvalidOperation},
		{"foreign parent", NewNode("x", "X"), NewNode("y", "Y"), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.AddNode(tt.parent, tt.n); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddNodesBatch(t *testing.T) {
	a, _, _, _ := sample()
	f := &Forest{Roots: []*Node{a}}
	n := NewNode("n", "N")

	added, err := f.AddNodes(a, n, Label("raw"))
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 2 || added[0] != n || added[1].Label != "raw" || added[1].Parent() != a {
		t.Errorf("added = %v", added)
	}

	// All-or-nothing.
	fresh := NewNode("f", "F")
	if _, err := f.AddNodes(a, fresh, n); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected rejection, got %v", err)
	}
	if fresh.Parent() != nil || len(a.Children) != 4 {
		t.Error("rejected batch attached nodes")
	}
	if _, err := f.AddNodes(nil, fresh, fresh); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("duplicate in batch: %v", err)
	}
	if _, err := f.AddNodes(nil, nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("nil item: %v", err)
	}
}

func TestDeleteNode(t *testing.T) {
	a, b, c, d := sample()
	f := &Forest{Roots: []*Node{a}}
	SetChecked(d, true, false, f.Policy)

	if err := f.DeleteNode(b, a, 1); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("wrong slot: %v", err)
	}
	if err := f.DeleteNode(b, a, 5); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("out of range: %v", err)
	}

	if err := f.DeleteNode(b, a, 0); err != nil {
		t.Fatal(err)
	}
	if b.Parent() != nil || len(a.Children) != 1 {
		t.Error("B not detached")
	}
	if StateOf(a) != Checked {
		t.Errorf("A = %v; its only child C is checked", StateOf(a))
	}

	if err := f.DeleteNode(d, c, 0); err != nil {
		t.Fatal(err)
	}
	if StateOf(c) != Unchecked || StateOf(a) != Unchecked {
		t.Errorf("after deleting D: C=%v A=%v", StateOf(c), StateOf(a))
	}

	if err := f.DeleteNode(a, nil, 0); err != nil || len(f.Roots) != 0 {
		t.Errorf("delete root: %v, roots=%d", err, len(f.Roots))
	}
}

func TestContains(t *testing.T) {
	a, _, _, d := sample()
	f := &Forest{Roots: []*Node{a}}
	if !f.Contains(d) || f.Contains(NewNode("", "x")) || f.Contains(nil) {
		t.Error("Contains mismatch")
	}
}

func TestAddNodeLinksSubtree(t *testing.T) {
	a, _, c, _ := sample()
	f := &Forest{Roots: []*Node{a}}

	y := NewNode("y", "Y")
	x := &Node{ID: "x", Label: "X", Visible: true, Children: []*Node{y}}
	if err := f.AddNode(nil, x); err != nil {
		t.Fatal(err)
	}
	if y.Parent() != x {
		t.Fatalf("y.Parent() = %v, want X", y.Parent())
	}
	if path, ok := PathOf(f.Roots, y); !ok || path != "1-0" {
		t.Errorf("PathOf(y) = %q, %v", path, ok)
	}

	// y now has a place, so it cannot be attached a second time.
	if err := f.AddNode(c, y); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("re-adding a linked descendant: %v", err)
	}
	if got := Count(f.Roots); got != 6 {
		t.Errorf("Count = %d, want 6", got)
	}
}

func TestAddNodeRejectsBadSubtree(t *testing.T) {
	a, b, c, d := sample()
	f := &Forest{Roots: []*Node{a}}

	loop := &Node{ID: "loop", Label: "loop"}
	loop.Children = []*Node{NewNode("inner", "inner"), loop}

	tests := []struct {
		name   string
		parent *Node
		n      *Node
	}{
		{"holds attached child", nil, &Node{ID: "p", Children: []*Node{d}}},
		{"holds a root", c, &Node{ID: "p", Children: []*Node{a}}},
		{"nil child", nil, &Node{ID: "p", Children: []*Node{nil}}},
		{"repeats a node", nil, loop},
		{"duplicate id", nil, NewNode("b", "other B")},
		{"duplicate id below", nil, &Node{ID: "p", Children: []*Node{NewNode("c", "other C")}}},
		{"repeated id inside", nil, &Node{ID: "p", Children: []*Node{NewNode("q", "1"), NewNode("q", "2")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Count(f.Roots)
			if err := f.AddNode(tt.parent, tt.n); !errors.Is(err, ErrInvalidOperation) {
				t.Fatalf("got %v, want ErrInvalidOperation", err)
			}
			if Count(f.Roots) != before || d.Parent() != c || b.Parent() != a {
				t.Error("rejected add changed the forest")
			}
		})
	}

	if _, err := f.AddNodes(b, NewNode("n1", "1"), NewNode("n1", "2")); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("duplicate id across a batch: %v", err)
	}
	if !b.IsLeaf() {
		t.Error("rejected batch attached nodes")
	}

	// Anonymous nodes never collide.
	if _, err := f.AddNodes(b, NewNode("", "1"), NewNode("", "2")); err != nil {
		t.Errorf("anonymous batch: %v", err)
	}
}

func TestAddNodesLinksSubtrees(t *testing.T) {
	a, b, _, _ := sample()
	f := &Forest{Roots: []*Node{a}}

	leaf := NewNode("leaf", "leaf")
	sub := &Node{ID: "sub", Label: "sub", Visible: true, Children: []*Node{leaf}}
	if _, err := f.AddNodes(b, sub, Label("raw")); err != nil {
		t.Fatal(err)
	}
	if leaf.Parent() != sub || sub.Parent() != b {
		t.Errorf("parents: leaf=%v sub=%v", leaf.Parent(), sub.Parent())
	}
	if !f.Contains(leaf) {
		t.Error("leaf should be reachable")
	}
}
