package testutil

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// TB is the subset of testing.TB used here; *rapid.T satisfies it too.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// AssertAcyclic fails if the child links form a cycle or reach a node twice.
// The structure is explored without trusting it to be a tree, so a broken
// forest is reported rather than looping forever.
func AssertAcyclic(t TB, roots []*tree.Node) {
	t.Helper()

	ids := make(map[*tree.Node]int64)
	g := simple.NewDirectedGraph()
	idOf := func(n *tree.Node) int64 {
		if id, ok := ids[n]; ok {
			return id
		}
		id := int64(len(ids))
		ids[n] = id
		g.AddNode(simple.Node(id))
		return id
	}

	stack := append([]*tree.Node(nil), roots...)
	expanded := make(map[*tree.Node]bool)
	indegree := make(map[*tree.Node]int)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		from := idOf(n)
		if expanded[n] {
			continue
		}
		expanded[n] = true
		for _, c := range n.Children {
			if c == nil {
				t.Errorf("nil child under %s", n)
				continue
			}
			to := idOf(c)
			if from == to {
				t.Errorf("node %s is its own child", n)
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
			indegree[c]++
			stack = append(stack, c)
		}
	}

	if _, err := topo.Sort(g); err != nil {
		t.Errorf("forest contains a cycle: %v", err)
	}
	for _, r := range roots {
		if indegree[r] > 0 {
			t.Errorf("root %s is also a child", r)
		}
	}
	for n, d := range indegree {
		if d > 1 {
			t.Errorf("node %s has %d parents", n, d)
		}
	}
}

// AssertParentLinks fails if any parent pointer disagrees with the child
// links.
func AssertParentLinks(t TB, roots []*tree.Node) {
	t.Helper()
	for _, r := range roots {
		if p := r.Parent(); p != nil {
			t.Errorf("root %s has parent %s", r, p)
		}
	}
	tree.Walk(roots, func(n *tree.Node) bool {
		for _, c := range n.Children {
			if c.Parent() != n {
				t.Errorf("child %s of %s points at %s", c, n, c.Parent())
			}
		}
		return true
	})
}

// ExpectedState derives the tri-state a non-leaf should have from its
// checkbox-bearing children. ok is false when there is nothing to derive
// from.
func ExpectedState(n *tree.Node) (s tree.CheckState, ok bool) {
	if n.IsLeaf() {
		return tree.Unchecked, true
	}
	var total, checked, half int
	for _, c := range n.Children {
		if c.NoCheckbox {
			continue
		}
		total++
		switch tree.StateOf(c) {
		case tree.Checked:
			checked++
		case tree.HalfChecked:
			half++
		}
	}
	switch {
	case total == 0:
		return 0, false
	case checked == total:
		return tree.Checked, true
	case checked == 0 && half == 0:
		return tree.Unchecked, true
	}
	return tree.HalfChecked, true
}

// AssertCheckConsistency fails if a node is both checked and half-checked,
// a leaf is half-checked, or (unless p is independent) a non-leaf's state
// is not the one derived from its children.
func AssertCheckConsistency(t TB, roots []*tree.Node, p tree.CheckPolicy) {
	t.Helper()
	tree.Walk(roots, func(n *tree.Node) bool {
		if n.Checked && n.HalfChecked {
			t.Errorf("node %s is checked and half-checked", n)
		}
		if n.IsLeaf() {
			if n.HalfChecked {
				t.Errorf("leaf %s is half-checked", n)
			}
			return true
		}
		if p.Independent {
			return true
		}
		if want, ok := ExpectedState(n); ok && tree.StateOf(n) != want {
			t.Errorf("node %s is %v, children say %v", n, tree.StateOf(n), want)
		}
		return true
	})
}

// AssertVisibility fails unless every node is visible (no filter) or each
// node's visibility is exactly "matched or has a visible child" (filter).
func AssertVisibility(t TB, roots []*tree.Node, filtering bool) {
	t.Helper()
	tree.Walk(roots, func(n *tree.Node) bool {
		if !filtering {
			if !n.Visible || n.Searched {
				t.Errorf("node %s: visible=%v searched=%v with no filter", n, n.Visible, n.Searched)
			}
			return true
		}
		want := n.Searched
		for _, c := range n.Children {
			want = want || c.Visible
		}
		if n.Visible != want {
			t.Errorf("node %s: visible=%v, want %v", n, n.Visible, want)
		}
		return true
	})
}

// AssertInvariants runs every structural and state check.
func AssertInvariants(t TB, roots []*tree.Node, p tree.CheckPolicy, filtering bool) {
	t.Helper()
	AssertAcyclic(t, roots)
	AssertParentLinks(t, roots)
	AssertCheckConsistency(t, roots, p)
	AssertVisibility(t, roots, filtering)
}

// Describe renders the forest as an indented outline with check marks, for
// failure messages.
func Describe(roots []*tree.Node) string {
	var out string
	var visit func(n *tree.Node, depth int)
	visit = func(n *tree.Node, depth int) {
		out += fmt.Sprintf("%*s[%s] %s\n", depth*2, "", mark(n), n)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
	return out
}

func mark(n *tree.Node) string {
	switch tree.StateOf(n) {
	case tree.Checked:
		return "x"
	case tree.HalfChecked:
		return "-"
	}
	return " "
}
