package tree

import (
	"iter"
	"strconv"
	"strings"

	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// Walk visits the forest depth-first in pre-order. Returning false from fn
// stops the walk; Walk then returns false as well.
func Walk(roots []*Node, fn func(n *Node) bool) bool {
	for _, r := range roots {
		if !walkNode(r, fn) {
			return false
		}
	}
	return true
}

func walkNode(n *Node, fn func(n *Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !walkNode(c, fn) {
			return false
		}
	}
	return true
}

// Find returns the first node in pre-order for which pred is true.
func Find(roots []*Node, pred func(*Node) bool) (*Node, bool) {
	var found *Node
	Walk(roots, func(n *Node) bool {
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// FindByLabel returns the first node whose label equals label.
func FindByLabel(roots []*Node, label string) (*Node, bool) {
	return Find(roots, func(n *Node) bool { return n.Label == label })
}

// FindByID returns the first node with the given id. Absent ids never match.
func FindByID(roots []*Node, id NodeID) (*Node, bool) {
	if !id.Valid() {
		return nil, false
	}
	return Find(roots, func(n *Node) bool { return n.ID == id })
}

// CollectOptions narrows Collect results.
type CollectOptions struct {
	// LeafOnly drops nodes that have children.
	LeafOnly bool
	// IncludeHalfChecked makes half-checked nodes match regardless of the
	// predicate, for check-state queries.
	IncludeHalfChecked bool
}

// Collect returns every matching node in pre-order. A nil pred matches all.
func Collect(roots []*Node, pred func(*Node) bool, opts CollectOptions) []*Node {
	defer metrics.Timer(metrics.Collect)()

	var out []*Node
	Walk(roots, func(n *Node) bool {
		match := pred == nil || pred(n)
		if !match && opts.IncludeHalfChecked && n.HalfChecked {
			match = true
		}
		if match && opts.LeafOnly && !n.IsLeaf() {
			match = false
		}
		if match {
			out = append(out, n)
		}
		return true
	})
	return out
}

// CheckedNodes returns checked nodes, optionally restricted to leaves or
// widened to half-checked ones.
func CheckedNodes(roots []*Node, leafOnly, includeHalfChecked bool) []*Node {
	return Collect(roots, func(n *Node) bool { return n.Checked },
		CollectOptions{LeafOnly: leafOnly, IncludeHalfChecked: includeHalfChecked})
}

// SelectedNodes returns selected nodes with the same narrowing options as
// CheckedNodes.
func SelectedNodes(roots []*Node, leafOnly, includeHalfChecked bool) []*Node {
	return Collect(roots, func(n *Node) bool { return n.Selected },
		CollectOptions{LeafOnly: leafOnly, IncludeHalfChecked: includeHalfChecked})
}

// Ancestors yields the ancestors of n from its parent up to the root.
func Ancestors(n *Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n == nil {
			return
		}
		for p := n.parent; p != nil; p = p.parent {
			if !yield(p) {
				return
			}
		}
	}
}

// IsDescendant reports whether ancestor is a proper ancestor of n.
func IsDescendant(ancestor, n *Node) bool {
	if ancestor == nil || n == nil {
		return false
	}
	for p := range Ancestors(n) {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Level returns the depth of n (0 for a root).
func Level(n *Node) int {
	depth := 0
	for range Ancestors(n) {
		depth++
	}
	return depth
}

// Root returns the topmost ancestor of n, or n itself.
func Root(n *Node) *Node {
	top := n
	for p := range Ancestors(n) {
		top = p
	}
	return top
}

// Count returns the number of nodes in the forest.
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node) bool {
		total++
		return true
	})
	return total
}

// siblingsOf returns the sequence holding n: its parent's children or roots.
func siblingsOf(roots []*Node, n *Node) []*Node {
	if n.parent == nil {
		return roots
	}
	return n.parent.Children
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}

// PositionOf returns the level and sibling index of n.
func PositionOf(roots []*Node, n *Node) (Position, bool) {
	if n == nil {
		return Position{}, false
	}
	idx := indexOf(siblingsOf(roots, n), n)
	if idx < 0 {
		return Position{}, false
	}
	return Position{Level: Level(n), Index: idx}, true
}

// PathOf returns the dash-joined sibling indices from the root sequence down
// to n, e.g. "0-1-2". It is computed on every call: structural mutation
// invalidates any stored path. The second result is false when n is not
// reachable from roots.
func PathOf(roots []*Node, n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	var parts []string
	cur := n
	for {
		idx := indexOf(siblingsOf(roots, cur), cur)
		if idx < 0 {
			return "", false
		}
		parts = append(parts, strconv.Itoa(idx))
		if cur.parent == nil {
			break
		}
		cur = cur.parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "-"), true
}

// locate finds the sequence that holds n by identity, searching the whole
// forest rather than trusting n's parent pointer. It returns the owning
// node (nil for the root sequence) and the index.
func locate(roots []*Node, n *Node) (owner *Node, index int, ok bool) {
	if i := indexOf(roots, n); i >= 0 {
		return nil, i, true
	}
	Walk(roots, func(c *Node) bool {
		if i := indexOf(c.Children, n); i >= 0 {
			owner, index, ok = c, i, true
			return false
		}
		return true
	})
	return owner, index, ok
}
