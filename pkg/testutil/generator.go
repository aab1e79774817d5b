// Package testutil provides tree fixtures and invariant checks for tests.
// Generators are deterministic for a given seed.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// Generator builds forests with predictable shapes. Ids are "n1", "n2", ...
// in creation order; labels are "node-1", "node-2", ...
type Generator struct {
	rng  *rand.Rand
	next int
}

// New returns a Generator seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewDefault returns a Generator with seed 42.
func NewDefault() *Generator {
	return New(42)
}

// Node returns a fresh leaf.
func (g *Generator) Node() *tree.Node {
	g.next++
	return tree.NewNode(tree.NodeID(fmt.Sprintf("n%d", g.next)), fmt.Sprintf("node-%d", g.next))
}

// Chain returns a single root with depth-1 descendants, each the only child
// of the previous one.
func (g *Generator) Chain(depth int) []*tree.Node {
	if depth <= 0 {
		return nil
	}
	root := g.Node()
	cur := root
	for i := 1; i < depth; i++ {
		c := g.Node()
		cur.Append(c)
		cur = c
	}
	return []*tree.Node{root}
}

// Wide returns a single root with n leaf children.
func (g *Generator) Wide(n int) []*tree.Node {
	root := g.Node()
	for i := 0; i < n; i++ {
		root.Append(g.Node())
	}
	return []*tree.Node{root}
}

// Balanced returns a single root where every node above the last level has
// breadth children. depth counts levels, so Balanced(1, b) is a lone root.
func (g *Generator) Balanced(depth, breadth int) []*tree.Node {
	if depth <= 0 {
		return nil
	}
	var grow func(level int) *tree.Node
	grow = func(level int) *tree.Node {
		n := g.Node()
		if level < depth {
			for i := 0; i < breadth; i++ {
				n.Append(grow(level + 1))
			}
		}
		return n
	}
	return []*tree.Node{grow(1)}
}

// Random returns a forest of size nodes. Each node after the first picks a
// random earlier node as its parent, or becomes a root with probability
// 1/8. About a quarter of the leaves start checked.
func (g *Generator) Random(size int) []*tree.Node {
	var roots []*tree.Node
	all := make([]*tree.Node, 0, size)
	for i := 0; i < size; i++ {
		n := g.Node()
		if len(all) == 0 || g.rng.Intn(8) == 0 {
			roots = append(roots, n)
		} else {
			all[g.rng.Intn(len(all))].Append(n)
		}
		all = append(all, n)
	}
	for _, n := range all {
		if n.IsLeaf() && g.rng.Intn(4) == 0 {
			n.Checked = true
		}
	}
	tree.Link(roots)
	tree.Normalize(roots, tree.CheckPolicy{})
	return roots
}

// Flatten returns every node in pre-order.
func Flatten(roots []*tree.Node) []*tree.Node {
	return tree.Collect(roots, nil, tree.CollectOptions{})
}

// Labels returns the labels of nodes, in order.
func Labels(nodes []*tree.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

// Quick helpers with the default seed.

func QuickChain(depth int) []*tree.Node            { return NewDefault().Chain(depth) }
func QuickWide(n int) []*tree.Node                 { return NewDefault().Wide(n) }
func QuickBalanced(depth, breadth int) []*tree.Node { return NewDefault().Balanced(depth, breadth) }
func QuickRandom(size int) []*tree.Node            { return NewDefault().Random(size) }
