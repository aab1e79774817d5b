package testutil

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// Forest generates linked, normalized forests of up to maxNodes nodes with
// random shape, check state and checkbox flags.
func Forest(maxNodes int) *rapid.Generator[[]*tree.Node] {
	return rapid.Custom(func(t *rapid.T) []*tree.Node {
		size := rapid.IntRange(1, maxNodes).Draw(t, "size")
		var roots []*tree.Node
		all := make([]*tree.Node, 0, size)
		for i := 0; i < size; i++ {
			n := tree.NewNode(tree.NodeID(fmt.Sprintf("n%d", i)), fmt.Sprintf("node-%d", i))
			n.Checked = rapid.Bool().Draw(t, "checked")
			n.CheckDisabled = rapid.IntRange(0, 9).Draw(t, "disabled") == 0
			n.NoCheckbox = rapid.IntRange(0, 14).Draw(t, "nocheckbox") == 0
			if len(all) == 0 || rapid.IntRange(0, 7).Draw(t, "root") == 0 {
				roots = append(roots, n)
			} else {
				all[rapid.IntRange(0, len(all)-1).Draw(t, "parent")].Append(n)
			}
			all = append(all, n)
		}
		tree.Link(roots)
		tree.Normalize(roots, tree.CheckPolicy{})
		return roots
	})
}

// DrawNode picks one node of the forest.
func DrawNode(t *rapid.T, roots []*tree.Node, label string) *tree.Node {
	all := Flatten(roots)
	return all[rapid.IntRange(0, len(all)-1).Draw(t, label)]
}

// DrawNodeOrNil is DrawNode with a chance of nil, standing for the root
// sequence.
func DrawNodeOrNil(t *rapid.T, roots []*tree.Node, label string) *tree.Node {
	all := Flatten(roots)
	i := rapid.IntRange(-1, len(all)-1).Draw(t, label)
	if i < 0 {
		return nil
	}
	return all[i]
}

// Subtree generates a detached subtree of up to maxNodes nodes whose ids
// all start with prefix.
func Subtree(prefix string, maxNodes int) *rapid.Generator[*tree.Node] {
	return rapid.Custom(func(t *rapid.T) *tree.Node {
		size := rapid.IntRange(1, maxNodes).Draw(t, "size")
		all := make([]*tree.Node, 0, size)
		for i := 0; i < size; i++ {
			n := tree.NewNode(tree.NodeID(fmt.Sprintf("%s-%d", prefix, i)), fmt.Sprintf("%s-%d", prefix, i))
			n.Checked = rapid.Bool().Draw(t, "checked")
			if len(all) > 0 {
				owner := all[rapid.IntRange(0, len(all)-1).Draw(t, "owner")]
				// Children only, so the subtree arrives with unlinked parents.
				owner.Children = append(owner.Children, n)
			}
			all = append(all, n)
		}
		return all[0]
	})
}
