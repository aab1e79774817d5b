package tree

import (
	"fmt"
	"slices"

	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// Forest is a root sequence plus the check policy applied after structural
// changes. Its methods validate every precondition before touching the
// hierarchy, so a rejected call leaves the forest exactly as it was.
type Forest struct {
	Roots  []*Node
	Policy CheckPolicy
}

// Contains reports whether n is reachable from the root sequence.
func (f *Forest) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	return indexOf(f.Roots, Root(n)) >= 0
}

func (f *Forest) children(owner *Node) []*Node {
	if owner == nil {
		return f.Roots
	}
	return owner.Children
}

func (f *Forest) setChildren(owner *Node, seq []*Node) {
	if owner == nil {
		f.Roots = seq
		return
	}
	owner.Children = seq
}

// attached reports whether n already has a place in the forest.
func (f *Forest) attached(n *Node) bool {
	return n.parent != nil || indexOf(f.Roots, n) >= 0
}

// ids returns the identifiers already present in the forest.
func (f *Forest) ids() map[NodeID]bool {
	ids := make(map[NodeID]bool)
	Walk(f.Roots, func(n *Node) bool {
		if n.ID.Valid() {
			ids[n.ID] = true
		}
		return true
	})
	return ids
}

// checkAttachable validates n and its whole subtree for attachment under
// parent. Every node of the subtree must be new to the forest and distinct
// from parent. seen and ids carry across a batch, so repeated nodes and
// reused identifiers are caught too.
func (f *Forest) checkAttachable(parent, n *Node, seen map[*Node]bool, ids map[NodeID]bool) error {
	if n == nil {
		return fmt.Errorf("add nil node: %w", ErrInvalidOperation)
	}
	if f.attached(n) {
		return fmt.Errorf("add %s: already attached: %w", n, ErrInvalidOperation)
	}
	return f.checkSubtree(parent, n, n, seen, ids)
}

func (f *Forest) checkSubtree(parent, top, n *Node, seen map[*Node]bool, ids map[NodeID]bool) error {
	if n == parent {
		return fmt.Errorf("add %s under its own descendant %s: %w", top, parent, ErrInvalidOperation)
	}
	if seen[n] {
		return fmt.Errorf("add %s: %s occurs twice: %w", top, n, ErrInvalidOperation)
	}
	seen[n] = true
	if n.ID.Valid() {
		if ids[n.ID] {
			return fmt.Errorf("add %s: duplicate id %q: %w", top, n.ID, ErrInvalidOperation)
		}
		ids[n.ID] = true
	}
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("add %s: nil child under %s: %w", top, n, ErrInvalidOperation)
		}
		if (c.parent != nil && c.parent != n) || indexOf(f.Roots, c) >= 0 {
			return fmt.Errorf("add %s: child %s already attached: %w", top, c, ErrInvalidOperation)
		}
		if err := f.checkSubtree(parent, top, c, seen, ids); err != nil {
			return err
		}
	}
	return nil
}

func (f *Forest) checkOwner(parent *Node) error {
	if parent != nil && !f.Contains(parent) {
		return fmt.Errorf("parent %s: %w", parent, ErrNotFound)
	}
	return nil
}

// AddNode appends n to parent's children, or to the root sequence when
// parent is nil. n may carry a subtree; its parent pointers are linked and
// every node in it must be new to the forest, with an identifier not
// already in use. Check state is not propagated: n keeps whatever state the
// caller gave it.
func (f *Forest) AddNode(parent, n *Node) error {
	if err := f.checkOwner(parent); err != nil {
		return err
	}
	if err := f.checkAttachable(parent, n, make(map[*Node]bool), f.ids()); err != nil {
		return err
	}
	linkChildren(n)
	n.parent = parent
	f.setChildren(parent, append(f.children(parent), n))
	return nil
}

// AddNodes appends a batch in order. Label items become minimal visible
// leaves. Nothing is attached unless every item is valid.
func (f *Forest) AddNodes(parent *Node, items ...Item) ([]*Node, error) {
	if err := f.checkOwner(parent); err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(items))
	seen := make(map[*Node]bool, len(items))
	ids := f.ids()
	for _, it := range items {
		if it == nil {
			return nil, fmt.Errorf("add nil item: %w", ErrInvalidOperation)
		}
		n := it.toNode()
		if seen[n] {
			return nil, fmt.Errorf("add %s twice in one batch: %w", n, ErrInvalidOperation)
		}
		if err := f.checkAttachable(parent, n, seen, ids); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		linkChildren(n)
		n.parent = parent
	}
	f.setChildren(parent, append(f.children(parent), nodes...))
	return nodes, nil
}

// DeleteNode removes the node at index from parent's children (or the root
// sequence). The element at index must be n: indexes go stale under
// concurrent structural change, so a mismatch is rejected rather than
// deleting a neighbour. Ancestor check state is recomputed afterwards.
func (f *Forest) DeleteNode(n, parent *Node, index int) error {
	defer metrics.Timer(metrics.DeleteNode)()

	if err := f.checkOwner(parent); err != nil {
		return err
	}
	seq := f.children(parent)
	if index < 0 || index >= len(seq) {
		return fmt.Errorf("delete at index %d of %d: %w", index, len(seq), ErrInvalidOperation)
	}
	if seq[index] != n {
		return fmt.Errorf("delete %s: slot %d holds %s: %w", n, index, seq[index], ErrInvalidOperation)
	}
	f.setChildren(parent, slices.Delete(seq, index, index+1))
	n.parent = nil
	if parent != nil {
		refreshFrom(parent, f.Policy)
	}
	return nil
}

// MoveNode relocates dragged. The destination is targetParent when given,
// else targetNode, else the root sequence. targetIndex addresses the
// destination sequence after dragged has been taken out of its old slot and
// must lie in [0, len].
//
// Moving a node into itself or its own subtree would cut the subtree off the
// roots and is rejected with ErrInvalidOperation. The dragged node keeps its
// own check state; the old and new ancestor chains are recomputed.
func (f *Forest) MoveNode(dragged, targetNode *Node, targetIndex int, targetParent *Node) error {
	defer metrics.Timer(metrics.MoveNode)()

	if dragged == nil {
		return fmt.Errorf("move nil node: %w", ErrInvalidOperation)
	}
	dest := targetParent
	if dest == nil {
		dest = targetNode
	}
	if dest != nil && (dest == dragged || IsDescendant(dragged, dest)) {
		debug.Log("tree: rejected move of %s into its own subtree at %s", dragged, dest)
		return fmt.Errorf("move %s into its own subtree: %w", dragged, ErrInvalidOperation)
	}
	if err := f.checkOwner(dest); err != nil {
		return err
	}

	oldOwner, oldIndex, ok := locate(f.Roots, dragged)
	if !ok {
		return fmt.Errorf("move %s: %w", dragged, ErrNotFound)
	}
	limit := len(f.children(dest))
	if oldOwner == dest {
		limit--
	}
	if targetIndex < 0 || targetIndex > limit {
		return fmt.Errorf("move %s to index %d of %d: %w", dragged, targetIndex, limit, ErrInvalidOperation)
	}

	f.setChildren(oldOwner, slices.Delete(f.children(oldOwner), oldIndex, oldIndex+1))
	if err := f.insert(dest, targetIndex, dragged); err != nil {
		// Put it back where it was rather than leave it orphaned.
		f.setChildren(oldOwner, slices.Insert(f.children(oldOwner), oldIndex, dragged))
		return err
	}
	dragged.parent = dest

	if oldOwner != nil {
		refreshFrom(oldOwner, f.Policy)
	}
	if dest != nil && dest != oldOwner {
		refreshFrom(dest, f.Policy)
	}
	debug.Log("tree: moved %s to %s[%d]", dragged, dest, targetIndex)
	return nil
}

func (f *Forest) insert(owner *Node, index int, n *Node) error {
	seq := f.children(owner)
	if index < 0 || index > len(seq) {
		return fmt.Errorf("insert at index %d of %d: %w", index, len(seq), ErrInvalidOperation)
	}
	f.setChildren(owner, slices.Insert(seq, index, n))
	return nil
}
