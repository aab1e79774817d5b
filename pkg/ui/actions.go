package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// beginDrag picks n up. A previous session is cancelled first.
func (m *Model) beginDrag(n *tree.Node) error {
	if n == nil {
		return nil
	}
	if m.dragToken != "" {
		m.tree.CancelDrag(m.dragToken)
	}
	token, err := m.tree.BeginDrag(n)
	if err != nil {
		return err
	}
	m.dragToken, m.dragNode = token, n
	m.status = fmt.Sprintf("picked up %s: p drops inside, P drops after, esc cancels", n.Label)
	return nil
}

// drop completes the drag session at target. inside appends the dragged
// node to target's children; otherwise it lands right after target.
// Indices address the destination after the dragged node has been taken out.
func (m *Model) drop(target *tree.Node, inside bool) error {
	if m.dragToken == "" {
		return ErrNothingPicked
	}
	if target == nil {
		return nil
	}
	dragged := m.dragNode

	if inside {
		idx := len(target.Children)
		if dragged.Parent() == target {
			idx--
		}
		if err := m.tree.Drop(m.dragToken, target, idx, nil); err != nil {
			return err
		}
		m.reveal(dragged)
		return nil
	}

	pos, ok := m.tree.PositionOf(target)
	if !ok {
		m.tree.CancelDrag(m.dragToken)
		return fmt.Errorf("drop after %s: %w", target, tree.ErrNotFound)
	}
	parent := target.Parent()
	idx := pos.Index + 1
	if dragged.Parent() == parent {
		if dp, ok := m.tree.PositionOf(dragged); ok && dp.Index <= pos.Index {
			idx--
		}
	}
	return m.tree.Drop(m.dragToken, nil, idx, parent)
}

// addNode adds a node labelled label under the cursor row, or as a root.
// New nodes get a random id so they can be expanded.
func (m *Model) addNode(label string) (*tree.Node, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, nil
	}
	var parent *tree.Node
	if !m.addRoot {
		parent = m.current()
	}
	n := tree.NewNode(tree.NodeID(uuid.NewString()), label)
	if err := m.tree.AddNode(parent, n); err != nil {
		return nil, err
	}
	m.reveal(n)
	m.status = fmt.Sprintf("added %s", label)
	return n, nil
}

// deleteNode removes n and its subtree. An open drag of anything inside the
// removed subtree is cancelled.
func (m *Model) deleteNode(n *tree.Node) error {
	if n == nil {
		return nil
	}
	pos, ok := m.tree.PositionOf(n)
	if !ok {
		return fmt.Errorf("delete %s: %w", n, tree.ErrNotFound)
	}
	if err := m.tree.DeleteNode(n, n.Parent(), pos.Index); err != nil {
		return err
	}
	if m.dragNode != nil && (m.dragNode == n || tree.IsDescendant(n, m.dragNode)) {
		m.tree.CancelDrag(m.dragToken)
	}
	m.status = fmt.Sprintf("deleted %s", n.Label)
	return nil
}

// yank copies the index path of n to the system clipboard.
func (m *Model) yank(n *tree.Node) error {
	if n == nil {
		return nil
	}
	path, ok := m.tree.PathOf(n)
	if !ok {
		return fmt.Errorf("yank %s: %w", n, tree.ErrNotFound)
	}
	if err := clipboard.WriteAll(path); err != nil {
		return fmt.Errorf("copying path: %w", err)
	}
	m.status = fmt.Sprintf("copied %s", path)
	return nil
}
