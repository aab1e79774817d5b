package tree

import (
	"fmt"
	"slices"
)

// Expansion is the set of expanded node ids. Expansion is a per-node
// property; nothing propagates up or down.
type Expansion struct {
	ids map[NodeID]struct{}
}

// NewExpansion returns an empty tracker.
func NewExpansion() *Expansion {
	return &Expansion{ids: make(map[NodeID]struct{})}
}

// Toggle flips n's membership and returns the new state. Nodes without an id
// cannot be tracked safely and are left alone.
func (e *Expansion) Toggle(n *Node) (bool, error) {
	if n == nil || !n.ID.Valid() {
		return false, fmt.Errorf("toggle expansion of %s: %w", n, ErrInvalidIdentity)
	}
	if _, ok := e.ids[n.ID]; ok {
		delete(e.ids, n.ID)
		return false, nil
	}
	e.ids[n.ID] = struct{}{}
	return true, nil
}

// Set forces n's membership.
func (e *Expansion) Set(n *Node, expanded bool) error {
	if n == nil || !n.ID.Valid() {
		return fmt.Errorf("set expansion of %s: %w", n, ErrInvalidIdentity)
	}
	if expanded {
		e.ids[n.ID] = struct{}{}
	} else {
		delete(e.ids, n.ID)
	}
	return nil
}

// IsExpanded reports whether id is in the set.
func (e *Expansion) IsExpanded(id NodeID) bool {
	_, ok := e.ids[id]
	return ok
}

// IDs returns the expanded ids in sorted order.
func (e *Expansion) IDs() []NodeID {
	out := make([]NodeID, 0, len(e.ids))
	for id := range e.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of expanded ids.
func (e *Expansion) Len() int {
	return len(e.ids)
}
