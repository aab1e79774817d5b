// Package tree is the state engine behind an interactive tree widget.
//
// It owns the node hierarchy and keeps three cross-node invariants intact
// under every mutation:
//
//   - parent/child consistency: every child's Parent() is the node whose
//     Children slice holds it (nil for roots)
//   - tri-state check consistency: a non-leaf's Checked/HalfChecked flags
//     follow from its children
//   - visibility consistency: while a search filter is active, a node is
//     visible iff it or one of its descendants matched
//
// The free functions in this package work on a root sequence directly and
// are not safe for concurrent use. Tree wraps them with a mutex, ownership
// checks and change notifications and is what presentation code should use.
package tree

import (
	"strconv"
)

// NodeID is an optional stable node identifier. The empty string means the
// node has no identity.
type NodeID string

// IntID converts a numeric identifier into a NodeID.
func IntID(n int64) NodeID {
	return NodeID(strconv.FormatInt(n, 10))
}

// Valid reports whether the id is present.
func (id NodeID) Valid() bool {
	return id != ""
}

func (id NodeID) String() string {
	return string(id)
}

// Node is a single entry in the hierarchy.
//
// All flags default to false except Visible, which NewNode and Label items
// initialise to true. The engine enforces only the flags with cross-node
// effects (Checked, HalfChecked, Visible, Searched); the rest are carried for
// the presentation layer.
type Node struct {
	ID       NodeID
	Label    string
	Children []*Node

	Checked           bool
	HalfChecked       bool
	CheckedFromParent bool // state was last forced by an ancestor's check
	CheckDisabled     bool
	NoCheckbox        bool

	Selected          bool
	SelectionDisabled bool

	Visible  bool
	Searched bool

	Expanded        bool
	HasBeenExpanded bool
	Async           bool // children are fetched by the caller on first expansion
	Loading         bool

	parent *Node
}

// NewNode returns a visible, unchecked leaf.
func NewNode(id NodeID, label string) *Node {
	return &Node{ID: id, Label: label, Visible: true}
}

// Parent returns the owning node, or nil for a root or a detached node.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Append attaches children to n and links their parent pointers. It is meant
// for building detached trees before handing them to a Tree; it performs no
// validation and no check propagation.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.ID.Valid() {
		return n.Label + "#" + string(n.ID)
	}
	return n.Label
}

// Item is something AddNodes can attach: a *Node or a raw Label.
type Item interface {
	toNode() *Node
}

// Label is a raw label, wrapped into a minimal visible leaf when added.
type Label string

func (l Label) toNode() *Node { return NewNode("", string(l)) }

func (n *Node) toNode() *Node { return n }

// Items adapts a node slice for AddNodes and LoadChildren.
func Items(nodes ...*Node) []Item {
	items := make([]Item, len(nodes))
	for i, n := range nodes {
		items[i] = n
	}
	return items
}

// Position locates a node for event consumers: Level is the depth (0 for
// roots) and Index the sibling index.
type Position struct {
	Level int
	Index int
}

// Link sets parent pointers throughout the given forest so that it can be
// built from literal structs. Existing parent pointers are overwritten.
func Link(roots []*Node) {
	for _, r := range roots {
		if r == nil {
			continue
		}
		r.parent = nil
		linkChildren(r)
	}
}

func linkChildren(n *Node) {
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		c.parent = n
		linkChildren(c)
	}
}
