package tree

import (
	"fmt"
	"sync"

	"github.com/vanderheijden86/treekit/pkg/debug"
)

// Tree is one editable hierarchy. Every method runs to completion under a
// single mutex, so a Tree may be driven from several goroutines; listeners
// are called after the lock is released, in emission order.
//
// Nodes returned by queries are live. Mutating their structural fields
// directly bypasses the invariants; go through the Tree instead. Identifiers
// are unique within a Tree: AddNode, AddNodes and LoadChildren reject a node
// whose ID is already in use. New assumes its roots are already unique, as
// the loader guarantees.
type Tree struct {
	mu          sync.Mutex
	forest      Forest
	matcher     Matcher
	expansion   *Expansion
	drags       *DragRegistry
	multiSelect bool

	subs   []subscription
	nextID int
}

// Option configures a Tree.
type Option func(*Tree)

// WithPolicy sets the check propagation policy.
func WithPolicy(p CheckPolicy) Option {
	return func(t *Tree) { t.forest.Policy = p }
}

// WithDragRegistry shares a registry between trees. By default each Tree
// gets its own.
func WithDragRegistry(r *DragRegistry) Option {
	return func(t *Tree) {
		if r != nil {
			t.drags = r
		}
	}
}

// WithMultiSelect lets SelectNode keep other selections.
func WithMultiSelect(multi bool) Option {
	return func(t *Tree) { t.multiSelect = multi }
}

// New takes ownership of roots. Parent pointers are linked, check state is
// normalized, every node is made visible and expanded ids are recorded.
func New(roots []*Node, opts ...Option) *Tree {
	t := &Tree{
		forest:    Forest{Roots: roots},
		expansion: NewExpansion(),
		drags:     NewDragRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}
	Link(t.forest.Roots)
	Normalize(t.forest.Roots, t.forest.Policy)
	ClearSearch(t.forest.Roots)
	t.trackExpanded(t.forest.Roots)
	return t
}

func (t *Tree) trackExpanded(nodes []*Node) {
	Walk(nodes, func(n *Node) bool {
		if n.Expanded {
			n.HasBeenExpanded = true
			if n.ID.Valid() {
				_ = t.expansion.Set(n, true)
			}
		}
		return true
	})
}

// Subscribe registers l and returns a function that removes it.
func (t *Tree) Subscribe(l Listener) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscription{id: id, fn: l})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// run executes fn under the lock and then dispatches the events it produced.
func (t *Tree) run(fn func() ([]Event, error)) error {
	t.mu.Lock()
	events, err := fn()
	subs := append([]subscription(nil), t.subs...)
	t.mu.Unlock()

	for _, ev := range events {
		for _, s := range subs {
			s.fn(ev)
		}
	}
	return err
}

func (t *Tree) owned(n *Node) error {
	if !t.forest.Contains(n) {
		return fmt.Errorf("node %s: %w", n, ErrNotFound)
	}
	return nil
}

func (t *Tree) position(n *Node) Position {
	pos, _ := PositionOf(t.forest.Roots, n)
	return pos
}

// refilter restores visibility consistency after a structural change.
func (t *Tree) refilter(added ...*Node) {
	if t.matcher != nil {
		Search(t.forest.Roots, t.matcher)
		return
	}
	ClearSearch(added)
}

// Roots returns a copy of the root sequence.
func (t *Tree) Roots() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Node(nil), t.forest.Roots...)
}

// Policy returns the check propagation policy.
func (t *Tree) Policy() CheckPolicy {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.forest.Policy
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Count(t.forest.Roots)
}

// ── Mutation ──

// AddNode appends n under parent, or as a root when parent is nil. The new
// node keeps its own check state; nothing is propagated.
func (t *Tree) AddNode(parent, n *Node) error {
	return t.run(func() ([]Event, error) {
		if err := t.forest.AddNode(parent, n); err != nil {
			return nil, err
		}
		t.trackExpanded([]*Node{n})
		t.refilter(n)
		return nil, nil
	})
}

// AddNodes appends a batch of nodes or labels in order.
func (t *Tree) AddNodes(parent *Node, items ...Item) ([]*Node, error) {
	var added []*Node
	err := t.run(func() ([]Event, error) {
		nodes, err := t.forest.AddNodes(parent, items...)
		if err != nil {
			return nil, err
		}
		added = nodes
		t.trackExpanded(nodes)
		t.refilter(nodes...)
		return nil, nil
	})
	return added, err
}

// DeleteNode removes n, which must sit at index under parent (or in the
// root sequence when parent is nil). Expansion entries for the removed
// subtree are dropped.
func (t *Tree) DeleteNode(n, parent *Node, index int) error {
	return t.run(func() ([]Event, error) {
		if err := t.forest.DeleteNode(n, parent, index); err != nil {
			debug.Log("tree: delete rejected: %v", err)
			return nil, err
		}
		Walk([]*Node{n}, func(c *Node) bool {
			if c.ID.Valid() {
				_ = t.expansion.Set(c, false)
			}
			return true
		})
		t.refilter()
		return nil, nil
	})
}

// MoveNode relocates dragged; see Forest.MoveNode.
func (t *Tree) MoveNode(dragged, targetNode *Node, targetIndex int, targetParent *Node) error {
	return t.run(func() ([]Event, error) {
		if err := t.move(dragged, targetNode, targetIndex, targetParent); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

func (t *Tree) move(dragged, targetNode *Node, targetIndex int, targetParent *Node) error {
	if err := t.forest.MoveNode(dragged, targetNode, targetIndex, targetParent); err != nil {
		return err
	}
	t.refilter()
	return nil
}

// ── Check state ──

func checkable(n *Node) error {
	if n.NoCheckbox {
		return fmt.Errorf("check %s: node has no checkbox: %w", n, ErrInvalidOperation)
	}
	if n.CheckDisabled {
		return fmt.Errorf("check %s: checkbox disabled: %w", n, ErrInvalidOperation)
	}
	return nil
}

// SetChecked sets n fully checked or unchecked and propagates the change.
func (t *Tree) SetChecked(n *Node, checked bool) error {
	return t.run(func() ([]Event, error) {
		return t.setChecked(n, func(*Node) bool { return checked })
	})
}

// ToggleChecked flips n between checked and unchecked. A half-checked node
// becomes checked.
func (t *Tree) ToggleChecked(n *Node) error {
	return t.run(func() ([]Event, error) {
		return t.setChecked(n, func(n *Node) bool { return !n.Checked })
	})
}

func (t *Tree) setChecked(n *Node, next func(*Node) bool) ([]Event, error) {
	if err := t.owned(n); err != nil {
		return nil, err
	}
	if err := checkable(n); err != nil {
		return nil, err
	}
	SetChecked(n, next(n), false, t.forest.Policy)
	return []Event{{Kind: EventNodeChecked, Node: n, Value: n.Checked, Position: t.position(n)}}, nil
}

// ChildChecked pushes a full state down from n without touching ancestors.
func (t *Tree) ChildChecked(n *Node, checked bool) error {
	return t.run(func() ([]Event, error) {
		if err := t.owned(n); err != nil {
			return nil, err
		}
		ChildChecked(n, checked, t.forest.Policy)
		return nil, nil
	})
}

// ParentChecked recomputes the ancestors of n.
func (t *Tree) ParentChecked(n *Node) error {
	return t.run(func() ([]Event, error) {
		if err := t.owned(n); err != nil {
			return nil, err
		}
		ParentChecked(n, t.forest.Policy)
		return nil, nil
	})
}

// ── Search ──

// Search applies m and keeps applying it after later structural changes
// until the filter is cleared. It returns the match count.
func (t *Tree) Search(m Matcher) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.matcher = m
	return Search(t.forest.Roots, m)
}

// SearchKeyword filters by case-insensitive label substring. An empty
// keyword clears the filter.
func (t *Tree) SearchKeyword(kw string) int {
	return t.Search(KeywordMatcher(kw))
}

// ClearSearch removes the filter.
func (t *Tree) ClearSearch() {
	t.Search(nil)
}

// Searching reports whether a filter is active.
func (t *Tree) Searching() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.matcher != nil
}

// Matches returns the nodes matched by the active filter, in pre-order.
func (t *Tree) Matches() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Collect(t.forest.Roots, func(n *Node) bool { return n.Searched }, CollectOptions{})
}

// ── Expansion ──

// ToggleExpansion flips n's expanded state. The first expansion of an async
// node with no children also emits EventAsyncLoad. Nodes without an id are
// left alone and ErrInvalidIdentity is returned.
func (t *Tree) ToggleExpansion(n *Node) (bool, error) {
	var expanded bool
	err := t.run(func() ([]Event, error) {
		if err := t.owned(n); err != nil {
			return nil, err
		}
		exp, err := t.expansion.Toggle(n)
		if err != nil {
			return nil, err
		}
		expanded = exp
		first := exp && !n.HasBeenExpanded
		n.Expanded = exp
		if exp {
			n.HasBeenExpanded = true
		}
		pos := t.position(n)
		events := []Event{{Kind: EventNodeExpanded, Node: n, Value: exp, Position: pos}}
		if first && n.Async && n.IsLeaf() {
			events = append(events, Event{Kind: EventAsyncLoad, Node: n, Position: pos})
		}
		return events, nil
	})
	return expanded, err
}

// IsExpanded reports whether n is expanded.
func (t *Tree) IsExpanded(n *Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return n.ID.Valid() && t.expansion.IsExpanded(n.ID)
}

// ExpandedIDs returns the expanded ids in sorted order.
func (t *Tree) ExpandedIDs() []NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expansion.IDs()
}

func (t *Tree) setExpanded(n *Node, exp bool) {
	if t.expansion.Set(n, exp) != nil {
		return
	}
	n.Expanded = exp
	if exp {
		n.HasBeenExpanded = true
	}
}

// ExpandAll expands every node that has children and an id.
func (t *Tree) ExpandAll() {
	t.setAllExpanded(true)
}

// CollapseAll collapses every node that has an id.
func (t *Tree) CollapseAll() {
	t.setAllExpanded(false)
}

func (t *Tree) setAllExpanded(exp bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	Walk(t.forest.Roots, func(n *Node) bool {
		if !exp || !n.IsLeaf() {
			t.setExpanded(n, exp)
		}
		return true
	})
}

// ExpandPathTo expands every ancestor of n so it shows up in Visible.
func (t *Tree) ExpandPathTo(n *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.owned(n); err != nil {
		return err
	}
	for a := range Ancestors(n) {
		t.setExpanded(a, true)
	}
	return nil
}

// ── Selection ──

// SelectNode toggles n's selection. Unless multi-select is enabled, every
// other node is deselected.
func (t *Tree) SelectNode(n *Node) error {
	return t.run(func() ([]Event, error) {
		if err := t.owned(n); err != nil {
			return nil, err
		}
		if n.SelectionDisabled {
			return nil, fmt.Errorf("select %s: selection disabled: %w", n, ErrInvalidOperation)
		}
		next := !n.Selected
		if !t.multiSelect {
			Walk(t.forest.Roots, func(c *Node) bool {
				c.Selected = false
				return true
			})
		}
		n.Selected = next
		return []Event{{Kind: EventNodeSelected, Node: n, Value: next, Position: t.position(n)}}, nil
	})
}

// ── Async loading ──

// SetLoading marks n as waiting for children.
func (t *Tree) SetLoading(n *Node, loading bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.owned(n); err != nil {
		return err
	}
	n.Loading = loading
	return nil
}

// LoadChildren attaches fetched children to n and clears its loading flag.
// Children of a checked node come in checked; n is then re-derived.
func (t *Tree) LoadChildren(n *Node, items ...Item) ([]*Node, error) {
	var added []*Node
	err := t.run(func() ([]Event, error) {
		if err := t.owned(n); err != nil {
			return nil, err
		}
		nodes, err := t.forest.AddNodes(n, items...)
		if err != nil {
			return nil, err
		}
		added = nodes
		if n.Checked && !t.forest.Policy.Independent {
			for _, c := range nodes {
				pushDown(c, true, t.forest.Policy)
			}
		}
		if !n.IsLeaf() {
			refreshFrom(n, t.forest.Policy)
		}
		n.Loading = false
		t.trackExpanded(nodes)
		t.refilter(nodes...)
		return []Event{{Kind: EventNodesLoaded, Node: n, Value: true, Position: t.position(n)}}, nil
	})
	return added, err
}

// ── Drag and drop ──

// BeginDrag opens a drag session for n and returns its token.
func (t *Tree) BeginDrag(n *Node) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.owned(n); err != nil {
		return "", err
	}
	return t.drags.Begin(n, n.Parent()), nil
}

// ResolveDrag looks up an open session.
func (t *Tree) ResolveDrag(token string) (DragSession, bool) {
	return t.drags.Resolve(token)
}

// Drop completes a drag session: the recorded node is moved and the session
// is ended whether or not the move succeeded. An unknown token returns
// ErrNotFound.
func (t *Tree) Drop(token string, targetNode *Node, targetIndex int, targetParent *Node) error {
	return t.run(func() ([]Event, error) {
		s, ok := t.drags.Resolve(token)
		if !ok {
			return nil, fmt.Errorf("drag session %s: %w", token, ErrNotFound)
		}
		defer t.drags.End(token)

		err := t.move(s.Node, targetNode, targetIndex, targetParent)
		ended := Event{Kind: EventDragEnded, Node: s.Node, Value: err == nil, Token: token}
		if err != nil {
			return []Event{ended}, err
		}
		dest := targetParent
		if dest == nil {
			dest = targetNode
		}
		dropped := Event{
			Kind:     EventNodeDropped,
			Node:     s.Node,
			Value:    true,
			Position: t.position(s.Node),
			Target:   dest,
			Index:    targetIndex,
			Token:    token,
		}
		ended.Position = dropped.Position
		return []Event{dropped, ended}, nil
	})
}

// CancelDrag ends a session without moving anything.
func (t *Tree) CancelDrag(token string) bool {
	var existed bool
	_ = t.run(func() ([]Event, error) {
		s, ok := t.drags.Resolve(token)
		existed = t.drags.End(token)
		if !ok {
			return nil, nil
		}
		return []Event{{Kind: EventDragEnded, Node: s.Node, Token: token}}, nil
	})
	return existed
}

// ── Queries ──

// Find returns the first node in pre-order matching pred.
func (t *Tree) Find(pred func(*Node) bool) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Find(t.forest.Roots, pred)
}

// FindByID returns the node with the given id.
func (t *Tree) FindByID(id NodeID) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return FindByID(t.forest.Roots, id)
}

// FindByLabel returns the first node with the given label.
func (t *Tree) FindByLabel(label string) (*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return FindByLabel(t.forest.Roots, label)
}

// Collect returns matching nodes in pre-order.
func (t *Tree) Collect(pred func(*Node) bool, opts CollectOptions) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Collect(t.forest.Roots, pred, opts)
}

// CheckedNodes returns checked nodes.
func (t *Tree) CheckedNodes(leafOnly, includeHalfChecked bool) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CheckedNodes(t.forest.Roots, leafOnly, includeHalfChecked)
}

// SelectedNodes returns selected nodes.
func (t *Tree) SelectedNodes(leafOnly, includeHalfChecked bool) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SelectedNodes(t.forest.Roots, leafOnly, includeHalfChecked)
}

// PathOf returns n's dash-joined index path.
func (t *Tree) PathOf(n *Node) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return PathOf(t.forest.Roots, n)
}

// PositionOf returns n's level and sibling index.
func (t *Tree) PositionOf(n *Node) (Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return PositionOf(t.forest.Roots, n)
}

// Row is one line of the flattened view.
type Row struct {
	Node  *Node
	Level int
}

// Visible flattens the visible part of the tree for rendering: visible nodes,
// descending into expanded ones. While a filter is active, ancestors of
// matches are descended into even when collapsed so matches stay reachable.
func (t *Tree) Visible() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	var rows []Row
	filtering := t.matcher != nil
	var visit func(n *Node, level int)
	visit = func(n *Node, level int) {
		if !n.Visible {
			return
		}
		rows = append(rows, Row{Node: n, Level: level})
		if !n.Expanded && !(filtering && !n.Searched) {
			return
		}
		for _, c := range n.Children {
			visit(c, level+1)
		}
	}
	for _, r := range t.forest.Roots {
		visit(r, 0)
	}
	return rows
}
