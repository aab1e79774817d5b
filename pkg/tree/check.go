package tree

import (
	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// CheckState is the tri-state value of a node's checkbox.
type CheckState int

const (
	Unchecked CheckState = iota
	Checked
	HalfChecked
)

func (s CheckState) String() string {
	switch s {
	case Checked:
		return "checked"
	case HalfChecked:
		return "half-checked"
	default:
		return "unchecked"
	}
}

// DisabledPolicy controls how downward propagation treats CheckDisabled
// descendants.
type DisabledPolicy int

const (
	// DisabledSkip leaves a disabled node's own state alone but keeps
	// propagating into its children.
	DisabledSkip DisabledPolicy = iota
	// DisabledBlock does not enter a disabled node's subtree at all.
	DisabledBlock
)

// CheckPolicy configures the propagator.
type CheckPolicy struct {
	Disabled DisabledPolicy
	// Independent turns propagation off entirely: every node's state is
	// exactly what the caller set.
	Independent bool
}

// StateOf returns the tri-state value of n.
func StateOf(n *Node) CheckState {
	switch {
	case n.Checked:
		return Checked
	case n.HalfChecked:
		return HalfChecked
	default:
		return Unchecked
	}
}

func setState(n *Node, s CheckState) {
	n.Checked = s == Checked
	n.HalfChecked = s == HalfChecked
}

// SetChecked sets n's own state and propagates it. halfChecked is honoured
// only when checked is false and n has children; leaves never carry it.
//
// A full state is pushed down to every descendant (see ChildChecked), after
// which each non-leaf in the subtree is re-derived from its children and the
// ancestors are recomputed (see ParentChecked). The call is idempotent.
func SetChecked(n *Node, checked, halfChecked bool, p CheckPolicy) {
	defer metrics.Timer(metrics.CheckPropagation)()

	half := !checked && halfChecked && !n.IsLeaf()
	n.Checked = checked
	n.HalfChecked = half
	n.CheckedFromParent = false
	if p.Independent {
		return
	}
	if !half {
		ChildChecked(n, checked, p)
	}
	ParentChecked(n, p)
}

// ChildChecked forces every eligible descendant of n to the given full state
// and then re-derives the non-leaf nodes of the subtree, n included.
// NoCheckbox and CheckDisabled descendants keep their own state.
func ChildChecked(n *Node, checked bool, p CheckPolicy) {
	if p.Independent {
		return
	}
	for _, c := range n.Children {
		pushDown(c, checked, p)
	}
	rederive(n)
}

func pushDown(n *Node, checked bool, p CheckPolicy) {
	if n.CheckDisabled && p.Disabled == DisabledBlock {
		return
	}
	if !n.CheckDisabled && !n.NoCheckbox {
		n.Checked = checked
		n.HalfChecked = false
		n.CheckedFromParent = true
	}
	for _, c := range n.Children {
		pushDown(c, checked, p)
	}
}

// rederive recomputes every non-leaf below and including n, bottom-up.
func rederive(n *Node) {
	for _, c := range n.Children {
		rederive(c)
	}
	if !n.IsLeaf() {
		derive(n)
	}
}

// derive recomputes n from its checkbox-bearing children and reports whether
// the tri-state changed. A node that has lost all of its children becomes
// unchecked; a node whose children all lack checkboxes is left alone.
func derive(n *Node) bool {
	var total, checked, half int
	for _, c := range n.Children {
		if c.NoCheckbox {
			continue
		}
		total++
		switch {
		case c.Checked:
			checked++
		case c.HalfChecked:
			half++
		}
	}

	var next CheckState
	switch {
	case total == 0:
		if len(n.Children) > 0 {
			return false
		}
		next = Unchecked
	case checked == total:
		next = Checked
	case checked == 0 && half == 0:
		next = Unchecked
	default:
		next = HalfChecked
	}

	prev := StateOf(n)
	setState(n, next)
	return prev != next
}

// ParentChecked recomputes the ancestors of n from its parent upward. It
// stops at the first ancestor whose tri-state did not change, since nothing
// above it can change either.
func ParentChecked(n *Node, p CheckPolicy) {
	refreshFrom(n.Parent(), p)
}

// refreshFrom recomputes start and its ancestors.
func refreshFrom(start *Node, p CheckPolicy) {
	if p.Independent {
		return
	}
	for a := start; a != nil; a = a.parent {
		if !derive(a) {
			return
		}
	}
}

// Normalize makes freshly loaded data consistent. Leaves and checked nodes
// lose any half-checked flag, every explicitly checked node pushes its state
// down, then every non-leaf is re-derived from its children.
func Normalize(roots []*Node, p CheckPolicy) {
	Walk(roots, func(n *Node) bool {
		if n.IsLeaf() || n.Checked {
			n.HalfChecked = false
		}
		return true
	})
	if p.Independent {
		return
	}
	for _, r := range roots {
		normalizeDown(r, p)
		rederive(r)
	}
}

func normalizeDown(n *Node, p CheckPolicy) {
	if n.IsLeaf() {
		return
	}
	if n.Checked && !n.NoCheckbox {
		for _, c := range n.Children {
			pushDown(c, true, p)
		}
		return
	}
	for _, c := range n.Children {
		normalizeDown(c, p)
	}
}
