package tree

// EventKind names a change notification.
type EventKind string

const (
	EventNodeChecked  EventKind = "node-checked"
	EventNodeExpanded EventKind = "node-expanded"
	EventNodeSelected EventKind = "node-selected"
	// EventAsyncLoad asks the caller to fetch an async node's children and
	// hand them back through LoadChildren.
	EventAsyncLoad   EventKind = "async-load-nodes"
	EventNodesLoaded EventKind = "nodes-loaded-async"
	EventNodeDropped EventKind = "node-dropped"
	EventDragEnded   EventKind = "drag-ended"
)

// Event describes one change. Value carries the new boolean state for
// checked/expanded/selected events and whether the drop succeeded for
// drag-ended. Target and Index are set for drops.
type Event struct {
	Kind     EventKind
	Node     *Node
	Value    bool
	Position Position
	Target   *Node
	Index    int
	Token    string
}

// Listener receives events after the change is complete and the tree lock
// has been released, so it may call back into the tree.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}
