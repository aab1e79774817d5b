package tree

import "errors"

var (
	// ErrNotFound indicates the target node, session or slot does not exist.
	// Lookups return it as an ordinary result, not a fatal condition.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation indicates a rejected mutation, such as a move that
	// would create a cycle or a delete at a stale index. The tree is left
	// exactly as it was before the call.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidIdentity indicates an operation that needs a node id was
	// invoked on a node without one. It is a no-op.
	ErrInvalidIdentity = errors.New("node has no id")
)
