package tree

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vanderheijden86/treekit/pkg/metrics"
)

// DragSession is what a drag token resolves to: the node picked up and the
// parent it was picked up from (nil for a root).
type DragSession struct {
	Node   *Node
	Parent *Node
}

// DragRegistry correlates the two ends of a drag gesture. The start of the
// gesture records a node under a fresh opaque token; the drop resolves the
// token, possibly from a different event callback where object identity was
// not preserved. Every Begin must be matched by exactly one End so the map
// does not grow for the life of the process.
//
// A registry may be shared by several trees; all map access is serialized.
type DragRegistry struct {
	mu       sync.Mutex
	sessions map[string]DragSession
}

// NewDragRegistry returns an empty registry.
func NewDragRegistry() *DragRegistry {
	return &DragRegistry{sessions: make(map[string]DragSession)}
}

// Begin records node and parent under a new token and returns the token.
func (r *DragRegistry) Begin(node, parent *Node) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.sessions[token] = DragSession{Node: node, Parent: parent}
	r.mu.Unlock()
	metrics.DragSessions.Add(1)
	return token
}

// Resolve returns the session for token. A miss is a normal outcome: the
// gesture was cancelled or already completed.
func (r *DragRegistry) Resolve(token string) (DragSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	return s, ok
}

// End removes the session and reports whether it existed.
func (r *DragRegistry) End(token string) bool {
	r.mu.Lock()
	_, ok := r.sessions[token]
	delete(r.sessions, token)
	r.mu.Unlock()
	if ok {
		metrics.DragSessions.Add(-1)
	}
	return ok
}

// Len returns the number of open sessions.
func (r *DragRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
