package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// DirSource serves a directory hierarchy lazily. Directories become Async
// nodes whose ID is their path; their entries are read only when asked for,
// typically in answer to an async-load-nodes event.
//
// A DirSource never touches a tree.Tree. Callers attach what it returns via
// Tree.LoadChildren.
type DirSource struct {
	root       string
	showHidden bool
	limit      int
	flight     singleflight.Group
}

// DirOption tunes a DirSource.
type DirOption func(*DirSource)

// WithHidden includes dot files.
func WithHidden(show bool) DirOption {
	return func(s *DirSource) { s.showHidden = show }
}

// WithConcurrency bounds the number of directories Prefetch reads at once.
func WithConcurrency(n int) DirOption {
	return func(s *DirSource) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewDirSource serves the hierarchy below root.
func NewDirSource(root string, opts ...DirOption) *DirSource {
	s := &DirSource{root: filepath.Clean(root), limit: 8}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory being served.
func (s *DirSource) Root() string { return s.root }

// Roots lists the top-level entries.
func (s *DirSource) Roots(ctx context.Context) ([]*tree.Node, error) {
	return s.list(ctx, s.root)
}

// Children lists the entries of the directory n stands for.
func (s *DirSource) Children(ctx context.Context, n *tree.Node) ([]*tree.Node, error) {
	if n == nil || !n.ID.Valid() {
		return nil, fmt.Errorf("listing %s: %w", n, tree.ErrInvalidIdentity)
	}
	return s.list(ctx, string(n.ID))
}

// Prefetch lists several directories concurrently. Nodes that are not
// async directories are skipped. The first failure cancels the rest.
func (s *DirSource) Prefetch(ctx context.Context, nodes []*tree.Node) (map[tree.NodeID][]*tree.Node, error) {
	var dirs []*tree.Node
	for _, n := range nodes {
		if n != nil && n.Async && n.ID.Valid() {
			dirs = append(dirs, n)
		}
	}
	results := make([][]*tree.Node, len(dirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, n := range dirs {
		g.Go(func() error {
			children, err := s.Children(ctx, n)
			if err != nil {
				return err
			}
			results[i] = children
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[tree.NodeID][]*tree.Node, len(dirs))
	for i, n := range dirs {
		out[n.ID] = results[i]
	}
	return out, nil
}

// list reads dir once per burst of concurrent callers; each caller gets its
// own nodes because a node can only be attached in one place.
func (s *DirSource) list(ctx context.Context, dir string) ([]*tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.within(dir) {
		return nil, fmt.Errorf("listing %s: outside %s: %w", dir, s.root, tree.ErrInvalidOperation)
	}

	v, err, shared := s.flight.Do(dir, func() (any, error) {
		defer metrics.Timer(metrics.DirLoad)()
		return os.ReadDir(dir)
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	entries := v.([]os.DirEntry)
	debug.Log("loader: %s: %d entries (shared=%v)", dir, len(entries), shared)

	nodes := make([]*tree.Node, 0, len(entries))
	for _, e := range entries {
		if !s.showHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		n := tree.NewNode(tree.NodeID(filepath.Join(dir, e.Name())), e.Name())
		n.Async = e.IsDir()
		nodes = append(nodes, n)
	}
	slices.SortStableFunc(nodes, func(a, b *tree.Node) int {
		if a.Async != b.Async {
			if a.Async {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Label, b.Label)
	})
	return nodes, nil
}

func (s *DirSource) within(dir string) bool {
	rel, err := filepath.Rel(s.root, filepath.Clean(dir))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
