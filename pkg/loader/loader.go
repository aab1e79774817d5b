// Package loader builds tree forests from JSON or YAML documents and from
// the file system.
//
// A document is either a list of nodes or a single node. Each node is an
// object, or a bare string which becomes a label-only node:
//
//	- id: 1
//	  label: src
//	  expanded: true
//	  children:
//	    - main.go
//	    - {id: 3, label: util.go, checked: true}
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// Format is a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// ErrDuplicateID is returned when two nodes in one document share an id.
var ErrDuplicateID = errors.New("duplicate node id")

// ParseFormat maps a name ("json", "yaml", "yml") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatJSON, fmt.Errorf("unknown format %q", name)
}

// FormatOf guesses the format from a file extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// ID accepts a string or an integer on input. Integers are kept in decimal.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("id %s: must be a string or an integer", b)
	}
	*id = ID(tree.IntID(n))
	return nil
}

func (id *ID) UnmarshalYAML(v *yaml.Node) error {
	if v.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a string or an integer", v.Line)
	}
	switch v.Tag {
	case "!!null":
		*id = ""
	case "!!int":
		var n int64
		if err := v.Decode(&n); err != nil {
			return err
		}
		*id = ID(tree.IntID(n))
	case "!!str":
		*id = ID(v.Value)
	default:
		return fmt.Errorf("line %d: id must be a string or an integer, got %s", v.Line, v.Tag)
	}
	return nil
}

// NodeSpec is the on-disk form of a node. Title is accepted as an alias for
// Label.
type NodeSpec struct {
	ID                ID         `json:"id,omitempty" yaml:"id,omitempty"`
	Label             string     `json:"label,omitempty" yaml:"label,omitempty"`
	Title             string     `json:"title,omitempty" yaml:"title,omitempty"`
	Children          []NodeSpec `json:"children,omitempty" yaml:"children,omitempty"`
	Checked           bool       `json:"checked,omitempty" yaml:"checked,omitempty"`
	HalfChecked       bool       `json:"halfChecked,omitempty" yaml:"halfChecked,omitempty"`
	Selected          bool       `json:"selected,omitempty" yaml:"selected,omitempty"`
	Expanded          bool       `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Async             bool       `json:"async,omitempty" yaml:"async,omitempty"`
	CheckDisabled     bool       `json:"checkDisabled,omitempty" yaml:"checkDisabled,omitempty"`
	NoCheckbox        bool       `json:"noCheckbox,omitempty" yaml:"noCheckbox,omitempty"`
	SelectionDisabled bool       `json:"selectionDisabled,omitempty" yaml:"selectionDisabled,omitempty"`
}

type nodeSpecFields NodeSpec

func (s *NodeSpec) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*s = NodeSpec{}
		return json.Unmarshal(b, &s.Label)
	}
	return json.Unmarshal(b, (*nodeSpecFields)(s))
}

func (s *NodeSpec) UnmarshalYAML(v *yaml.Node) error {
	if v.Kind == yaml.ScalarNode {
		*s = NodeSpec{Label: v.Value}
		return nil
	}
	return v.Decode((*nodeSpecFields)(s))
}

func (s NodeSpec) label() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Title
}

type options struct {
	policy tree.CheckPolicy
}

// Option tunes decoding.
type Option func(*options)

// WithPolicy normalizes check state under p instead of the default policy.
func WithPolicy(p tree.CheckPolicy) Option {
	return func(o *options) { o.policy = p }
}

// Decode parses a document into a linked, normalized forest.
func Decode(data []byte, format Format, opts ...Option) ([]*tree.Node, error) {
	defer metrics.Timer(metrics.Decode)()

	specs, err := decodeSpecs(data, format)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	return Build(specs, opts...)
}

// Read decodes a document from r.
func Read(r io.Reader, format Format, opts ...Option) ([]*tree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", format, err)
	}
	return Decode(data, format, opts...)
}

// LoadFile decodes the file at path, choosing the format by extension.
func LoadFile(path string, opts ...Option) ([]*tree.Node, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	roots, err := Decode(data, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	debug.Log("loader: %s: %d nodes", path, tree.Count(roots))
	return roots, nil
}

func decodeSpecs(data []byte, format Format) ([]NodeSpec, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if format == FormatYAML {
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		root := &doc
		if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
			root = root.Content[0]
		}
		if root.Kind == yaml.SequenceNode {
			var specs []NodeSpec
			err := root.Decode(&specs)
			return specs, err
		}
		var one NodeSpec
		err := root.Decode(&one)
		return []NodeSpec{one}, err
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var specs []NodeSpec
		err := json.Unmarshal(trimmed, &specs)
		return specs, err
	}
	var one NodeSpec
	err := json.Unmarshal(data, &one)
	return []NodeSpec{one}, err
}

// Build turns specs into a forest: parent pointers are linked and check
// state is normalized bottom-up. Non-empty ids must be unique.
func Build(specs []NodeSpec, opts ...Option) ([]*tree.Node, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	seen := make(map[tree.NodeID]bool)
	roots := make([]*tree.Node, 0, len(specs))
	for _, s := range specs {
		n, err := build(s, seen)
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	tree.Link(roots)
	tree.Normalize(roots, o.policy)
	return roots, nil
}

func build(s NodeSpec, seen map[tree.NodeID]bool) (*tree.Node, error) {
	id := tree.NodeID(s.ID)
	if id.Valid() {
		if seen[id] {
			return nil, fmt.Errorf("node %q: %w", id, ErrDuplicateID)
		}
		seen[id] = true
	}

	n := tree.NewNode(id, s.label())
	n.Checked = s.Checked
	n.HalfChecked = s.HalfChecked && !s.Checked
	n.Selected = s.Selected
	n.Expanded = s.Expanded
	n.Async = s.Async
	n.CheckDisabled = s.CheckDisabled
	n.NoCheckbox = s.NoCheckbox
	n.SelectionDisabled = s.SelectionDisabled

	for _, cs := range s.Children {
		c, err := build(cs, seen)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// Specs converts a forest back to its on-disk form. Presentation state that
// is derived (visibility, search marks, loading) is not written.
func Specs(roots []*tree.Node) []NodeSpec {
	specs := make([]NodeSpec, 0, len(roots))
	for _, n := range roots {
		specs = append(specs, NodeSpec{
			ID:                ID(n.ID),
			Label:             n.Label,
			Children:          Specs(n.Children),
			Checked:           n.Checked,
			HalfChecked:       n.HalfChecked,
			Selected:          n.Selected,
			Expanded:          n.Expanded,
			Async:             n.Async,
			CheckDisabled:     n.CheckDisabled,
			NoCheckbox:        n.NoCheckbox,
			SelectionDisabled: n.SelectionDisabled,
		})
	}
	return specs
}

// Encode writes roots as a document that Decode reads back.
func Encode(roots []*tree.Node, format Format) ([]byte, error) {
	specs := Specs(roots)
	if format == FormatYAML {
		data, err := yaml.Marshal(specs)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return append(data, '\n'), nil
}
