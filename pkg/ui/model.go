// Package ui is the terminal tree browser: a bubbletea Model over a
// tree.Tree. The model never bypasses the tree's API; every keypress maps to
// one tree operation and the resulting events are turned into commands.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/debug"
	"github.com/vanderheijden86/treekit/pkg/loader"
	"github.com/vanderheijden86/treekit/pkg/tree"
	"github.com/vanderheijden86/treekit/pkg/watcher"
)

// loadTimeout bounds a single directory listing.
const loadTimeout = 10 * time.Second

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeAdd
	modeHelp
)

// ErrNothingPicked is returned by a drop with no open drag session.
var ErrNothingPicked = errors.New("nothing picked up (press m first)")

// eventQueue collects tree events during one Update. Listeners run on the
// Update goroutine, so no locking is needed.
type eventQueue struct {
	events []tree.Event
}

func (q *eventQueue) push(e tree.Event) { q.events = append(q.events, e) }

func (q *eventQueue) drain() []tree.Event {
	ev := q.events
	q.events = nil
	return ev
}

// childrenLoadedMsg carries a finished directory listing.
type childrenLoadedMsg struct {
	node     *tree.Node
	children []*tree.Node
	err      error
}

// fileChangedMsg is sent when the watched data file changes.
type fileChangedMsg struct{}

// reloadedMsg carries a freshly decoded data file.
type reloadedMsg struct {
	roots []*tree.Node
	err   error
}

// Option configures a Model.
type Option func(*Model)

// WithDirSource loads async nodes from src when they are first expanded.
func WithDirSource(src *loader.DirSource) Option {
	return func(m *Model) { m.source = src }
}

// WithFile records the data file the tree came from, for reloads.
func WithFile(path string) Option {
	return func(m *Model) { m.file = path }
}

// WithWatcher reloads the data file whenever w reports a change. The caller
// starts and stops w.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithTheme overrides the default theme.
func WithTheme(th Theme) Option {
	return func(m *Model) { m.theme = th }
}

// WithQuery starts with a search applied.
func WithQuery(q string) Option {
	return func(m *Model) { m.query = q }
}

// Model is the bubbletea model for the tree browser.
type Model struct {
	tree  *tree.Tree
	unsub func()
	queue *eventQueue
	cfg   config.Config
	theme Theme

	source  *loader.DirSource
	file    string
	watcher *watcher.Watcher

	rows   []tree.Row
	cursor int
	offset int
	width  int
	height int

	mode    mode
	input   textinput.Model
	addRoot bool
	help    string

	query   string
	matches []*tree.Node
	match   int

	dragToken string
	dragNode  *tree.Node

	status    string
	statusErr bool
}

// NewModel wraps t. The model subscribes to t and handles its events.
func NewModel(t *tree.Tree, cfg config.Config, opts ...Option) Model {
	ti := textinput.New()
	ti.CharLimit = 256

	m := Model{
		queue:  &eventQueue{},
		cfg:    cfg,
		theme:  TestTheme(),
		input:  ti,
		width:  80,
		height: 24,
		match:  -1,
	}
	if cfg.UI.Width > 0 {
		m.width = cfg.UI.Width
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.attach(t)

	if m.query != "" {
		if err := m.applySearch(m.query); err != nil {
			m.setErr(err)
		}
	}
	m.refresh(nil)
	return m
}

// attach switches the model to t, moving the event subscription over.
func (m *Model) attach(t *tree.Tree) {
	if m.unsub != nil {
		m.unsub()
	}
	m.queue.drain()
	m.tree = t
	m.unsub = t.Subscribe(m.queue.push)
	m.dragToken, m.dragNode = "", nil
}

// Init starts listening for file changes when a watcher is configured.
func (m Model) Init() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return waitForChange(m.watcher)
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if m.cfg.UI.Width <= 0 {
			m.width = msg.Width
		}
		m.height = msg.Height
		if m.mode == modeHelp {
			m.help = renderHelp(m.width)
		}
		m.scroll()
		return m, nil

	case childrenLoadedMsg:
		return m.handleLoaded(msg)

	case fileChangedMsg:
		if m.file == "" || m.watcher == nil {
			return m, nil
		}
		return m, tea.Batch(reloadCmd(m.file, m.cfg), waitForChange(m.watcher))

	case reloadedMsg:
		return m.handleReload(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch, modeAdd:
			return m.updateInput(msg)
		case modeHelp:
			m.mode = modeNormal
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
		return m.updateNormal(msg)
	}

	if m.mode == modeSearch || m.mode == modeAdd {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.current()
	focus := n
	m.status, m.statusErr = "", false

	var err error
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "g", "home":
		m.cursor = 0
		m.scroll()
		return m, nil
	case "G", "end":
		m.cursor = len(m.rows) - 1
		m.scroll()
		return m, nil
	case "l", "right", "enter":
		if n != nil && !n.Expanded {
			_, err = m.tree.ToggleExpansion(n)
		}
	case "h", "left":
		switch {
		case n == nil:
		case n.Expanded:
			_, err = m.tree.ToggleExpansion(n)
		case n.Parent() != nil:
			focus = n.Parent()
		}
	case "E":
		m.tree.ExpandAll()
	case "C":
		m.tree.CollapseAll()
		if n != nil {
			focus = tree.Root(n)
		}
	case " ", "space":
		if n != nil {
			err = m.tree.ToggleChecked(n)
		}
	case "s":
		if n != nil {
			err = m.tree.SelectNode(n)
		}
	case "/":
		m.startInput(modeSearch, "search: ", m.query)
		return m, textinput.Blink
	case "n":
		focus = m.nextMatch(1)
	case "N":
		focus = m.nextMatch(-1)
	case "m":
		err = m.beginDrag(n)
	case "p":
		err = m.drop(n, true)
	case "P":
		err = m.drop(n, false)
	case "esc":
		m.escape()
	case "a", "A":
		m.addRoot = msg.String() == "A" || n == nil
		prompt := "add child: "
		if m.addRoot {
			prompt = "add root: "
		}
		m.startInput(modeAdd, prompt, "")
		return m, textinput.Blink
	case "x":
		err = m.deleteNode(n)
	case "y":
		err = m.yank(n)
	case "?":
		m.mode = modeHelp
		m.help = renderHelp(m.width)
		return m, nil
	default:
		return m, nil
	}

	cmd := m.afterChange(focus)
	m.setErr(err)
	return m, cmd
}

func (m *Model) startInput(md mode, prompt, value string) {
	m.mode = md
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.input.Blur()
		return m, nil
	case "enter":
		value := m.input.Value()
		md := m.mode
		m.mode = modeNormal
		m.input.Blur()
		m.status, m.statusErr = "", false

		var focus *tree.Node
		var err error
		switch md {
		case modeSearch:
			err = m.applySearch(value)
			if err == nil && len(m.matches) > 0 {
				m.match = 0
				focus = m.reveal(m.matches[0])
			}
		case modeAdd:
			focus, err = m.addNode(value)
		}
		cmd := m.afterChange(focus)
		m.setErr(err)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// afterChange turns pending tree events into commands and rebuilds rows,
// keeping the cursor on focus when it is still visible.
func (m *Model) afterChange(focus *tree.Node) tea.Cmd {
	var cmds []tea.Cmd
	for _, e := range m.queue.drain() {
		debug.Log("ui: %s %s value=%v", e.Kind, e.Node, e.Value)
		switch e.Kind {
		case tree.EventAsyncLoad:
			if cmd := m.requestChildren(e.Node); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case tree.EventNodesLoaded:
			m.status = fmt.Sprintf("loaded %s (%d entries)", e.Node.Label, len(e.Node.Children))
		case tree.EventNodeDropped:
			m.status = fmt.Sprintf("moved %s", e.Node.Label)
		case tree.EventDragEnded:
			if e.Token == m.dragToken {
				m.dragToken, m.dragNode = "", nil
			}
		}
	}
	m.refresh(focus)
	return tea.Batch(cmds...)
}

func (m *Model) requestChildren(n *tree.Node) tea.Cmd {
	if m.source == nil {
		m.status = fmt.Sprintf("%s has nothing to load", n.Label)
		return nil
	}
	if err := m.tree.SetLoading(n, true); err != nil {
		m.setErr(err)
		return nil
	}
	return loadChildrenCmd(m.source, n)
}

func loadChildrenCmd(src *loader.DirSource, n *tree.Node) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		children, err := src.Children(ctx, n)
		return childrenLoadedMsg{node: n, children: children, err: err}
	}
}

func (m Model) handleLoaded(msg childrenLoadedMsg) (tea.Model, tea.Cmd) {
	focus := m.current()
	if msg.err != nil {
		_ = m.tree.SetLoading(msg.node, false)
		m.refresh(focus)
		m.setErr(msg.err)
		return m, nil
	}
	_, err := m.tree.LoadChildren(msg.node, tree.Items(msg.children...)...)
	cmd := m.afterChange(focus)
	m.setErr(err)
	return m, cmd
}

func waitForChange(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return fileChangedMsg{}
	}
}

func reloadCmd(path string, cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		roots, err := loader.LoadFile(path, loader.WithPolicy(cfg.CheckPolicy()))
		return reloadedMsg{roots: roots, err: err}
	}
}

// handleReload swaps in a reloaded forest. Expansion, the search query and
// the cursor are carried over by node id.
func (m Model) handleReload(msg reloadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setErr(msg.err)
		return m, nil
	}
	var focusID tree.NodeID
	if n := m.current(); n != nil {
		focusID = n.ID
	}
	expanded := make(map[tree.NodeID]bool)
	for _, id := range m.tree.ExpandedIDs() {
		expanded[id] = true
	}
	tree.Walk(msg.roots, func(n *tree.Node) bool {
		if expanded[n.ID] {
			n.Expanded = true
		}
		return true
	})

	m.attach(tree.New(msg.roots, m.cfg.TreeOptions()...))
	m.status, m.statusErr = "", false
	if m.query != "" {
		if err := m.applySearch(m.query); err != nil {
			m.setErr(err)
		}
	}
	focus, _ := m.tree.FindByID(focusID)
	m.refresh(focus)
	if !m.statusErr {
		m.status = fmt.Sprintf("reloaded %s", m.file)
	}
	return m, nil
}

// applySearch filters by q using the configured search mode. A blank q
// clears the filter.
func (m *Model) applySearch(q string) error {
	matcher, err := m.cfg.Matcher(q)
	if err != nil {
		return err
	}
	count := m.tree.Search(matcher)
	m.matches = m.tree.Matches()
	m.match = -1
	if matcher == nil {
		m.query = ""
		return nil
	}
	m.query = strings.TrimSpace(q)
	m.status = fmt.Sprintf("%d matches for %q", count, m.query)
	return nil
}

// nextMatch moves to the next or previous match and returns it.
func (m *Model) nextMatch(dir int) *tree.Node {
	if !m.tree.Searching() {
		m.status = "no search active (press /)"
		return m.current()
	}
	m.matches = m.tree.Matches()
	if len(m.matches) == 0 {
		m.status = "no matches"
		return m.current()
	}
	m.match = (m.match + dir + len(m.matches)) % len(m.matches)
	m.status = fmt.Sprintf("match %d/%d", m.match+1, len(m.matches))
	return m.reveal(m.matches[m.match])
}

// reveal expands the ancestors of n so it gets a row.
func (m *Model) reveal(n *tree.Node) *tree.Node {
	if n.Parent() != nil {
		if err := m.tree.ExpandPathTo(n); err != nil {
			debug.Log("ui: reveal %s: %v", n, err)
		}
	}
	return n
}

func (m *Model) escape() {
	switch {
	case m.dragToken != "":
		m.tree.CancelDrag(m.dragToken)
		m.status = "drag cancelled"
	case m.tree.Searching():
		m.tree.ClearSearch()
		m.query, m.matches, m.match = "", nil, -1
		m.status = "search cleared"
	}
}

func (m *Model) setErr(err error) {
	if err == nil {
		return
	}
	debug.Log("ui: %v", err)
	m.status, m.statusErr = err.Error(), true
}

// ── Cursor ──

func (m Model) current() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Node
}

// refresh rebuilds rows from the tree. The cursor follows focus, or the
// node it was on, and stays at the same index if that row disappeared.
func (m *Model) refresh(focus *tree.Node) {
	if focus == nil {
		focus = m.current()
	}
	m.rows = m.tree.Visible()
	if focus != nil {
		for i, r := range m.rows {
			if r.Node == focus {
				m.cursor = i
				break
			}
		}
	}
	m.cursor = clamp(m.cursor, 0, len(m.rows)-1)
	m.scroll()
}

func (m *Model) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, len(m.rows)-1)
	m.scroll()
}

// listHeight is the number of tree rows that fit between header and footer.
func (m Model) listHeight() int {
	return max(m.height-3, 1)
}

func (m *Model) scroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = clamp(m.offset, 0, max(len(m.rows)-h, 0))
}

// ── Accessors ──

// Tree returns the tree being browsed. It changes after a reload.
func (m Model) Tree() *tree.Tree { return m.tree }

// Rows returns the rows currently on offer.
func (m Model) Rows() []tree.Row { return m.rows }

// Cursor returns the index of the cursor row.
func (m Model) Cursor() int { return m.cursor }

// Current returns the node under the cursor, or nil for an empty tree.
func (m Model) Current() *tree.Node { return m.current() }

// Status returns the status line and whether it reports an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// Query returns the active search query.
func (m Model) Query() string { return m.query }

// Dragging returns the node picked up with m, if any.
func (m Model) Dragging() *tree.Node { return m.dragNode }
