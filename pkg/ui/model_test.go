package ui_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/loader"
	"github.com/vanderheijden86/treekit/pkg/tree"
	"github.com/vanderheijden86/treekit/pkg/ui"
)

// project
// ├── docs
// └── src
//     └── main.go
func newTestModel(t *testing.T, opts ...ui.Option) ui.Model {
	t.Helper()
	project := tree.NewNode("p", "project")
	project.Expanded = true
	src := tree.NewNode("s", "src")
	src.Expanded = true
	src.Append(tree.NewNode("m", "main.go"))
	project.Append(tree.NewNode("d", "docs"), src)
	return ui.NewModel(tree.New([]*tree.Node{project}), config.DefaultConfig(), opts...)
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m ui.Model, keys ...string) ui.Model {
	for _, k := range keys {
		updated, _ := m.Update(keyPress(k))
		m = updated.(ui.Model)
	}
	return m
}

// runCmd executes cmd and feeds what it returns back into the model.
func runCmd(m ui.Model, cmd tea.Cmd) ui.Model {
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = runCmd(m, c)
		}
		return m
	}
	updated, _ := m.Update(msg)
	return updated.(ui.Model)
}

func rowLabels(m ui.Model) []string {
	var out []string
	for _, r := range m.Rows() {
		out = append(out, r.Node.Label)
	}
	return out
}

func currentLabel(m ui.Model) string {
	if n := m.Current(); n != nil {
		return n.Label
	}
	return ""
}

func TestModelNavigation(t *testing.T) {
	m := newTestModel(t)
	if got := strings.Join(rowLabels(m), ","); got != "project,docs,src,main.go" {
		t.Fatalf("rows = %s", got)
	}

	tests := []struct {
		keys []string
		want string
	}{
		{nil, "project"},
		{[]string{"j"}, "docs"},
		{[]string{"j", "j", "j", "j", "j"}, "main.go"},
		{[]string{"G", "k"}, "src"},
		{[]string{"G", "g"}, "project"},
		{[]string{"k"}, "project"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.keys, ""), func(t *testing.T) {
			if got := currentLabel(press(m, tt.keys...)); got != tt.want {
				t.Errorf("after %v cursor on %q, want %q", tt.keys, got, tt.want)
			}
		})
	}
}

func TestModelExpandCollapse(t *testing.T) {
	m := press(newTestModel(t), "j", "j")
	m = press(m, "h")
	if got := len(m.Rows()); got != 3 {
		t.Fatalf("collapsing src left %d rows, want 3", got)
	}
	if currentLabel(m) != "src" {
		t.Fatalf("cursor moved to %q", currentLabel(m))
	}

	m = press(m, "h")
	if currentLabel(m) != "project" {
		t.Errorf("h on a collapsed node should jump to the parent, got %q", currentLabel(m))
	}

	m = press(m, "j", "j", "l")
	if got := len(m.Rows()); got != 4 {
		t.Errorf("expanding src gave %d rows, want 4", got)
	}

	m = press(m, "C")
	if got := strings.Join(rowLabels(m), ","); got != "project" {
		t.Errorf("collapse all rows = %s", got)
	}
	m = press(m, "E")
	if got := len(m.Rows()); got != 4 {
		t.Errorf("expand all gave %d rows, want 4", got)
	}
}

func TestModelCheckPropagates(t *testing.T) {
	m := press(newTestModel(t), "j", "j", " ")

	tr := m.Tree()
	for label, want := range map[string]tree.CheckState{
		"src":     tree.Checked,
		"main.go": tree.Checked,
		"docs":    tree.Unchecked,
		"project": tree.HalfChecked,
	} {
		n, _ := tr.FindByLabel(label)
		if got := tree.StateOf(n); got != want {
			t.Errorf("%s: %s, want %s", label, got, want)
		}
	}
	if !strings.Contains(m.View(), "[-]") || !strings.Contains(m.View(), "[x]") {
		t.Error("view should show checked and half-checked boxes")
	}

	m = press(m, " ")
	if n := len(m.Tree().CheckedNodes(false, true)); n != 0 {
		t.Errorf("unchecking src left %d checked or half-checked nodes", n)
	}
}

func TestModelSelectIsSingle(t *testing.T) {
	m := press(newTestModel(t), "j", "s", "j", "s")
	selected := m.Tree().SelectedNodes(false, false)
	if len(selected) != 1 || selected[0].Label != "src" {
		t.Errorf("selected = %v, want only src", selected)
	}
}

func TestModelSearch(t *testing.T) {
	m := press(newTestModel(t), "/", "main", "enter")

	if m.Query() != "main" {
		t.Fatalf("query = %q", m.Query())
	}
	if got := strings.Join(rowLabels(m), ","); got != "project,src,main.go" {
		t.Errorf("filtered rows = %s", got)
	}
	if currentLabel(m) != "main.go" {
		t.Errorf("cursor should land on the first match, got %q", currentLabel(m))
	}

	m = press(m, "esc")
	if m.Query() != "" || m.Tree().Searching() {
		t.Error("esc should clear the search")
	}
	if got := len(m.Rows()); got != 4 {
		t.Errorf("rows after clearing = %d", got)
	}
	if currentLabel(m) != "main.go" {
		t.Errorf("cursor should stay on main.go, got %q", currentLabel(m))
	}
}

func TestModelSearchPromptEscape(t *testing.T) {
	m := press(newTestModel(t), "/", "docs", "esc")
	if m.Tree().Searching() {
		t.Error("esc in the prompt must not apply the search")
	}
}

func TestModelNextMatch(t *testing.T) {
	m := press(newTestModel(t), "/", "o", "enter")
	// project, docs, main.go all contain "o".
	var seen []string
	for range 4 {
		seen = append(seen, currentLabel(m))
		m = press(m, "n")
	}
	if got := strings.Join(seen, ","); got != "project,docs,main.go,project" {
		t.Errorf("n cycled %s", got)
	}
	m = press(m, "N", "N")
	if currentLabel(m) != "main.go" {
		t.Errorf("N should walk backwards, got %q", currentLabel(m))
	}
}

func TestModelRegexSearchError(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Search.Mode = "regex"
	project := tree.NewNode("p", "project")
	m := ui.NewModel(tree.New([]*tree.Node{project}), cfg)

	m = press(m, "/", "[", "enter")
	status, isErr := m.Status()
	if !isErr || !strings.Contains(status, "compiling") {
		t.Errorf("status = %q (err=%v), want a compile error", status, isErr)
	}
	if m.Tree().Searching() {
		t.Error("a bad pattern must not leave a filter behind")
	}
}

func TestModelDragDrop(t *testing.T) {
	t.Run("after", func(t *testing.T) {
		m := press(newTestModel(t), "G", "m")
		if d := m.Dragging(); d == nil || d.Label != "main.go" {
			t.Fatalf("dragging %v", d)
		}
		m = press(m, "g", "P")
		roots := m.Tree().Roots()
		if len(roots) != 2 || roots[1].Label != "main.go" {
			t.Fatalf("roots = %v", roots)
		}
		if m.Dragging() != nil {
			t.Error("drop should end the drag")
		}
	})

	t.Run("inside", func(t *testing.T) {
		m := press(newTestModel(t), "j", "m", "j", "p")
		src, _ := m.Tree().FindByLabel("src")
		if len(src.Children) != 2 || src.Children[1].Label != "docs" {
			t.Fatalf("src children = %v", src.Children)
		}
		if status, _ := m.Status(); !strings.Contains(status, "moved docs") {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("after sibling above", func(t *testing.T) {
		m := press(newTestModel(t), "j", "m", "j", "P")
		project := m.Tree().Roots()[0]
		if got := project.Children[1].Label; got != "docs" {
			t.Errorf("docs should land after src, children = %v", project.Children)
		}
	})

	t.Run("into own subtree", func(t *testing.T) {
		m := press(newTestModel(t), "j", "j", "m", "j", "p")
		status, isErr := m.Status()
		if !isErr {
			t.Fatalf("status = %q, want an error", status)
		}
		if m.Dragging() != nil {
			t.Error("a failed drop still ends the drag")
		}
		src, _ := m.Tree().FindByLabel("src")
		if src.Parent() == nil || src.Parent().Label != "project" {
			t.Error("src should not have moved")
		}
	})

	t.Run("nothing picked", func(t *testing.T) {
		m := press(newTestModel(t), "p")
		if status, isErr := m.Status(); !isErr || status != ui.ErrNothingPicked.Error() {
			t.Errorf("status = %q", status)
		}
	})

	t.Run("esc cancels", func(t *testing.T) {
		m := press(newTestModel(t), "j", "m", "esc")
		if m.Dragging() != nil {
			t.Error("esc should cancel the drag")
		}
		m = press(m, "p")
		if _, isErr := m.Status(); !isErr {
			t.Error("the cancelled session cannot be dropped")
		}
	})
}

func TestModelAddNodes(t *testing.T) {
	m := press(newTestModel(t), "j", "j", "a", "util.go", "enter")
	src, _ := m.Tree().FindByLabel("src")
	if len(src.Children) != 2 || src.Children[1].Label != "util.go" {
		t.Fatalf("src children = %v", src.Children)
	}
	if currentLabel(m) != "util.go" {
		t.Errorf("cursor on %q, want the new node", currentLabel(m))
	}
	if !src.Children[1].ID.Valid() {
		t.Error("added nodes need an id")
	}

	m = press(m, "A", "notes", "enter")
	roots := m.Tree().Roots()
	if len(roots) != 2 || roots[1].Label != "notes" {
		t.Errorf("roots = %v", roots)
	}

	before := m.Tree().Len()
	m = press(m, "a", "   ", "enter")
	if m.Tree().Len() != before {
		t.Error("a blank label adds nothing")
	}
}

func TestModelDelete(t *testing.T) {
	m := press(newTestModel(t), "j", "j", "x")
	if got := m.Tree().Len(); got != 2 {
		t.Fatalf("len = %d after deleting src, want 2", got)
	}
	if currentLabel(m) != "docs" {
		t.Errorf("cursor on %q, want docs", currentLabel(m))
	}
}

func TestModelDeleteCancelsDrag(t *testing.T) {
	m := press(newTestModel(t), "G", "m", "k", "x")
	if m.Dragging() != nil {
		t.Error("deleting the dragged subtree should cancel the drag")
	}
}

func TestModelAsyncLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"pkg/a.go", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	src := loader.NewDirSource(dir)
	roots, err := src.Roots(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m := ui.NewModel(tree.New(roots), config.DefaultConfig(), ui.WithDirSource(src))

	updated, cmd := m.Update(keyPress("l"))
	m = updated.(ui.Model)
	if cmd == nil {
		t.Fatal("expanding an unloaded directory should return a load command")
	}
	if !m.Current().Loading {
		t.Error("node should be loading")
	}

	m = runCmd(m, cmd)
	pkg := m.Current()
	if pkg.Loading || len(pkg.Children) != 1 || pkg.Children[0].Label != "a.go" {
		t.Fatalf("pkg after load: loading=%v children=%v", pkg.Loading, pkg.Children)
	}
	if got := strings.Join(rowLabels(m), ","); got != "pkg,a.go,README.md" {
		t.Errorf("rows = %s", got)
	}
}

func TestModelAsyncWithoutSource(t *testing.T) {
	n := tree.NewNode("x", "lazy")
	n.Async = true
	m := ui.NewModel(tree.New([]*tree.Node{n}), config.DefaultConfig())

	updated, cmd := m.Update(keyPress("l"))
	m = updated.(ui.Model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			t.Errorf("unexpected message %T", msg)
		}
	}
	if status, _ := m.Status(); !strings.Contains(status, "nothing to load") {
		t.Errorf("status = %q", status)
	}
}

func TestModelHelpAndQuit(t *testing.T) {
	m := press(newTestModel(t), "?")
	if !strings.Contains(m.View(), "Keys") {
		t.Error("help should list the keys")
	}
	m = press(m, "j")
	if !strings.Contains(m.View(), "treekit") {
		t.Error("any key should close the help")
	}

	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestModelScrolling(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 5})
	m = press(updated.(ui.Model), "G")

	view := m.View()
	if strings.Contains(view, "docs") {
		t.Error("docs should have scrolled out of view")
	}
	if !strings.Contains(view, "main.go") || !strings.Contains(view, "4/4") {
		t.Errorf("view should show the cursor row and position:\n%s", view)
	}
}

func TestModelInitialQuery(t *testing.T) {
	m := newTestModel(t, ui.WithQuery("docs"))
	if got := strings.Join(rowLabels(m), ","); got != "project,docs" {
		t.Errorf("rows = %s", got)
	}
}
