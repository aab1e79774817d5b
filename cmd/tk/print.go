package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/vanderheijden86/treekit/pkg/config"
	"github.com/vanderheijden86/treekit/pkg/loader"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// printTree writes the tree to w in the -format encoding. Text output
// honours -search by printing only visible nodes.
func printTree(ctx context.Context, w io.Writer, t *tree.Tree, src *loader.DirSource, o options, cfg config.Config) error {
	if src != nil && o.depth > 1 {
		if err := loadDepth(ctx, t, src, o.depth); err != nil {
			return err
		}
	}
	if o.search != "" {
		m, err := cfg.Matcher(o.search)
		if err != nil {
			return err
		}
		t.Search(m)
	}

	if o.format == "text" {
		return writeText(w, t, cfg.ShowCheckboxes(), outputWidth(cfg))
	}
	format, err := loader.ParseFormat(o.format)
	if err != nil {
		return err
	}
	data, err := loader.Encode(t.Roots(), format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// loadDepth loads directory levels below the roots, one level per round,
// each round listing its directories concurrently.
func loadDepth(ctx context.Context, t *tree.Tree, src *loader.DirSource, depth int) error {
	level := t.Roots()
	for d := 1; d < depth && len(level) > 0; d++ {
		listed, err := src.Prefetch(ctx, level)
		if err != nil {
			return err
		}
		var next []*tree.Node
		for _, n := range level {
			children, ok := listed[n.ID]
			if !ok {
				continue
			}
			added, err := t.LoadChildren(n, tree.Items(children...)...)
			if err != nil {
				return err
			}
			next = append(next, added...)
		}
		level = next
	}
	return nil
}

// outputWidth is the configured width, else the terminal width, else 0 for
// no truncation.
func outputWidth(cfg config.Config) int {
	if cfg.UI.Width > 0 {
		return cfg.UI.Width
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// writeText prints one visible node per line, two spaces per level.
func writeText(w io.Writer, t *tree.Tree, checkboxes bool, width int) error {
	bw := bufio.NewWriter(w)
	var visit func(n *tree.Node, level int)
	visit = func(n *tree.Node, level int) {
		if !n.Visible {
			return
		}
		line := strings.Repeat("  ", level)
		if checkboxes && !n.NoCheckbox {
			switch tree.StateOf(n) {
			case tree.Checked:
				line += "[x] "
			case tree.HalfChecked:
				line += "[-] "
			default:
				line += "[ ] "
			}
		}
		line += n.Label
		if n.Async && !n.HasBeenExpanded && n.IsLeaf() {
			line += "/"
		}
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		fmt.Fprintln(bw, line)
		for _, c := range n.Children {
			visit(c, level+1)
		}
	}
	for _, r := range t.Roots() {
		visit(r, 0)
	}
	return bw.Flush()
}
