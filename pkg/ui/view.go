package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treekit/pkg/metrics"
	"github.com/vanderheijden86/treekit/pkg/tree"
)

// View renders the header, the visible window of rows and the footer.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if m.mode == modeHelp {
		return m.help
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	if len(m.rows) == 0 {
		sb.WriteString(m.renderEmptyState())
		sb.WriteString("\n")
	} else {
		filtering := m.tree.Searching()
		end := min(m.offset+m.listHeight(), len(m.rows))
		for i := m.offset; i < end; i++ {
			sb.WriteString(m.renderRow(m.rows[i], i == m.cursor, filtering))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.renderFooter())
	return sb.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("treekit")
	checked := len(m.tree.CheckedNodes(false, false))
	selected := len(m.tree.SelectedNodes(false, false))
	info := fmt.Sprintf(" %d nodes · %d checked · %d selected", m.tree.Len(), checked, selected)
	if m.query != "" {
		info += fmt.Sprintf(" · /%s", m.query)
	}
	return title + m.theme.MutedText.Render(truncateRunesHelper(info, m.width-lipgloss.Width(title)-1, "…"))
}

func (m Model) renderEmptyState() string {
	if m.tree.Searching() {
		return m.theme.MutedText.Render("  no matches · esc clears the search")
	}
	return m.theme.MutedText.Render("  empty tree · A adds a root")
}

func (m Model) renderFooter() string {
	if m.mode == modeSearch || m.mode == modeAdd {
		return m.input.View()
	}

	pos := ""
	if len(m.rows) > 0 {
		pos = fmt.Sprintf("%d/%d", m.cursor+1, len(m.rows))
	}
	status := m.status
	if status == "" {
		status = "? help · q quit"
	}
	avail := m.width - runewidth.StringWidth(pos) - 2
	status = truncateRunesHelper(status, avail, "…")

	style := m.theme.MutedText
	if m.statusErr {
		style = m.theme.DangerText
	}
	return style.Render(padRight(status, avail)) + "  " + m.theme.SecondaryText.Render(pos)
}

// renderRow draws one node: tree prefix, expand indicator, checkbox, label.
func (m Model) renderRow(row tree.Row, isCursor, filtering bool) string {
	n := row.Node
	width := m.width - 1

	var sb strings.Builder
	prefix := m.treePrefix(n, row.Level)
	sb.WriteString(m.theme.MutedText.Render(prefix))
	sb.WriteString(m.theme.SecondaryText.Render(expandGlyph(n)))
	sb.WriteString(" ")
	used := runewidth.StringWidth(prefix) + 2

	if m.cfg.ShowCheckboxes() && !n.NoCheckbox {
		sb.WriteString(m.theme.renderCheckbox(n))
		sb.WriteString(" ")
		used += 4
	}

	dragged := n == m.dragNode
	if dragged {
		used += 2
	}

	labelStyle := m.theme.Base
	switch {
	case dragged:
		labelStyle = m.theme.DragText
	case n.Selected:
		labelStyle = m.theme.PrimaryBold
	case filtering && n.Searched:
		labelStyle = m.theme.MatchText
	case filtering:
		labelStyle = m.theme.MutedText
	}
	sb.WriteString(labelStyle.Render(truncateRunesHelper(n.Label, width-used, "…")))
	if dragged {
		sb.WriteString(" ")
		sb.WriteString(m.theme.DragText.Render(glyphDragged))
	}

	line := sb.String()
	if isCursor {
		line = m.theme.Selected.Render(line)
	}
	return line
}

// treePrefix draws the branch lines for a node at level. Roots get none.
func (m Model) treePrefix(n *tree.Node, level int) string {
	if level == 0 {
		return ""
	}
	chain := make([]*tree.Node, 0, level+1)
	for c := n; c != nil; c = c.Parent() {
		chain = append([]*tree.Node{c}, chain...)
	}

	var sb strings.Builder
	for _, a := range chain[1 : len(chain)-1] {
		if m.hasSiblingsBelow(a) {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}
	if m.hasSiblingsBelow(n) {
		sb.WriteString("├── ")
	} else {
		sb.WriteString("└── ")
	}
	return sb.String()
}

// hasSiblingsBelow reports whether a visible sibling follows n.
func (m Model) hasSiblingsBelow(n *tree.Node) bool {
	var siblings []*tree.Node
	if p := n.Parent(); p != nil {
		siblings = p.Children
	} else {
		siblings = m.tree.Roots()
	}
	seen := false
	for _, s := range siblings {
		if seen && s.Visible {
			return true
		}
		if s == n {
			seen = true
		}
	}
	return false
}
