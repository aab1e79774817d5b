package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1)
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// Glyphs used in tree rows.
const (
	glyphExpanded  = "▾"
	glyphCollapsed = "▸"
	glyphLeaf      = "•"
	glyphLoading   = "⟳"
	glyphDragged   = "⇄"
)

// checkboxGlyph returns the three-cell checkbox for a tri-state value.
func checkboxGlyph(s tree.CheckState) string {
	switch s {
	case tree.Checked:
		return "[x]"
	case tree.HalfChecked:
		return "[-]"
	default:
		return "[ ]"
	}
}

// renderCheckbox styles the checkbox for n. Disabled boxes are dimmed.
func (t Theme) renderCheckbox(n *tree.Node) string {
	s := tree.StateOf(n)
	glyph := checkboxGlyph(s)
	switch {
	case n.CheckDisabled:
		return t.DisabledText.Render(glyph)
	case s == tree.Checked:
		return t.CheckedText.Render(glyph)
	case s == tree.HalfChecked:
		return t.HalfText.Render(glyph)
	default:
		return t.MutedText.Render(glyph)
	}
}

// expandGlyph returns the indicator in front of a row. Async nodes that
// have not been loaded yet look collapsed.
func expandGlyph(n *tree.Node) string {
	switch {
	case n.Loading:
		return glyphLoading
	case n.IsLeaf() && !(n.Async && !n.HasBeenExpanded):
		return glyphLeaf
	case n.Expanded:
		return glyphExpanded
	default:
		return glyphCollapsed
	}
}
