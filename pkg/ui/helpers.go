package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateRunesHelper fits a label into maxWidth terminal cells, ending it
// with suffix when something was cut. A suffix wider than the budget is
// itself cut.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	switch {
	case maxWidth <= 0:
		return ""
	case runewidth.StringWidth(s) <= maxWidth:
		return s
	}
	room := maxWidth - runewidth.StringWidth(suffix)
	if room < 0 {
		return runewidth.Truncate(suffix, maxWidth, "")
	}
	return runewidth.Truncate(s, room, "") + suffix
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
