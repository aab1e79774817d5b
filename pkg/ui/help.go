package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Keys

| Key | Action |
|---|---|
| ` + "`j` / `k`" + ` | move down / up |
| ` + "`g` / `G`" + ` | first / last row |
| ` + "`l` / `enter`" + ` | expand (loads directories on first open) |
| ` + "`h`" + ` | collapse, or jump to parent |
| ` + "`E` / `C`" + ` | expand / collapse everything |
| ` + "`space`" + ` | toggle checkbox |
| ` + "`s`" + ` | toggle selection |
| ` + "`/`" + ` | search |
| ` + "`n` / `N`" + ` | next / previous match |
| ` + "`m`" + ` | pick up the row under the cursor |
| ` + "`p`" + ` | drop as last child of the cursor row |
| ` + "`P`" + ` | drop after the cursor row |
| ` + "`esc`" + ` | cancel drag, then clear search |
| ` + "`a` / `A`" + ` | add child / add root |
| ` + "`x`" + ` | delete row and its subtree |
| ` + "`y`" + ` | copy the row's path |
| ` + "`?`" + ` | toggle this help |
| ` + "`q`" + ` | quit |

Checking a node checks everything below it; parents show ` + "`[-]`" + `
when only some children are checked.
`

// renderHelp renders the key reference for the given width. Rendering
// failures fall back to the raw markdown.
func renderHelp(width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width-4, 80)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
