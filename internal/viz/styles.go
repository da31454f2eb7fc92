package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	keyStyle      = lipgloss.NewStyle().Bold(true)
)

// KeyHints renders "key action" pairs on one line.
func KeyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(keyStyle.Foreground(CurrentTheme.Secondary).Render(pairs[i]))
		b.WriteString(subtleStyle.Render(" " + pairs[i+1]))
	}
	return b.String()
}

// Separator is a muted horizontal rule with a center mark.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return subtleStyle.Render(left + " ◆ " + right)
}
