package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mic-check/internal/domain"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00E5FF"))
	filledStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#64FFDA"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8A80"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	panelStyle    = lipgloss.NewStyle().Padding(1, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444"))
)

// iconGlyph maps the state icon to a terminal friendly glyph.
func iconGlyph(st domain.State) string {
	if st.Icon() == domain.IconMicSlash {
		return mutedStyle.Render("✕ mic")
	}
	return filledStyle.Render("● mic")
}

// slider renders a bar of width cells filled proportionally to volume.
func slider(st domain.State, width int) string {
	filled := int(st.Volume*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	bar := strings.Repeat("━", filled)
	rest := strings.Repeat("─", width-filled)
	if !st.Adjustable {
		return disabledStyle.Render(bar + rest)
	}
	return filledStyle.Render(bar) + emptyStyle.Render(rest)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mic Check"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s  %s  %3d%%", iconGlyph(m.State), slider(m.State, m.Width), m.State.Percent())
	if !m.State.Adjustable {
		b.WriteString(disabledStyle.Render("  (read-only)"))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("←/→ adjust · m mute · r refresh · q quit"))
	return panelStyle.Render(b.String()) + "\n"
}
