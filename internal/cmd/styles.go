package cmd

import "github.com/charmbracelet/lipgloss"

// Colors shared by the text output of status, watch and clean.
var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	greenColor   = lipgloss.Color("#10B981") // Green
	redColor     = lipgloss.Color("#F87171") // Red
	yellowColor  = lipgloss.Color("#FBBF24") // Yellow
)

// palette renders text styled on a terminal and plain everywhere else.
type palette struct {
	color bool
}

func (p palette) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p palette) device(s string) string {
	return p.render(lipgloss.NewStyle().Foreground(primaryColor).Bold(true), s)
}

func (p palette) muted(s string) string {
	return p.render(lipgloss.NewStyle().Foreground(mutedColor), s)
}

// state colors a lock state: red for held, yellow for stale or broken,
// green for free.
func (p palette) state(s string) string {
	var color lipgloss.Color
	switch s {
	case "held":
		color = redColor
	case "stale", "broken", "temp":
		color = yellowColor
	default:
		color = greenColor
	}
	return p.render(lipgloss.NewStyle().Foreground(color), s)
}
