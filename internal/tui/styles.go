package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#2563eb")
	muted       = lipgloss.Color("#616e7c")
	destructive = lipgloss.Color("#e53935")
	success     = lipgloss.Color("#43a047")
)

// Styles groups the lipgloss styles used by the directory view.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Pending  lipgloss.Style
	Muted    lipgloss.Style
	Active   lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		Header:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
		Selected: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(accent),
		Pending:  lipgloss.NewStyle().Padding(0, 1).Italic(true).Foreground(muted),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Active:   lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accent),
		Error:    lipgloss.NewStyle().Foreground(destructive),
		Success:  lipgloss.NewStyle().Foreground(success),
		Help:     lipgloss.NewStyle().Foreground(muted).MarginTop(1),
	}
}
