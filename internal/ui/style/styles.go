package style

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Styles – стили панелей дашборда.
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Text    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Panel   lipgloss.Style
	Table   table.Styles
}

// NewStyles builds dashboard styles from the palette
func NewStyles(palette Palette) Styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.TextMuted).
		BorderBottom(true).
		Foreground(palette.Primary).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(palette.Background).
		Background(palette.Primary).
		Bold(false)

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(palette.Primary).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(palette.TextMuted),
		Text: lipgloss.NewStyle().
			Foreground(palette.Text),
		Success: lipgloss.NewStyle().
			Foreground(palette.Success).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(palette.Error).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(palette.Warning).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(palette.Info),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Primary).
			Padding(0, 1).
			MarginBottom(1),
		Table: ts,
	}
}
