package ui

import (
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/lipgloss"
)

// Palette names the colors every screen is drawn with.
type Palette struct {
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Muted     lipgloss.Color
	Text      lipgloss.Color
	Danger    lipgloss.Color
	Warning   lipgloss.Color
}

// DefaultPalette is the green spreadsheet theme.
var DefaultPalette = Palette{
	Accent:    "#2BB673",
	Highlight: "#8BE9B5",
	Muted:     "#6B7280",
	Text:      "#FFFFFF",
	Danger:    "#FF4757",
	Warning:   "#FFB84D",
}

// Styles is the rendered form of a Palette.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Cursor   lipgloss.Style
	Row      lipgloss.Style
	Assigned lipgloss.Style
	Notice   lipgloss.Style
	Warning  lipgloss.Style
	Output   lipgloss.Style
	Help     lipgloss.Style
	Panel    lipgloss.Style
}

func NewStyles(p Palette) Styles {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return Styles{
		palette:  p,
		Title:    fg(p.Accent).Bold(true).MarginTop(1),
		Subtitle: fg(p.Muted).MarginBottom(1),
		Cursor:   fg(p.Accent).Bold(true),
		Row:      fg(p.Text),
		Assigned: fg(p.Highlight).Bold(true),
		Notice:   fg(p.Danger).Bold(true),
		Warning:  fg(p.Warning),
		Output:   fg(p.Highlight).Bold(true),
		Help:     fg(p.Muted).MarginTop(1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(1, 2),
	}
}

// picker applies the palette to a file picker's styles.
func (s Styles) picker(fp *filepicker.Model) {
	fp.Styles.Cursor = s.Cursor
	fp.Styles.Selected = s.Cursor
	fp.Styles.Directory = s.Row.Foreground(s.palette.Highlight)
	fp.Styles.Symlink = s.Row.Foreground(s.palette.Highlight)
	fp.Styles.File = s.Row
	fp.Styles.Permission = s.Row.Foreground(s.palette.Muted)
	fp.Styles.FileSize = s.Row.Foreground(s.palette.Muted)
}
