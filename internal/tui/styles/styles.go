// Package styles holds the lipgloss styles of the terminal UI, the built-in
// dark and light palettes, YAML theme files and background detection.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains every lipgloss style the UI renders with, built from one
// palette so a theme change is a single rebuild.
type Styles struct {
	Palette *ColorPalette

	Title       lipgloss.Style
	Progress    lipgloss.Style
	Header      lipgloss.Style
	Prompt      lipgloss.Style
	Option      lipgloss.Style
	Focused     lipgloss.Style
	Selected    lipgloss.Style
	Description lipgloss.Style
	Note        lipgloss.Style
	Hint        lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
	Banner      lipgloss.Style
	Input       lipgloss.Style
	ContentBox  lipgloss.Style
	HelpKey     lipgloss.Style
	Help        lipgloss.Style
}

// New builds the styles for a palette. A nil palette uses the dark palette.
func New(p *ColorPalette) *Styles {
	if p == nil {
		p = DarkPalette()
	}
	return &Styles{
		Palette: p,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Progress: lipgloss.NewStyle().
			Foreground(p.Muted),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary).
			Padding(0, 1),

		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			MarginBottom(1),

		Option: lipgloss.NewStyle().
			Foreground(p.Text),

		Focused: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Selected: lipgloss.NewStyle().
			Foreground(p.Secondary),

		Description: lipgloss.NewStyle().
			Foreground(p.Muted).
			PaddingLeft(6),

		Note: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),

		Hint: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),

		Warning: lipgloss.NewStyle().
			Foreground(p.Warning),

		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Error),

		Banner: lipgloss.NewStyle().
			Foreground(p.Warning).
			Background(p.Surface).
			Padding(0, 1),

		Input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(p.Primary).
			PaddingLeft(1),

		ContentBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		Help: lipgloss.NewStyle().
			Foreground(p.Muted),
	}
}
