package view

import (
	"strings"

	"github.com/Iron-Ham/askuser/internal/tui/keymap"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

// HelpBarView renders the key hints at the bottom of the screen.
type HelpBarView struct {
	styles *styles.Styles
}

// NewHelpBarView creates a HelpBarView.
func NewHelpBarView(s *styles.Styles) *HelpBarView {
	return &HelpBarView{styles: s}
}

// Render renders entries on one line. An empty list renders nothing.
func (v *HelpBarView) Render(entries []keymap.HelpEntry) string {
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, v.styles.HelpKey.Render(e.Key)+" "+v.styles.Help.Render(e.Description))
	}
	return strings.Join(parts, "  ")
}

// RenderFull renders entries grouped by category, one per line.
func (v *HelpBarView) RenderFull(entries []keymap.HelpEntry) string {
	var b strings.Builder
	var category string
	for _, e := range entries {
		if e.Category != category {
			category = e.Category
			b.WriteString(v.styles.Title.Render(category))
			b.WriteString("\n")
		}
		b.WriteString("  " + v.styles.HelpKey.Render(e.Key) + "  " + v.styles.Help.Render(e.Description))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderBanner renders a status banner, or nothing for an empty message.
func RenderBanner(s *styles.Styles, msg string) string {
	if msg == "" {
		return ""
	}
	return s.Banner.Render(msg)
}

// RenderError renders an error line, or nothing for an empty message.
func RenderError(s *styles.Styles, msg string) string {
	if msg == "" {
		return ""
	}
	return s.Error.Render("✗ " + msg)
}
