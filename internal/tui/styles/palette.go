package styles

import "github.com/charmbracelet/lipgloss"

// Built-in theme names.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// BuiltinThemes returns all built-in theme names.
func BuiltinThemes() []string {
	return []string{ThemeAuto, ThemeDark, ThemeLight}
}

// ColorPalette defines the color scheme for a theme.
// All colors should meet WCAG AA contrast requirements (4.5:1 ratio) on the
// background they are meant for.
type ColorPalette struct {
	// Primary accent color (titles, the focused option)
	Primary lipgloss.Color
	// Secondary accent color (selected options, success)
	Secondary lipgloss.Color
	// Warning color (advisory hints such as over-recommended selections)
	Warning lipgloss.Color
	// Error color (rejected input, storage failures)
	Error lipgloss.Color
	// Muted color (descriptions, help text)
	Muted lipgloss.Color
	// Surface color (banner backgrounds)
	Surface lipgloss.Color
	// Text color (primary text)
	Text lipgloss.Color
	// Border color (boxes)
	Border lipgloss.Color
}

// DarkPalette returns the palette for dark terminal backgrounds.
func DarkPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#A78BFA"), // Purple (violet-400)
		Secondary: lipgloss.Color("#10B981"), // Green
		Warning:   lipgloss.Color("#F59E0B"), // Amber
		Error:     lipgloss.Color("#F87171"), // Red (red-400)
		Muted:     lipgloss.Color("#9CA3AF"), // Gray
		Surface:   lipgloss.Color("#1F2937"), // Dark surface
		Text:      lipgloss.Color("#F9FAFB"), // Light text
		Border:    lipgloss.Color("#6B7280"), // Gray (gray-500)
	}
}

// LightPalette returns the palette for light terminal backgrounds.
func LightPalette() *ColorPalette {
	return &ColorPalette{
		Primary:   lipgloss.Color("#6D28D9"), // Purple (violet-700)
		Secondary: lipgloss.Color("#047857"), // Green (emerald-700)
		Warning:   lipgloss.Color("#B45309"), // Amber (amber-700)
		Error:     lipgloss.Color("#B91C1C"), // Red (red-700)
		Muted:     lipgloss.Color("#4B5563"), // Gray (gray-600)
		Surface:   lipgloss.Color("#F3F4F6"), // Light surface
		Text:      lipgloss.Color("#111827"), // Dark text
		Border:    lipgloss.Color("#9CA3AF"), // Gray (gray-400)
	}
}

// ForBackground returns the built-in palette matching the background.
func ForBackground(dark bool) *ColorPalette {
	if dark {
		return DarkPalette()
	}
	return LightPalette()
}
