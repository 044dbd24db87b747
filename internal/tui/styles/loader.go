package styles

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ThemeFile represents a custom theme definition loaded from YAML.
type ThemeFile struct {
	// Name is the theme's display name (e.g., "Solarized Dark")
	Name string `yaml:"name"`
	// Author is the theme creator's name (optional)
	Author string `yaml:"author,omitempty"`
	// Version is the theme file format version (currently "1")
	Version string `yaml:"version"`
	// Base is the built-in palette that unset colors fall back to: "dark"
	// (default) or "light".
	Base string `yaml:"base,omitempty"`
	// Colors overrides palette entries. All colors use #RGB or #RRGGBB.
	Colors ThemeColors `yaml:"colors"`
}

// ThemeColors contains the color overrides of a theme.
type ThemeColors struct {
	Primary   string `yaml:"primary,omitempty"`
	Secondary string `yaml:"secondary,omitempty"`
	Warning   string `yaml:"warning,omitempty"`
	Error     string `yaml:"error,omitempty"`
	Muted     string `yaml:"muted,omitempty"`
	Surface   string `yaml:"surface,omitempty"`
	Text      string `yaml:"text,omitempty"`
	Border    string `yaml:"border,omitempty"`
}

// hexColorRegex validates hex color format.
var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// LoadThemeFile loads a theme from a YAML file.
func LoadThemeFile(path string) (*ThemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme file: %w", err)
	}

	var theme ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("parsing theme file: %w", err)
	}

	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}

	return &theme, nil
}

// Validate checks that the theme file is well-formed.
func (t *ThemeFile) Validate() error {
	if t.Name == "" {
		return errors.New("theme name is required")
	}
	if t.Version != "1" {
		return fmt.Errorf("unsupported theme version: %q (supported: 1)", t.Version)
	}
	if t.Base != "" && t.Base != ThemeDark && t.Base != ThemeLight {
		return fmt.Errorf("base must be %q or %q, got %q", ThemeDark, ThemeLight, t.Base)
	}

	colors := []struct{ name, value string }{
		{"primary", t.Colors.Primary},
		{"secondary", t.Colors.Secondary},
		{"warning", t.Colors.Warning},
		{"error", t.Colors.Error},
		{"muted", t.Colors.Muted},
		{"surface", t.Colors.Surface},
		{"text", t.Colors.Text},
		{"border", t.Colors.Border},
	}
	for _, c := range colors {
		if c.value != "" && !isValidHexColor(c.value) {
			return fmt.Errorf("color '%s' has invalid format: %s (expected #RGB or #RRGGBB)", c.name, c.value)
		}
	}
	return nil
}

// isValidHexColor checks if a string is a valid hex color.
func isValidHexColor(color string) bool {
	return hexColorRegex.MatchString(color)
}

// ToPalette converts the theme file to a ColorPalette.
func (t *ThemeFile) ToPalette() *ColorPalette {
	p := ForBackground(t.Base != ThemeLight)
	p.Primary = colorOrDefault(t.Colors.Primary, p.Primary)
	p.Secondary = colorOrDefault(t.Colors.Secondary, p.Secondary)
	p.Warning = colorOrDefault(t.Colors.Warning, p.Warning)
	p.Error = colorOrDefault(t.Colors.Error, p.Error)
	p.Muted = colorOrDefault(t.Colors.Muted, p.Muted)
	p.Surface = colorOrDefault(t.Colors.Surface, p.Surface)
	p.Text = colorOrDefault(t.Colors.Text, p.Text)
	p.Border = colorOrDefault(t.Colors.Border, p.Border)
	return p
}

// colorOrDefault returns the color if non-empty, otherwise returns the default.
func colorOrDefault(color string, defaultColor lipgloss.Color) lipgloss.Color {
	if color != "" {
		return lipgloss.Color(color)
	}
	return defaultColor
}

// ExportTheme renders a palette as a theme file, usable as a template.
func ExportTheme(name string, p *ColorPalette) ([]byte, error) {
	return yaml.Marshal(&ThemeFile{
		Name:    name,
		Version: "1",
		Colors: ThemeColors{
			Primary:   string(p.Primary),
			Secondary: string(p.Secondary),
			Warning:   string(p.Warning),
			Error:     string(p.Error),
			Muted:     string(p.Muted),
			Surface:   string(p.Surface),
			Text:      string(p.Text),
			Border:    string(p.Border),
		},
	})
}
