package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Detector reports whether the terminal has a dark background. The first
// Detect call runs the probe; later calls return the cached answer until
// Reset is called.
type Detector struct {
	probe func() bool

	mu     sync.Mutex
	known  bool
	isDark bool
}

// NewDetector creates a Detector. A nil probe queries the terminal through
// lipgloss.
func NewDetector(probe func() bool) *Detector {
	if probe == nil {
		probe = lipgloss.HasDarkBackground
	}
	return &Detector{probe: probe}
}

// Detect returns true for a dark background.
func (d *Detector) Detect() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.known {
		d.isDark = d.probe()
		d.known = true
	}
	return d.isDark
}

// Reset forgets the cached answer so the next Detect probes again.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known = false
}

// Resolve returns the palette for a theme setting: "auto" asks the detector,
// "dark" and "light" pick a built-in palette, and anything else is loaded as
// a YAML theme file.
func Resolve(theme string, d *Detector) (*ColorPalette, error) {
	switch theme {
	case ThemeDark:
		return DarkPalette(), nil
	case ThemeLight:
		return LightPalette(), nil
	case "", ThemeAuto:
		if d == nil {
			d = NewDetector(nil)
		}
		return ForBackground(d.Detect()), nil
	}

	file, err := LoadThemeFile(theme)
	if err != nil {
		return nil, err
	}
	return file.ToPalette(), nil
}
