package styles

import "testing"

func TestForBackground(t *testing.T) {
	if *ForBackground(true) != *DarkPalette() {
		t.Error("dark background should use the dark palette")
	}
	if *ForBackground(false) != *LightPalette() {
		t.Error("light background should use the light palette")
	}
}

func TestNew(t *testing.T) {
	s := New(nil)
	if s.Palette == nil || *s.Palette != *DarkPalette() {
		t.Fatal("New(nil) should use the dark palette")
	}

	light := New(LightPalette())
	if light.Error.GetForeground() != LightPalette().Error {
		t.Errorf("Error foreground = %v", light.Error.GetForeground())
	}
	if light.Focused.GetForeground() != LightPalette().Primary {
		t.Errorf("Focused foreground = %v", light.Focused.GetForeground())
	}
}

func TestBuiltinThemes(t *testing.T) {
	got := BuiltinThemes()
	if len(got) != 3 || got[0] != ThemeAuto {
		t.Errorf("BuiltinThemes() = %v", got)
	}
}
