package styles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

func TestIsValidHexColor(t *testing.T) {
	tests := []struct {
		color    string
		expected bool
	}{
		{"#A78BFA", true},
		{"#a78bfa", true},
		{"#ABC", true},
		{"A78BFA", false},
		{"#AB", false},
		{"#A78BFAAB", false},
		{"#GHIJKL", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isValidHexColor(tt.color); got != tt.expected {
			t.Errorf("isValidHexColor(%q) = %v, want %v", tt.color, got, tt.expected)
		}
	}
}

func TestThemeFileValidate(t *testing.T) {
	tests := []struct {
		name   string
		theme  ThemeFile
		errMsg string
	}{
		{"valid", ThemeFile{Name: "x", Version: "1", Colors: ThemeColors{Primary: "#fff"}}, ""},
		{"no name", ThemeFile{Version: "1"}, "name is required"},
		{"bad version", ThemeFile{Name: "x", Version: "2"}, "unsupported theme version"},
		{"bad base", ThemeFile{Name: "x", Version: "1", Base: "sepia"}, "base must be"},
		{"bad color", ThemeFile{Name: "x", Version: "1", Colors: ThemeColors{Error: "red"}}, "color 'error'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.theme.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadThemeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.yaml")
	content := `name: Paper
version: "1"
base: light
colors:
  primary: "#0000FF"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	theme, err := LoadThemeFile(path)
	if err != nil {
		t.Fatalf("LoadThemeFile: %v", err)
	}
	p := theme.ToPalette()
	if p.Primary != lipgloss.Color("#0000FF") {
		t.Errorf("Primary = %s", p.Primary)
	}
	if p.Text != LightPalette().Text {
		t.Errorf("unset colors should come from the light palette, got Text %s", p.Text)
	}

	palette, err := Resolve(path, nil)
	if err != nil || *palette != *p {
		t.Errorf("Resolve(file) = %+v, %v", palette, err)
	}
}

func TestLoadThemeFile_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("name: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadThemeFile(bad); err == nil || !strings.Contains(err.Error(), "parsing theme file") {
		t.Errorf("LoadThemeFile(bad) = %v", err)
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("name: x\nversion: \"3\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadThemeFile(invalid); err == nil || !strings.Contains(err.Error(), "invalid theme") {
		t.Errorf("LoadThemeFile(invalid) = %v", err)
	}
}

func TestExportTheme(t *testing.T) {
	data, err := ExportTheme("dark copy", DarkPalette())
	if err != nil {
		t.Fatal(err)
	}

	var theme ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		t.Fatalf("exported YAML does not parse: %v", err)
	}
	if err := theme.Validate(); err != nil {
		t.Fatalf("exported theme is invalid: %v", err)
	}
	if *theme.ToPalette() != *DarkPalette() {
		t.Error("exported theme does not reproduce the palette")
	}
}
