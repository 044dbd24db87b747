package styles

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestDetector_CachesUntilReset(t *testing.T) {
	calls := 0
	dark := true
	d := NewDetector(func() bool {
		calls++
		return dark
	})

	if !d.Detect() || !d.Detect() {
		t.Fatal("Detect() = false, want true")
	}
	if calls != 1 {
		t.Errorf("probe called %d times, want 1", calls)
	}

	dark = false
	if !d.Detect() {
		t.Error("cached answer should not change before Reset")
	}

	d.Reset()
	if d.Detect() {
		t.Error("Detect() after Reset should probe again")
	}
	if calls != 2 {
		t.Errorf("probe called %d times, want 2", calls)
	}
}

func TestDetector_Concurrent(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	d := NewDetector(func() bool {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return true
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Detect()
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("probe called %d times, want 1", calls)
	}
}

func TestResolve(t *testing.T) {
	lightProbe := NewDetector(func() bool { return false })

	tests := []struct {
		name    string
		theme   string
		want    *ColorPalette
		wantErr bool
	}{
		{"dark", ThemeDark, DarkPalette(), false},
		{"light", ThemeLight, LightPalette(), false},
		{"auto uses detector", ThemeAuto, LightPalette(), false},
		{"empty means auto", "", LightPalette(), false},
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.theme, lightProbe)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && *got != *tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
