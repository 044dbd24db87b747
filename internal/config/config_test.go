package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Questions.MaxOptions != 4 {
		t.Errorf("Questions.MaxOptions = %d, want 4", cfg.Questions.MaxOptions)
	}
	if cfg.Questions.RecommendedOptions != 2 {
		t.Errorf("Questions.RecommendedOptions = %d, want 2", cfg.Questions.RecommendedOptions)
	}
	if cfg.Session.TimeoutMs != 0 {
		t.Errorf("Session.TimeoutMs = %d, want 0 (never expire)", cfg.Session.TimeoutMs)
	}
	if got := cfg.Session.Retention(); got != 7*24*time.Hour {
		t.Errorf("Session.Retention() = %v, want 7 days", got)
	}
	if got := cfg.Session.SweepInterval(); got != time.Minute {
		t.Errorf("Session.SweepInterval() = %v, want 1m", got)
	}
	if cfg.Session.MaxConflictRetries != 3 {
		t.Errorf("Session.MaxConflictRetries = %d, want 3", cfg.Session.MaxConflictRetries)
	}
	if cfg.TUI.Theme != "auto" {
		t.Errorf("TUI.Theme = %q, want auto", cfg.TUI.Theme)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate cleanly, got %v", errs)
	}
}

func TestSessionConfig_Durations(t *testing.T) {
	c := SessionConfig{TimeoutMs: 1500, RetentionMs: 60000, SweepIntervalMs: 250}

	if got := c.Timeout(); got != 1500*time.Millisecond {
		t.Errorf("Timeout() = %v", got)
	}
	if got := c.Retention(); got != time.Minute {
		t.Errorf("Retention() = %v", got)
	}
	if got := c.SweepInterval(); got != 250*time.Millisecond {
		t.Errorf("SweepInterval() = %v", got)
	}
}

func TestSessionConfig_ResolveDir(t *testing.T) {
	t.Run("default lives under askuser/sessions", func(t *testing.T) {
		c := SessionConfig{}
		got := c.ResolveDir()
		if !strings.HasSuffix(got, filepath.Join("askuser", "sessions")) {
			t.Errorf("ResolveDir() = %q", got)
		}
	})

	t.Run("absolute path is kept", func(t *testing.T) {
		dir := t.TempDir()
		c := SessionConfig{Dir: dir}
		if got := c.ResolveDir(); got != dir {
			t.Errorf("ResolveDir() = %q, want %q", got, dir)
		}
	})

	t.Run("tilde expands to home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		c := SessionConfig{Dir: "~/sessions"}
		if got := c.ResolveDir(); got != filepath.Join(home, "sessions") {
			t.Errorf("ResolveDir() = %q", got)
		}
	})
}

func TestConfigDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got := ConfigDir(); got != filepath.Join(xdg, "askuser") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigFile(); got != filepath.Join(xdg, "askuser", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Questions.MaxQuestions != 4 {
		t.Errorf("MaxQuestions = %d, want 4", cfg.Questions.MaxQuestions)
	}

	viper.Set("session.timeout_ms", 5000)
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", cfg.Session.Timeout())
	}

	viper.Set("session.retention_ms", 0)
	if _, err := Load(); err == nil {
		t.Error("Load() should reject a zero retention period")
	}
}
