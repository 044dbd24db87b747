package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete askuser configuration
type Config struct {
	Questions QuestionsConfig `mapstructure:"questions"`
	Session   SessionConfig   `mapstructure:"session"`
	TUI       TUIConfig       `mapstructure:"tui"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// QuestionsConfig holds the limits applied to question sets and selections.
// The recommended values are advisory hints for the UI; the max values are enforced.
type QuestionsConfig struct {
	// MaxOptions caps how many options a multi-select answer may contain (0 = no cap)
	MaxOptions int `mapstructure:"max_options"`
	// MaxQuestions caps how many questions a single session may ask (0 = no cap)
	MaxQuestions int `mapstructure:"max_questions"`
	// RecommendedOptions is the selection count above which the UI shows a hint
	RecommendedOptions int `mapstructure:"recommended_options"`
	// RecommendedQuestions is the question count above which creation logs a warning
	RecommendedQuestions int `mapstructure:"recommended_questions"`
}

// SessionConfig controls session persistence and lifetime
type SessionConfig struct {
	// Dir is where session records are stored.
	// If empty, defaults to "askuser/sessions" under the user cache directory.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir"`
	// TimeoutMs is the idle time after which a session expires (0 = never expire)
	TimeoutMs int64 `mapstructure:"timeout_ms"`
	// RetentionMs is the idle time after which a session record is deleted (default: 7 days)
	RetentionMs int64 `mapstructure:"retention_ms"`
	// SweepIntervalMs is the minimum time between retention sweeps (default: 1 minute)
	SweepIntervalMs int64 `mapstructure:"sweep_interval_ms"`
	// MaxConflictRetries bounds how often a conflicting update is retried (default: 3)
	MaxConflictRetries int `mapstructure:"max_conflict_retries"`
}

// TUIConfig controls the terminal UI
type TUIConfig struct {
	// Theme is "auto", "dark", "light", or a path to a YAML theme file (default: "auto")
	Theme string `mapstructure:"theme"`
	// Keymap is an optional path to a YAML file overriding key bindings
	Keymap string `mapstructure:"keymap"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Questions: QuestionsConfig{
			MaxOptions:           4,
			MaxQuestions:         4,
			RecommendedOptions:   2,
			RecommendedQuestions: 2,
		},
		Session: SessionConfig{
			Dir:                "", // Empty means use default: <cache>/askuser/sessions
			TimeoutMs:          0,  // Never expire by default
			RetentionMs:        int64(7 * 24 * time.Hour / time.Millisecond),
			SweepIntervalMs:    int64(time.Minute / time.Millisecond),
			MaxConflictRetries: 3,
		},
		TUI: TUIConfig{
			Theme: "auto",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// Timeout returns the session timeout as a time.Duration (0 means disabled)
func (c *SessionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Retention returns the retention period as a time.Duration
func (c *SessionConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMs) * time.Millisecond
}

// SweepInterval returns the sweep interval as a time.Duration
func (c *SessionConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}

// ResolveDir returns the resolved session directory path.
// If Dir is empty, it returns the default path under the user cache directory.
// If Dir starts with ~, it expands to the user's home directory.
func (c *SessionConfig) ResolveDir() string {
	if c.Dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		return filepath.Join(base, "askuser", "sessions")
	}
	return ExpandPath(c.Dir)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Question limits
	v.SetDefault("questions.max_options", defaults.Questions.MaxOptions)
	v.SetDefault("questions.max_questions", defaults.Questions.MaxQuestions)
	v.SetDefault("questions.recommended_options", defaults.Questions.RecommendedOptions)
	v.SetDefault("questions.recommended_questions", defaults.Questions.RecommendedQuestions)

	// Session defaults
	v.SetDefault("session.dir", defaults.Session.Dir)
	v.SetDefault("session.timeout_ms", defaults.Session.TimeoutMs)
	v.SetDefault("session.retention_ms", defaults.Session.RetentionMs)
	v.SetDefault("session.sweep_interval_ms", defaults.Session.SweepIntervalMs)
	v.SetDefault("session.max_conflict_retries", defaults.Session.MaxConflictRetries)

	// TUI defaults
	v.SetDefault("tui.theme", defaults.TUI.Theme)
	v.SetDefault("tui.keymap", defaults.TUI.Keymap)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "askuser")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".askuser"
	}
	return filepath.Join(home, ".config", "askuser")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
