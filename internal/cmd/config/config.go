// Package config provides CLI commands for managing askuser configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/askuser/internal/config"
	tuiconfig "github.com/Iron-Ham/askuser/internal/tui/config"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify askuser configuration",
	Long: `View or modify askuser configuration.

Without arguments, opens an interactive configuration UI.
Use 'config show' to display configuration non-interactively.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigInteractive,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  askuser config set session.timeout_ms 600000
  askuser config set tui.theme light
  askuser config set logging.level debug

Valid keys:
  questions.max_options           - Most options a multi-select answer may pick (0 = no cap)
  questions.max_questions         - Most questions per session (0 = no cap)
  questions.recommended_options   - Selections above this count show a hint
  questions.recommended_questions - Question sets above this count log a warning
  session.dir                     - Where session records are stored
  session.timeout_ms              - Idle time before a session expires (0 = never)
  session.retention_ms            - Idle time before a record is deleted
  session.sweep_interval_ms       - Minimum time between retention sweeps
  session.max_conflict_retries    - Retries of a conflicting update (1-10)
  tui.theme                       - auto, dark, light, or a .yaml theme file
  tui.keymap                      - .yaml file overriding key bindings
  logging.enabled                 - Write a log file (true/false)
  logging.level                   - debug, info, warn, error`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/askuser/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  askuser config reset                     # Reset all to defaults
  askuser config reset session.timeout_ms  # Reset only session.timeout_ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)
}

// Register adds all config-related commands to the given parent command.
// This is the main entry point for integrating the config subpackage with
// the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// configFile returns the file settings are written to: the one in use, or
// the default location.
func configFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return appconfig.ConfigFile()
}

func runConfigInteractive(cmd *cobra.Command, args []string) error {
	palette, err := styles.Resolve(viper.GetString("tui.theme"), nil)
	if err != nil {
		// A broken theme must not lock the user out of fixing it.
		palette = styles.DarkPalette()
	}
	return tuiconfig.Run(viper.GetViper(), configFile(), styles.New(palette))
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return showConfig(cmd.OutOrStdout(), viper.GetViper())
}

func showConfig(w io.Writer, v *viper.Viper) error {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if v.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", v.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	for _, cat := range tuiconfig.Categories() {
		section := strings.ToLower(cat.Name)
		fmt.Fprintf(w, "%s:\n", section)
		for _, item := range cat.Items {
			fmt.Fprintf(w, "  %s: %v\n", strings.TrimPrefix(item.Key, section+"."), v.Get(item.Key))
		}
	}

	if _, err := appconfig.LoadFrom(v); err != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	return setValue(cmd.OutOrStdout(), viper.GetViper(), configFile(), args[0], args[1])
}

func setValue(w io.Writer, v *viper.Viper, path, key, value string) error {
	item, ok := tuiconfig.Lookup(key)
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'askuser config set --help' to see valid keys", key)
	}

	typed, err := tuiconfig.ParseValue(item, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if item.Type == "select" && !slices.Contains(item.Options, value) {
		return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
			key, value, strings.Join(item.Options, ", "))
	}

	previous := v.Get(key)
	v.Set(key, typed)
	if _, err := appconfig.LoadFrom(v); err != nil {
		v.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := writeConfig(v, path); err != nil {
		return err
	}

	fmt.Fprintf(w, "Set %s = %v\n", key, typed)
	fmt.Fprintf(w, "Config saved to %s\n", path)
	return nil
}

func writeConfig(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := appconfig.ConfigFile()
	if err := writeTemplate(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize askuser's behavior.")
	return nil
}

// errConfigExists is returned by writeTemplate when path is taken.
var errConfigExists = errors.New("config file already exists")

// writeTemplate writes a commented config file holding the defaults.
func writeTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w at %s\nUse 'askuser config set' to modify values", errConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	d := appconfig.Default()
	content := fmt.Sprintf(`# askuser configuration
# Environment variables override these settings: ASKUSER_* (e.g. ASKUSER_SESSION_TIMEOUT_MS)

# Limits applied to question sets and answers
questions:
  # Most options a multi-select answer may pick (0 = no cap)
  max_options: %d
  # Most questions a single session may ask (0 = no cap)
  max_questions: %d
  # Selections above this count show a hint in the UI
  recommended_options: %d
  # Question sets above this count log a warning
  recommended_questions: %d

# Session persistence and lifetime
session:
  # Where session records are stored (empty = <user cache dir>/askuser/sessions)
  dir: ""
  # Idle time in milliseconds before an active session expires (0 = never)
  timeout_ms: %d
  # Idle time in milliseconds before a session record is deleted
  retention_ms: %d
  # Minimum time in milliseconds between retention sweeps (0 = disabled)
  sweep_interval_ms: %d
  # How often a conflicting update is retried
  max_conflict_retries: %d

# Terminal UI
tui:
  # auto, dark, light, or a path to a .yaml theme file
  theme: %s
  # Optional .yaml file overriding key bindings
  keymap: ""

# Log file written next to the session records
logging:
  enabled: %t
  # debug, info, warn or error
  level: %s
`,
		d.Questions.MaxOptions,
		d.Questions.MaxQuestions,
		d.Questions.RecommendedOptions,
		d.Questions.RecommendedQuestions,
		d.Session.TimeoutMs,
		d.Session.RetentionMs,
		d.Session.SweepIntervalMs,
		d.Session.MaxConflictRetries,
		d.TUI.Theme,
		d.Logging.Enabled,
		d.Logging.Level,
	)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Default path: %s (not created)\n", appconfig.ConfigFile())
	}

	// Also show config search paths
	fmt.Fprintln(w, "\nSearch paths:")
	fmt.Fprintf(w, "  1. %s\n", appconfig.ConfigFile())
	fmt.Fprintf(w, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(w, "\nEnvironment variables: ASKUSER_* (e.g., ASKUSER_SESSION_TIMEOUT_MS)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	path := configFile()

	// Check if config file exists, if not create it
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "Config file doesn't exist, creating with defaults...\n")
		if err := writeTemplate(path); err != nil {
			return err
		}
	}

	editor, err := findEditor()
	if err != nil {
		return err
	}

	editorCmd := execCommand(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config file saved: %s\n", path)
	return nil
}

// findEditor returns $EDITOR, $VISUAL or the first common editor installed.
func findEditor() (string, error) {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor, nil
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor, nil
	}
	for _, e := range []string{"vim", "nano", "vi"} {
		if _, err := execLookPath(e); err == nil {
			return e, nil
		}
	}
	return "", fmt.Errorf("no editor found. Set $EDITOR environment variable")
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	return resetValues(cmd.OutOrStdout(), viper.GetViper(), configFile(), args)
}

func resetValues(w io.Writer, v *viper.Viper, path string, args []string) error {
	defaults := tuiconfig.DefaultValues()

	if len(args) == 0 {
		for key, value := range defaults {
			v.Set(key, value)
		}
		fmt.Fprintln(w, "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'askuser config set --help' to see valid keys", key)
		}
		v.Set(key, value)
		fmt.Fprintf(w, "Reset %s to default: %v\n", key, value)
	}

	if err := writeConfig(v, path); err != nil {
		return err
	}
	fmt.Fprintf(w, "Config saved to %s\n", path)
	return nil
}
