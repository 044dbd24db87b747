package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.retention_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// BuiltinThemes returns the theme names that do not refer to a file
func BuiltinThemes() []string {
	return []string{"auto", "dark", "light"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateQuestions()...)
	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateQuestions() []ValidationError {
	var errors []ValidationError
	q := c.Questions

	nonNegative := map[string]int{
		"questions.max_options":           q.MaxOptions,
		"questions.max_questions":         q.MaxQuestions,
		"questions.recommended_options":   q.RecommendedOptions,
		"questions.recommended_questions": q.RecommendedQuestions,
	}
	keys := make([]string, 0, len(nonNegative))
	for k := range nonNegative {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if nonNegative[k] < 0 {
			errors = append(errors, ValidationError{Field: k, Value: nonNegative[k], Message: "must be non-negative"})
		}
	}

	if q.MaxOptions > 0 && q.RecommendedOptions > q.MaxOptions {
		errors = append(errors, ValidationError{
			Field:   "questions.recommended_options",
			Value:   q.RecommendedOptions,
			Message: fmt.Sprintf("must not exceed questions.max_options (%d)", q.MaxOptions),
		})
	}
	if q.MaxQuestions > 0 && q.RecommendedQuestions > q.MaxQuestions {
		errors = append(errors, ValidationError{
			Field:   "questions.recommended_questions",
			Value:   q.RecommendedQuestions,
			Message: fmt.Sprintf("must not exceed questions.max_questions (%d)", q.MaxQuestions),
		})
	}

	return errors
}

func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError
	s := c.Session

	if s.TimeoutMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.timeout_ms",
			Value:   s.TimeoutMs,
			Message: "must be non-negative (0 disables expiry)",
		})
	}
	if s.RetentionMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "session.retention_ms",
			Value:   s.RetentionMs,
			Message: "must be positive",
		})
	}
	if s.SweepIntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.sweep_interval_ms",
			Value:   s.SweepIntervalMs,
			Message: "must be non-negative",
		})
	}
	if s.MaxConflictRetries < 1 || s.MaxConflictRetries > 10 {
		errors = append(errors, ValidationError{
			Field:   "session.max_conflict_retries",
			Value:   s.MaxConflictRetries,
			Message: "must be between 1 and 10",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if km := c.TUI.Keymap; km != "" && !isYAMLPath(km) {
		errors = append(errors, ValidationError{
			Field:   "tui.keymap",
			Value:   km,
			Message: "must be a .yaml keymap file",
		})
	}

	theme := c.TUI.Theme
	if theme == "" {
		return errors
	}
	if !slices.Contains(BuiltinThemes(), theme) && !isYAMLPath(theme) {
		errors = append(errors, ValidationError{
			Field:   "tui.theme",
			Value:   theme,
			Message: fmt.Sprintf("must be one of %s or a .yaml theme file", strings.Join(BuiltinThemes(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func isYAMLPath(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}
