// Package answer defines the value types exchanged between the session store
// and the terminal UI: questions, their options, and a single question's answer.
package answer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/askuser/internal/errors"
)

// Option is one selectable choice of a question.
type Option struct {
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Question is a single prompt presented to the user.
type Question struct {
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Header      string   `json:"header,omitempty" yaml:"header,omitempty"`
	Options     []Option `json:"options" yaml:"options"`
	MultiSelect bool     `json:"multiSelect,omitempty" yaml:"multiSelect,omitempty"`
	// AllowCustom permits a free-text answer and elaboration notes on selections.
	AllowCustom bool `json:"allowCustom,omitempty" yaml:"allowCustom,omitempty"`
	// Optional questions may be left unanswered at completion.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Required reports whether the question must be answered before completion.
func (q Question) Required() bool {
	return !q.Optional
}

// OptionIndex returns the index of the option with the given label, or -1.
func (q Question) OptionIndex(label string) int {
	for i, opt := range q.Options {
		if opt.Label == label {
			return i
		}
	}
	return -1
}

// Answer is the committed answer to one question. At most one primary kind is
// set: SelectedOption, SelectedOptions or CustomText. Elaboration annotates a
// selection and never stands alone.
type Answer struct {
	SelectedOption  string   `json:"selectedOption,omitempty" yaml:"selectedOption,omitempty"`
	SelectedOptions []string `json:"selectedOptions,omitempty" yaml:"selectedOptions,omitempty"`
	CustomText      string   `json:"customText,omitempty" yaml:"customText,omitempty"`
	Elaboration     string   `json:"elaboration,omitempty" yaml:"elaboration,omitempty"`
}

// IsEmpty reports whether the answer carries no primary value.
func (a Answer) IsEmpty() bool {
	return !a.HasSelection() && strings.TrimSpace(a.CustomText) == ""
}

// HasSelection reports whether any option is selected.
func (a Answer) HasSelection() bool {
	return a.SelectedOption != "" || len(a.SelectedOptions) > 0
}

// IsSelected reports whether the option label is part of the selection.
func (a Answer) IsSelected(label string) bool {
	return a.SelectedOption == label || slices.Contains(a.SelectedOptions, label)
}

// Clone returns a deep copy of the answer.
func (a Answer) Clone() Answer {
	a.SelectedOptions = slices.Clone(a.SelectedOptions)
	return a
}

// Summary renders the answer for review screens and CLI output.
func (a Answer) Summary() string {
	var s string
	switch {
	case a.SelectedOption != "":
		s = a.SelectedOption
	case len(a.SelectedOptions) > 0:
		s = strings.Join(a.SelectedOptions, ", ")
	case a.CustomText != "":
		s = fmt.Sprintf("%q", a.CustomText)
	default:
		return "(no answer)"
	}
	if a.Elaboration != "" {
		s += " - " + a.Elaboration
	}
	return s
}

// Validate checks that a fits the shape of q. maxOptions caps multi-select
// answers when positive. Every failure wraps errors.ErrInvalidAnswer.
func Validate(q Question, a Answer, maxOptions int) error {
	invalid := func(field string, value any, msg string) error {
		return errors.NewValidationError(msg).
			WithField(field).
			WithValue(value).
			WithCause(errors.ErrInvalidAnswer)
	}

	if a.IsEmpty() {
		return invalid("answer", nil, "answer is empty")
	}
	if a.SelectedOption != "" && len(a.SelectedOptions) > 0 {
		return invalid("selectedOptions", a.SelectedOptions, "set either selectedOption or selectedOptions, not both")
	}
	if len(a.SelectedOptions) > 0 && !q.MultiSelect {
		return invalid("selectedOptions", a.SelectedOptions, "question does not allow multiple selections")
	}
	if a.SelectedOption != "" && q.MultiSelect {
		return invalid("selectedOption", a.SelectedOption, "multi-select questions take selectedOptions")
	}
	if a.CustomText != "" {
		if !q.AllowCustom {
			return invalid("customText", a.CustomText, "question does not accept custom text")
		}
		if a.HasSelection() {
			return invalid("customText", a.CustomText, "custom text cannot be combined with a selection")
		}
	}
	if a.Elaboration != "" {
		if !a.HasSelection() {
			return invalid("elaboration", a.Elaboration, "a note needs a selected option")
		}
		if !q.AllowCustom {
			return invalid("elaboration", a.Elaboration, "question does not accept notes")
		}
	}

	if a.SelectedOption != "" && q.OptionIndex(a.SelectedOption) < 0 {
		return invalid("selectedOption", a.SelectedOption, "option not offered by question")
	}

	seen := make(map[string]bool, len(a.SelectedOptions))
	for _, label := range a.SelectedOptions {
		if q.OptionIndex(label) < 0 {
			return invalid("selectedOptions", label, "option not offered by question")
		}
		if seen[label] {
			return invalid("selectedOptions", label, "option selected twice")
		}
		seen[label] = true
	}
	if maxOptions > 0 && len(a.SelectedOptions) > maxOptions {
		return invalid("selectedOptions", len(a.SelectedOptions),
			fmt.Sprintf("pick at most %d options", maxOptions))
	}
	return nil
}
