// Package output renders command results as JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/session"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// CheckFormat rejects formats outside allowed.
func CheckFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format %q (valid: %v)", format, allowed)
}

// Write encodes v to w as JSON or YAML.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Result is the answer document handed back to the caller of a session.
type Result struct {
	SessionID   string           `json:"sessionId" yaml:"sessionId"`
	Status      session.Status   `json:"status" yaml:"status"`
	CompletedAt *time.Time       `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	Answers     []QuestionResult `json:"answers" yaml:"answers"`
}

// QuestionResult pairs a question with its answer. Answer is nil for
// questions left unanswered.
type QuestionResult struct {
	Index  int            `json:"index" yaml:"index"`
	Header string         `json:"header,omitempty" yaml:"header,omitempty"`
	Prompt string         `json:"prompt" yaml:"prompt"`
	Answer *answer.Answer `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// NewResult builds the answer document of s in question order.
func NewResult(s *session.Session) Result {
	r := Result{
		SessionID: s.ID,
		Status:    s.Status,
		Answers:   make([]QuestionResult, len(s.Questions)),
	}
	if s.Status == session.StatusCompleted {
		at := s.LastActivityAt
		r.CompletedAt = &at
	}
	answers := s.AnswerSet()
	for i, q := range s.Questions {
		qr := QuestionResult{Index: i, Header: q.Header, Prompt: q.Prompt}
		if a, ok := answers[i]; ok {
			qr.Answer = &a
		}
		r.Answers[i] = qr
	}
	return r
}
