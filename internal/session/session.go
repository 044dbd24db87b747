// Package session persists question sessions and enforces their lifecycle.
//
// A [Store] keeps one JSON record per session and serializes every
// read-modify-write of a record behind an in-process FIFO lock and a
// cross-process lock file. A [Manager] builds the session operations on top
// of it: creation, lookup with lazy expiry, answer commits, completion and
// retention sweeps.
package session

import (
	"maps"
	"slices"
	"time"

	"github.com/Iron-Ham/askuser/internal/answer"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// IsClosed reports whether the status rejects further changes.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusExpired
}

// Cursor is the persisted position of the UI within a session.
type Cursor struct {
	Question   int  `json:"question" yaml:"question"`
	ShowReview bool `json:"showReview,omitempty" yaml:"showReview,omitempty"`
}

// Session is the persisted record of one question-answering interaction.
type Session struct {
	ID             string                `json:"id" yaml:"id"`
	CreatedAt      time.Time             `json:"createdAt" yaml:"createdAt"`
	LastActivityAt time.Time             `json:"lastActivityAt" yaml:"lastActivityAt"`
	Status         Status                `json:"status" yaml:"status"`
	Questions      []answer.Question     `json:"questions" yaml:"questions"`
	Answers        map[int]answer.Answer `json:"answers" yaml:"answers"`
	Cursor         Cursor                `json:"cursor" yaml:"cursor"`
	// Revision increases by one on every persisted update.
	Revision int64 `json:"revision" yaml:"revision"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Questions = slices.Clone(s.Questions)
	for i := range c.Questions {
		c.Questions[i].Options = slices.Clone(c.Questions[i].Options)
	}
	c.Answers = make(map[int]answer.Answer, len(s.Answers))
	for i, a := range s.Answers {
		c.Answers[i] = a.Clone()
	}
	return &c
}

// Missing returns the indices of required questions that have no answer, in order.
func (s *Session) Missing() []int {
	var missing []int
	for i, q := range s.Questions {
		if !q.Required() {
			continue
		}
		if a, ok := s.Answers[i]; !ok || a.IsEmpty() {
			missing = append(missing, i)
		}
	}
	return missing
}

// AnswerSet returns a copy of the committed answers.
func (s *Session) AnswerSet() map[int]answer.Answer {
	out := maps.Clone(s.Answers)
	for i, a := range out {
		out[i] = a.Clone()
	}
	if out == nil {
		out = map[int]answer.Answer{}
	}
	return out
}

// IdleFor returns how long the session has been idle at now.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivityAt)
}
