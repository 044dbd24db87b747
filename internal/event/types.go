// Package event defines the session lifecycle events published by the session
// manager and the file watcher, decoupling the TUI and CLI from persistence.
package event

import (
	"time"

	"github.com/Iron-Ham/askuser/internal/answer"
)

// Event type identifiers, "category.action".
const (
	TypeSessionCreated   = "session.created"
	TypeAnswerCommitted  = "session.answer_committed"
	TypeAnswerCleared    = "session.answer_cleared"
	TypeSessionCompleted = "session.completed"
	TypeSessionExpired   = "session.expired"
	TypeSessionDeleted   = "session.deleted"
	TypeSessionChanged   = "session.changed"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// SessionCreatedEvent is emitted when a new session record is written.
type SessionCreatedEvent struct {
	baseEvent
	SessionID     string
	QuestionCount int
}

// NewSessionCreatedEvent creates a SessionCreatedEvent.
func NewSessionCreatedEvent(sessionID string, questionCount int) SessionCreatedEvent {
	return SessionCreatedEvent{
		baseEvent:     newBaseEvent(TypeSessionCreated),
		SessionID:     sessionID,
		QuestionCount: questionCount,
	}
}

// AnswerCommittedEvent is emitted after an answer is persisted.
type AnswerCommittedEvent struct {
	baseEvent
	SessionID     string
	QuestionIndex int
	Answer        answer.Answer
}

// NewAnswerCommittedEvent creates an AnswerCommittedEvent.
func NewAnswerCommittedEvent(sessionID string, index int, a answer.Answer) AnswerCommittedEvent {
	return AnswerCommittedEvent{
		baseEvent:     newBaseEvent(TypeAnswerCommitted),
		SessionID:     sessionID,
		QuestionIndex: index,
		Answer:        a.Clone(),
	}
}

// AnswerClearedEvent is emitted after the answer of an optional question
// is removed.
type AnswerClearedEvent struct {
	baseEvent
	SessionID     string
	QuestionIndex int
}

// NewAnswerClearedEvent creates an AnswerClearedEvent.
func NewAnswerClearedEvent(sessionID string, index int) AnswerClearedEvent {
	return AnswerClearedEvent{
		baseEvent:     newBaseEvent(TypeAnswerCleared),
		SessionID:     sessionID,
		QuestionIndex: index,
	}
}

// SessionCompletedEvent is emitted once when a session reaches completed,
// carrying the final answer mapping.
type SessionCompletedEvent struct {
	baseEvent
	SessionID string
	Answers   map[int]answer.Answer
}

// NewSessionCompletedEvent creates a SessionCompletedEvent with a copy of answers.
func NewSessionCompletedEvent(sessionID string, answers map[int]answer.Answer) SessionCompletedEvent {
	copied := make(map[int]answer.Answer, len(answers))
	for i, a := range answers {
		copied[i] = a.Clone()
	}
	return SessionCompletedEvent{
		baseEvent: newBaseEvent(TypeSessionCompleted),
		SessionID: sessionID,
		Answers:   copied,
	}
}

// SessionExpiredEvent is emitted when an active session passes its timeout.
type SessionExpiredEvent struct {
	baseEvent
	SessionID      string
	LastActivityAt time.Time
}

// NewSessionExpiredEvent creates a SessionExpiredEvent.
func NewSessionExpiredEvent(sessionID string, lastActivity time.Time) SessionExpiredEvent {
	return SessionExpiredEvent{
		baseEvent:      newBaseEvent(TypeSessionExpired),
		SessionID:      sessionID,
		LastActivityAt: lastActivity,
	}
}

// Deletion reasons reported by SessionDeletedEvent.
const (
	DeletedByRetention = "retention"
	DeletedByRequest   = "request"
)

// SessionDeletedEvent is emitted when a session record is removed.
type SessionDeletedEvent struct {
	baseEvent
	SessionID string
	Reason    string
}

// NewSessionDeletedEvent creates a SessionDeletedEvent.
func NewSessionDeletedEvent(sessionID, reason string) SessionDeletedEvent {
	return SessionDeletedEvent{
		baseEvent: newBaseEvent(TypeSessionDeleted),
		SessionID: sessionID,
		Reason:    reason,
	}
}

// Change operations reported by SessionChangedEvent.
const (
	ChangeWritten = "written"
	ChangeRemoved = "removed"
)

// SessionChangedEvent is emitted by the file watcher when a session record
// changes on disk, whichever process made the change.
type SessionChangedEvent struct {
	baseEvent
	SessionID string
	Op        string
}

// NewSessionChangedEvent creates a SessionChangedEvent.
func NewSessionChangedEvent(sessionID, op string) SessionChangedEvent {
	return SessionChangedEvent{
		baseEvent: newBaseEvent(TypeSessionChanged),
		SessionID: sessionID,
		Op:        op,
	}
}

// SessionID extracts the session id from any session event, or "".
func SessionID(e Event) string {
	switch ev := e.(type) {
	case SessionCreatedEvent:
		return ev.SessionID
	case AnswerCommittedEvent:
		return ev.SessionID
	case AnswerClearedEvent:
		return ev.SessionID
	case SessionCompletedEvent:
		return ev.SessionID
	case SessionExpiredEvent:
		return ev.SessionID
	case SessionDeletedEvent:
		return ev.SessionID
	case SessionChangedEvent:
		return ev.SessionID
	}
	return ""
}
