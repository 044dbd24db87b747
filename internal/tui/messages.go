package tui

import "github.com/Iron-Ham/askuser/internal/event"

// SessionEventMsg delivers a session event from the bus to the model.
type SessionEventMsg struct {
	Event event.Event
}

// forwarded reports whether the model reacts to e.
func forwarded(e event.Event) bool {
	switch e.(type) {
	case event.SessionChangedEvent, event.SessionDeletedEvent, event.SessionExpiredEvent:
		return true
	}
	return false
}
