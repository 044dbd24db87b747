// Package event provides a pub-sub event bus for session lifecycle events.
//
// The session manager publishes an event for every state change it persists
// (creation, committed answers, completion, expiry, deletion) and the file
// watcher publishes [SessionChangedEvent] for changes made by any process.
// The TUI and CLI subscribe instead of polling the store.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are called synchronously on the
// publishing goroutine; a panicking handler is recovered and logged so it
// cannot block delivery to the others.
//
// # Usage
//
//	bus := event.NewBus(logger)
//	bus.Subscribe(event.TypeSessionCompleted, func(e event.Event) {
//	    done := e.(event.SessionCompletedEvent)
//	    deliver(done.SessionID, done.Answers)
//	})
package event
