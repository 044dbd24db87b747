// Package logging provides structured logging for askuser.
//
// This package wraps Go's log/slog to emit JSON-formatted logs with persistent
// context attributes. Sessions are long-lived and often inspected after the
// fact, so every session-scoped component logs through a child logger carrying
// the session id.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/sessions", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("session created", "questions", 3)
//
// # Context Propagation
//
//	sessionLogger := logger.WithSession("6c0f...")
//	sessionLogger.WithQuestion(2).Debug("answer committed")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"answer committed","session_id":"6c0f...","question":2}
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a buffer to
// assert on emitted entries.
package logging
