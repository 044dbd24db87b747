package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/askuser/internal/cmd/env"
	"github.com/Iron-Ham/askuser/internal/event"
	"github.com/Iron-Ham/askuser/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch [session-id]",
	Short: "Print session record changes as they happen",
	Long: `Watch prints a line whenever a session record is written or removed in
the session directory, by any process. Give a session id to follow a single
session. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	var id string
	if len(args) == 1 {
		id = args[0]
	}
	return withEnv(func(e *env.Env) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", e.Store.Dir())
		return watchSessions(ctx, cmd.OutOrStdout(), e, id)
	})
}

// watchSessions prints change events until ctx ends. An empty id follows
// every session.
func watchSessions(ctx context.Context, w io.Writer, e *env.Env, id string) error {
	watcher, err := session.NewWatcher(e.Store.Dir(), e.Bus, e.Logger)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.Store.Dir(), err)
	}

	var mu sync.Mutex
	printEvent := func(ev event.Event) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, formatEvent(ev))
	}

	var subID string
	if id != "" {
		subID = e.Bus.SubscribeSession(id, printEvent)
	} else {
		subID = e.Bus.Subscribe(event.TypeSessionChanged, printEvent)
	}
	defer e.Bus.Unsubscribe(subID)

	watcher.Start()
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}

func formatEvent(ev event.Event) string {
	ts := ev.Timestamp().Format("15:04:05")
	id := event.SessionID(ev)
	switch e := ev.(type) {
	case event.SessionChangedEvent:
		return fmt.Sprintf("%s  %-8s %s", ts, e.Op, id)
	case event.AnswerCommittedEvent:
		return fmt.Sprintf("%s  %-8s %s question %d: %s", ts, "answered", id, e.QuestionIndex, e.Answer.Summary())
	case event.AnswerClearedEvent:
		return fmt.Sprintf("%s  %-8s %s question %d", ts, "cleared", id, e.QuestionIndex)
	case event.SessionCompletedEvent:
		return fmt.Sprintf("%s  %-8s %s", ts, "complete", id)
	case event.SessionExpiredEvent:
		return fmt.Sprintf("%s  %-8s %s", ts, "expired", id)
	case event.SessionDeletedEvent:
		return fmt.Sprintf("%s  %-8s %s (%s)", ts, "deleted", id, e.Reason)
	default:
		return fmt.Sprintf("%s  %-8s %s", ts, ev.EventType(), id)
	}
}
