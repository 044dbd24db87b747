// Package internal contains integration tests that verify the session store,
// the manager, the event bus and the form machine work together.
package internal

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/event"
	"github.com/Iron-Ham/askuser/internal/session"
	"github.com/Iron-Ham/askuser/internal/testutil"
	"github.com/Iron-Ham/askuser/internal/tui/form"
)

// recorder collects the types of the events it receives.
type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) handle(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.EventType())
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.types)
}

func newManager(t *testing.T, dir string, bus *event.Bus) *session.Manager {
	t.Helper()
	store, err := session.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return session.NewManager(store, session.Options{Bus: bus})
}

// TestFormDrivesSession walks a form through both questions and checks
// that every step reaches the record and the bus.
func TestFormDrivesSession(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	bus := event.NewBus(nil)
	m := newManager(t, dir, bus)

	questions := []answer.Question{
		testutil.SingleSelect("Which database?", "Postgres", "SQLite"),
		testutil.MultiSelect("Which features?", "Auth", "Search", "Billing"),
	}
	id, err := m.Create(ctx, questions)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := &recorder{}
	bus.SubscribeSession(id, rec.handle)

	machine := form.New(id, questions, form.Config{MaxOptions: 4}, m)

	// Question 1: pick the focused first option.
	if err := machine.Select(); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := machine.Confirm(ctx); err != nil {
		t.Fatalf("Confirm(0): %v", err)
	}

	// Question 2: pick the first and third options.
	if err := machine.Select(); err != nil {
		t.Fatalf("Select: %v", err)
	}
	machine.MoveDown()
	machine.MoveDown()
	if err := machine.Select(); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := machine.Confirm(ctx); err != nil {
		t.Fatalf("Confirm(1): %v", err)
	}
	if !machine.Snapshot().ShowReview {
		t.Fatal("expected review after the last question")
	}

	answers, err := machine.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if answers[0].SelectedOption != "Postgres" {
		t.Errorf("answer 0 = %+v", answers[0])
	}
	if !slices.Equal(answers[1].SelectedOptions, []string{"Auth", "Billing"}) {
		t.Errorf("answer 1 = %+v", answers[1])
	}

	want := []string{event.TypeAnswerCommitted, event.TypeAnswerCommitted, event.TypeSessionCompleted}
	if got := rec.snapshot(); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}

	// A second manager over the same directory sees the persisted result.
	other := newManager(t, dir, nil)
	sess, err := other.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sess.Status != session.StatusCompleted {
		t.Errorf("Status = %s, want completed", sess.Status)
	}
	if len(sess.Answers) != 2 {
		t.Errorf("Answers = %+v", sess.Answers)
	}
}

// TestResumeAfterRestart restores a half answered session into a fresh
// form, as a restarted process would.
func TestResumeAfterRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	questions := []answer.Question{
		testutil.SingleSelect("first", "A", "B"),
		testutil.SingleSelect("second", "C", "D"),
	}

	m := newManager(t, dir, nil)
	id, err := m.Create(ctx, questions)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.CommitAnswer(ctx, id, 0, answer.Answer{SelectedOption: "B"}); err != nil {
		t.Fatal(err)
	}

	restarted := newManager(t, dir, nil)
	sess, err := restarted.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	machine := form.New(id, sess.Questions, form.Config{}, restarted)
	machine.Restore(sess.Answers, sess.Cursor.Question, sess.Cursor.ShowReview)

	st := machine.Snapshot()
	if st.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %d, want 1", st.CurrentQuestion)
	}
	if st.Answers[0].SelectedOption != "B" {
		t.Errorf("restored answer = %+v", st.Answers[0])
	}

	if err := machine.Select(); err != nil {
		t.Fatal(err)
	}
	if err := machine.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Submit(ctx); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sess, _ := m.Get(ctx, id); sess.Status != session.StatusCompleted {
		t.Errorf("Status = %s, want completed", sess.Status)
	}
}

// TestWatcherSeesOtherWriters checks that writes from another manager
// reach the bus through the file watcher.
func TestWatcherSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	bus := event.NewBus(nil)

	// The store creates the directory, so build it before watching.
	writer := newManager(t, dir, nil)

	w, err := session.NewWatcher(dir, bus, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	rec := &recorder{}
	bus.Subscribe(event.TypeSessionChanged, rec.handle)

	if _, err := writer.Create(ctx, []answer.Question{testutil.SingleSelect("q", "A")}); err != nil {
		t.Fatal(err)
	}
	testutil.Eventually(t, 2*time.Second, func() bool {
		return len(rec.snapshot()) > 0
	}, "watcher publishes a change event")
}
