package form

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Iron-Ham/askuser/internal/answer"
	askerrors "github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/session"
	"github.com/Iron-Ham/askuser/internal/testutil"
)

var _ Committer = (*session.Manager)(nil)

type commit struct {
	index int
	a     answer.Answer
}

// fakeCommitter records commits and can fail on demand.
type fakeCommitter struct {
	commits     []commit
	clears      []int
	completions int
	commitErr   error
	clearErr    error
	completeErr error
}

func (f *fakeCommitter) CommitAnswer(_ context.Context, _ string, index int, a answer.Answer) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, commit{index, a})
	return nil
}

func (f *fakeCommitter) ClearAnswer(_ context.Context, _ string, index int) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clears = append(f.clears, index)
	return nil
}

func (f *fakeCommitter) Complete(context.Context, string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completions++
	return nil
}

func newMachine(t *testing.T, cfg Config, questions ...answer.Question) (*Machine, *fakeCommitter) {
	t.Helper()
	fc := &fakeCommitter{}
	return New("sess", questions, cfg, fc), fc
}

func TestMachine_InitialState(t *testing.T) {
	m, _ := newMachine(t, Config{}, testutil.SingleSelect("q", "A", "B"))
	st := m.Snapshot()

	if st.CurrentQuestion != 0 || st.Focus != FocusOption || st.FocusedOption != 0 {
		t.Errorf("initial state = %+v", st)
	}
	if st.ShowReview || st.Completed || len(st.Answers) != 0 {
		t.Errorf("initial flags = %+v", st)
	}
}

func TestMachine_MoveBounds(t *testing.T) {
	m, _ := newMachine(t, Config{}, testutil.SingleSelect("q", "A", "B", "C"))

	m.MoveUp()
	if got := m.Snapshot().FocusedOption; got != 0 {
		t.Errorf("MoveUp at top = %d", got)
	}
	for i := 0; i < 5; i++ {
		m.MoveDown()
	}
	if got := m.Snapshot().FocusedOption; got != 2 {
		t.Errorf("MoveDown past bottom = %d", got)
	}
}

func TestMachine_SingleSelectReplaces(t *testing.T) {
	m, _ := newMachine(t, Config{}, testutil.SingleSelect("q", "A", "B"))

	if err := m.Select(); err != nil {
		t.Fatal(err)
	}
	m.MoveDown()
	if err := m.Select(); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().Draft; got.SelectedOption != "B" || len(got.SelectedOptions) != 0 {
		t.Errorf("Draft = %+v, want B", got)
	}
}

func TestMachine_MultiSelectToggleAndLimits(t *testing.T) {
	m, _ := newMachine(t, Config{MaxOptions: 3, RecommendedOptions: 2},
		testutil.MultiSelect("q", "A", "B", "C", "D"))

	selectAt := func(i int) error {
		for m.Snapshot().FocusedOption < i {
			m.MoveDown()
		}
		for m.Snapshot().FocusedOption > i {
			m.MoveUp()
		}
		return m.Select()
	}

	for _, i := range []int{2, 0} {
		if err := selectAt(i); err != nil {
			t.Fatal(err)
		}
	}
	st := m.Snapshot()
	if got := st.Draft.SelectedOptions; len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Errorf("selection = %v, want [A C] in option order", got)
	}
	if st.OverRecommended {
		t.Error("two selections are within the recommendation")
	}

	if err := selectAt(1); err != nil {
		t.Fatal(err)
	}
	if !m.Snapshot().OverRecommended {
		t.Error("three selections should be flagged")
	}

	err := selectAt(3)
	if !errors.Is(err, ErrTooManySelections) {
		t.Fatalf("fourth selection error = %v, want ErrTooManySelections", err)
	}
	if len(m.Snapshot().Draft.SelectedOptions) != 3 {
		t.Error("rejected selection changed the draft")
	}

	if err := selectAt(1); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().Draft.SelectedOptions; len(got) != 2 {
		t.Errorf("toggle off failed: %v", got)
	}
}

func TestMachine_CustomInput(t *testing.T) {
	q := testutil.SingleSelect("q", "A", "B")
	q.AllowCustom = true
	m, fc := newMachine(t, Config{}, q)

	_ = m.Select()
	if err := m.BeginCustom(); err != nil {
		t.Fatal(err)
	}
	st := m.Snapshot()
	if st.Focus != FocusCustomInput || st.FocusedOption != -1 {
		t.Errorf("focus = %v, focused = %d", st.Focus, st.FocusedOption)
	}
	if err := m.Select(); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("Select while typing = %v", err)
	}

	if err := m.SubmitInput("  something else  "); err != nil {
		t.Fatal(err)
	}
	st = m.Snapshot()
	if st.Focus != FocusOption || st.Draft.CustomText != "something else" || st.Draft.HasSelection() {
		t.Errorf("after submit = %+v", st)
	}
	if len(fc.commits) != 0 {
		t.Error("drafts must not be committed before Confirm")
	}

	// Selecting again replaces the custom text.
	_ = m.Select()
	if st := m.Snapshot(); st.Draft.CustomText != "" || st.Draft.SelectedOption != "A" {
		t.Errorf("selection did not replace custom text: %+v", st.Draft)
	}
}

func TestMachine_CustomNotAllowed(t *testing.T) {
	m, _ := newMachine(t, Config{}, testutil.SingleSelect("q", "A"))

	if err := m.BeginCustom(); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("BeginCustom = %v, want ErrNotAllowed", err)
	}
	if err := m.BeginElaborate(); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("BeginElaborate = %v, want ErrNotAllowed", err)
	}
	if err := m.SubmitInput("x"); !errors.Is(err, ErrNoInput) {
		t.Errorf("SubmitInput without input = %v", err)
	}
}

func TestMachine_Elaboration(t *testing.T) {
	q := testutil.MultiSelect("q", "A", "B")
	q.AllowCustom = true
	m, fc := newMachine(t, Config{}, q)

	if err := m.BeginElaborate(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("BeginElaborate without selection = %v", err)
	}
	_ = m.Select()
	if err := m.BeginElaborate(); err != nil {
		t.Fatal(err)
	}
	if err := m.SubmitInput("preferred"); err != nil {
		t.Fatal(err)
	}
	if got := m.Snapshot().ElaborationMarks[0]; got != "preferred" {
		t.Errorf("mark = %q", got)
	}

	// Cancelling an edit keeps the staged note.
	_ = m.BeginElaborate()
	if m.InputValue() != "preferred" {
		t.Errorf("InputValue = %q", m.InputValue())
	}
	m.CancelInput()
	if got := m.Snapshot().ElaborationMarks[0]; got != "preferred" {
		t.Errorf("cancel changed the mark to %q", got)
	}

	if err := m.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := answer.Answer{SelectedOptions: []string{"A"}, Elaboration: "preferred"}
	if len(fc.commits) != 1 || fc.commits[0].a.Summary() != want.Summary() {
		t.Errorf("commits = %+v", fc.commits)
	}

	// Deselecting the last option drops the note.
	m2, _ := newMachine(t, Config{}, q)
	_ = m2.Select()
	_ = m2.BeginElaborate()
	_ = m2.SubmitInput("note")
	_ = m2.Select()
	if _, ok := m2.Snapshot().ElaborationMarks[0]; ok {
		t.Error("note survived removing the selection")
	}
}

func TestMachine_ConfirmRequiresAnswer(t *testing.T) {
	m, fc := newMachine(t, Config{},
		testutil.SingleSelect("first", "A", "B"),
		testutil.SingleSelect("second", "C", "D"))

	err := m.Confirm(context.Background())
	if !errors.Is(err, ErrAnswerRequired) {
		t.Fatalf("Confirm = %v, want ErrAnswerRequired", err)
	}
	if m.Snapshot().CurrentQuestion != 0 || len(fc.commits) != 0 {
		t.Error("rejected confirm must not advance or commit")
	}
}

func TestMachine_ConfirmOptionalBlank(t *testing.T) {
	opt := testutil.SingleSelect("optional", "A")
	opt.Optional = true
	m, fc := newMachine(t, Config{}, opt, testutil.SingleSelect("second", "C"))

	if err := m.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Snapshot().CurrentQuestion != 1 || len(fc.commits) != 0 {
		t.Errorf("optional blank should advance without committing")
	}
}

func TestMachine_ConfirmOptionalClearsCommitted(t *testing.T) {
	opt := testutil.MultiSelect("optional", "X", "Y")
	opt.Optional = true
	m, fc := newMachine(t, Config{}, opt, testutil.SingleSelect("second", "C"))
	ctx := context.Background()

	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	m.PrevQuestion()
	_ = m.Select() // deselect X
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}

	if len(fc.clears) != 1 || fc.clears[0] != 0 {
		t.Errorf("clears = %v, want [0]", fc.clears)
	}
	if _, ok := m.Snapshot().Answers[0]; ok {
		t.Error("cleared answer still in snapshot")
	}

	// Confirming the blank question again has nothing to clear.
	m.PrevQuestion()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	if len(fc.clears) != 1 {
		t.Errorf("clears = %v, want a single clear", fc.clears)
	}
}

func TestMachine_ConfirmOptionalClearError(t *testing.T) {
	opt := testutil.MultiSelect("optional", "X", "Y")
	opt.Optional = true
	m, fc := newMachine(t, Config{}, opt, testutil.SingleSelect("second", "C"))
	ctx := context.Background()

	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	m.PrevQuestion()
	_ = m.Select()
	fc.clearErr = askerrors.NewSessionError("clear", askerrors.ErrSessionClosed)

	err := m.Confirm(ctx)
	if !errors.Is(err, askerrors.ErrSessionClosed) {
		t.Fatalf("Confirm = %v, want ErrSessionClosed", err)
	}
	st := m.Snapshot()
	if st.CurrentQuestion != 0 || len(st.Answers[0].SelectedOptions) != 1 {
		t.Errorf("failed clear changed state: %+v", st)
	}
}

func TestMachine_ConfirmCommitError(t *testing.T) {
	m, fc := newMachine(t, Config{}, testutil.SingleSelect("q", "A"), testutil.SingleSelect("r", "B"))
	fc.commitErr = askerrors.NewSessionError("commit", askerrors.ErrExpired)

	_ = m.Select()
	err := m.Confirm(context.Background())
	if !errors.Is(err, askerrors.ErrExpired) {
		t.Fatalf("Confirm = %v", err)
	}
	st := m.Snapshot()
	if st.CurrentQuestion != 0 || len(st.Answers) != 0 {
		t.Errorf("failed commit changed state: %+v", st)
	}
	if got := askerrors.UserMessage(err); got != "session expired, please restart" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestMachine_FullFlow(t *testing.T) {
	m, fc := newMachine(t, Config{},
		testutil.SingleSelect("first", "A", "B"),
		testutil.SingleSelect("second", "C", "D"))
	ctx := context.Background()

	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	if st := m.Snapshot(); st.CurrentQuestion != 1 || st.ShowReview {
		t.Fatalf("after first confirm = %+v", st)
	}

	m.MoveDown()
	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	if st := m.Snapshot(); !st.ShowReview {
		t.Fatal("confirming the last question should enter review")
	}

	if err := m.Select(); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("Select in review = %v", err)
	}

	answers, err := m.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if answers[0].SelectedOption != "A" || answers[1].SelectedOption != "D" {
		t.Errorf("answers = %+v", answers)
	}
	if fc.completions != 1 || !m.Snapshot().Completed {
		t.Error("Submit should complete exactly once")
	}
	if _, err := m.Submit(ctx); !errors.Is(err, ErrSubmitted) {
		t.Errorf("second Submit = %v", err)
	}
	if fc.completions != 1 {
		t.Errorf("Complete called %d times", fc.completions)
	}
}

func TestMachine_LastConfirmWithGaps(t *testing.T) {
	m, _ := newMachine(t, Config{},
		testutil.SingleSelect("first", "A"),
		testutil.SingleSelect("second", "B"))
	ctx := context.Background()

	m.NextQuestion()
	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	st := m.Snapshot()
	if st.ShowReview || st.CurrentQuestion != 0 {
		t.Errorf("should return to the unanswered question, got %+v", st)
	}
}

func TestMachine_NavigationDoesNotCommit(t *testing.T) {
	m, fc := newMachine(t, Config{},
		testutil.SingleSelect("first", "A", "B"),
		testutil.SingleSelect("second", "C", "D"))

	m.MoveDown()
	_ = m.Select()
	m.NextQuestion()
	m.NextQuestion()
	if got := m.Snapshot().CurrentQuestion; got != 1 {
		t.Errorf("NextQuestion past end = %d", got)
	}
	m.PrevQuestion()
	m.PrevQuestion()

	st := m.Snapshot()
	if st.CurrentQuestion != 0 || len(fc.commits) != 0 {
		t.Errorf("navigation committed or misplaced: %+v", st)
	}
	if st.Draft.SelectedOption != "B" || st.FocusedOption != 1 {
		t.Errorf("draft not kept across navigation: %+v", st)
	}
}

func TestMachine_ReviewRequiresAnswers(t *testing.T) {
	m, _ := newMachine(t, Config{},
		testutil.SingleSelect("first", "A"),
		testutil.SingleSelect("second", "B"))
	ctx := context.Background()

	err := m.RequestReview()
	if !errors.Is(err, ErrUnanswered) {
		t.Fatalf("RequestReview = %v, want ErrUnanswered", err)
	}
	if _, err := m.Submit(ctx); !errors.Is(err, ErrNotInReview) {
		t.Errorf("Submit outside review = %v", err)
	}

	_ = m.Select()
	_ = m.Confirm(ctx)
	_ = m.Select()
	_ = m.Confirm(ctx)

	if err := m.JumpTo(0); err != nil {
		t.Fatal(err)
	}
	if st := m.Snapshot(); st.ShowReview || st.CurrentQuestion != 0 {
		t.Errorf("JumpTo = %+v", st)
	}
	if err := m.RequestReview(); err != nil {
		t.Fatalf("RequestReview with all answered: %v", err)
	}

	m.MoveDown()
	if err := m.JumpToHighlighted(); err != nil {
		t.Fatal(err)
	}
	if st := m.Snapshot(); st.CurrentQuestion != 1 || st.ShowReview {
		t.Errorf("JumpToHighlighted = %+v", st)
	}
	if err := m.JumpTo(5); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("JumpTo out of range = %v", err)
	}
}

func TestMachine_CompleteFailureKeepsReview(t *testing.T) {
	m, fc := newMachine(t, Config{}, testutil.SingleSelect("q", "A"))
	ctx := context.Background()
	_ = m.Select()
	_ = m.Confirm(ctx)
	fc.completeErr = askerrors.NewSessionError("complete", askerrors.ErrIncompleteAnswers)

	if _, err := m.Submit(ctx); !errors.Is(err, askerrors.ErrIncompleteAnswers) {
		t.Fatalf("Submit = %v", err)
	}
	if st := m.Snapshot(); st.Completed || !st.ShowReview {
		t.Errorf("state after failed submit = %+v", st)
	}
}

func TestMachine_Restore(t *testing.T) {
	m, _ := newMachine(t, Config{},
		testutil.SingleSelect("first", "A", "B"),
		testutil.MultiSelect("second", "C", "D", "E"))

	m.Restore(map[int]answer.Answer{
		0: {SelectedOption: "B"},
		1: {SelectedOptions: []string{"D", "E"}},
		7: {SelectedOption: "ignored"},
	}, 1, true)

	st := m.Snapshot()
	if !st.ShowReview || len(st.Answers) != 2 {
		t.Fatalf("Restore = %+v", st)
	}
	_ = m.JumpTo(1)
	if st := m.Snapshot(); st.FocusedOption != 1 || len(st.Draft.SelectedOptions) != 2 {
		t.Errorf("restored draft = %+v", st)
	}
}

func TestMachine_WithSessionManager(t *testing.T) {
	store, err := session.NewStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(store, session.Options{})
	ctx := context.Background()

	questions := []answer.Question{
		testutil.SingleSelect("first", "A", "B"),
		testutil.SingleSelect("second", "C", "D"),
	}
	id, err := mgr.Create(ctx, questions)
	if err != nil {
		t.Fatal(err)
	}

	m := New(id, questions, Config{}, mgr)
	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	m.MoveDown()
	_ = m.Select()
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Submit(ctx); err != nil {
		t.Fatal(err)
	}

	sess, err := mgr.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != session.StatusCompleted || sess.Answers[1].SelectedOption != "D" {
		t.Errorf("persisted session = %+v", sess)
	}
}

func TestMachine_ClearedOptionalAnswerIsNotPersisted(t *testing.T) {
	store, err := session.NewStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(store, session.Options{})
	ctx := context.Background()

	opt := testutil.MultiSelect("optional", "X", "Y")
	opt.Optional = true
	questions := []answer.Question{opt, testutil.SingleSelect("second", "C", "D")}
	id, err := mgr.Create(ctx, questions)
	if err != nil {
		t.Fatal(err)
	}

	m := New(id, questions, Config{}, mgr)
	_ = m.Select() // X
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	m.PrevQuestion()
	_ = m.Select() // X off
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	_ = m.Select() // C
	if err := m.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	submitted, err := m.Submit(ctx)
	if err != nil {
		t.Fatal(err)
	}

	sess, err := mgr.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sess.Answers[0]; ok {
		t.Errorf("persisted answers = %+v, want question 0 cleared", sess.Answers)
	}
	if len(sess.Answers) != len(submitted) || sess.Answers[1].SelectedOption != submitted[1].SelectedOption {
		t.Errorf("persisted %+v, submitted %+v", sess.Answers, submitted)
	}
}

func TestFocus_String(t *testing.T) {
	tests := map[Focus]string{
		FocusOption:         "option",
		FocusCustomInput:    "custom-input",
		FocusElaborateInput: "elaborate-input",
		Focus(9):            "unknown",
	}
	for f, want := range tests {
		if got := f.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", f, got, want)
		}
	}
}
