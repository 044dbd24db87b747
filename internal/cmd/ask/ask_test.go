package ask

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/cmd/env"
	"github.com/Iron-Ham/askuser/internal/cmd/output"
	"github.com/Iron-Ham/askuser/internal/config"
	"github.com/Iron-Ham/askuser/internal/session"
	"github.com/Iron-Ham/askuser/internal/testutil"
	"github.com/Iron-Ham/askuser/internal/tui/form"
)

const questionsYAML = `questions:
  - header: Storage
    prompt: Which database?
    options:
      - label: Postgres
      - label: SQLite
  - prompt: Which features?
    multiSelect: true
    options:
      - label: Auth
      - label: Billing
`

func newTestEnv(t *testing.T) *env.Env {
	t.Helper()
	cfg := config.Default()
	cfg.Session.Dir = t.TempDir()
	cfg.Logging.Enabled = false
	e, err := env.New(cfg)
	if err != nil {
		t.Fatalf("env.New() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestPrepareMachine_FromFile(t *testing.T) {
	e := newTestEnv(t)
	path := testutil.WriteFile(t, t.TempDir(), "questions.yaml", questionsYAML)

	m, err := prepareMachine(context.Background(), e, path, "")
	if err != nil {
		t.Fatalf("prepareMachine() error = %v", err)
	}

	st := m.Snapshot()
	if st.QuestionCount != 2 || st.CurrentQuestion != 0 {
		t.Errorf("snapshot = %+v", st)
	}
	s, err := e.Manager.Get(context.Background(), st.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if s.Questions[0].Header != "Storage" {
		t.Errorf("Header = %q", s.Questions[0].Header)
	}
}

func TestPrepareMachine_BadFile(t *testing.T) {
	e := newTestEnv(t)
	path := testutil.WriteFile(t, t.TempDir(), "questions.yaml", "questions: []")

	if _, err := prepareMachine(context.Background(), e, path, ""); err == nil {
		t.Fatal("expected an error for an empty question set")
	}
	ids, err := e.Store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("no session should be created, found %v", ids)
	}
}

func TestPrepareMachine_Resume(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	id, err := e.Manager.Create(ctx, []answer.Question{
		testutil.SingleSelect("Which database?", "Postgres", "SQLite"),
		testutil.SingleSelect("Deploy?", "Yes", "No"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Manager.CommitAnswer(ctx, id, 0, answer.Answer{SelectedOption: "SQLite"}); err != nil {
		t.Fatal(err)
	}

	m, err := prepareMachine(ctx, e, "", id)
	if err != nil {
		t.Fatalf("prepareMachine() error = %v", err)
	}

	st := m.Snapshot()
	if st.SessionID != id {
		t.Errorf("SessionID = %q, want %q", st.SessionID, id)
	}
	if st.Answers[0].SelectedOption != "SQLite" {
		t.Errorf("restored answer = %+v", st.Answers[0])
	}
	if st.CurrentQuestion != 1 {
		t.Errorf("CurrentQuestion = %d, want 1", st.CurrentQuestion)
	}
}

func TestPrepareMachine_ResumeClosed(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	id, err := e.Manager.Create(ctx, []answer.Question{testutil.SingleSelect("Ready?", "Yes")})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Manager.CommitAnswer(ctx, id, 0, answer.Answer{SelectedOption: "Yes"}); err != nil {
		t.Fatal(err)
	}
	if err := e.Manager.Complete(ctx, id); err != nil {
		t.Fatal(err)
	}

	if _, err := prepareMachine(ctx, e, "", id); err == nil {
		t.Error("resuming a completed session should fail")
	}
	if _, err := prepareMachine(ctx, e, "", "missing"); err == nil {
		t.Error("resuming an unknown session should fail")
	}
}

func TestNewModel(t *testing.T) {
	e := newTestEnv(t)
	m := form.New("s1", []answer.Question{testutil.SingleSelect("Ready?", "Yes")}, form.Config{}, e.Manager)

	t.Run("built-in theme", func(t *testing.T) {
		e.Config.TUI.Theme = "light"
		e.Config.TUI.Keymap = ""
		if _, err := newModel(context.Background(), e, m); err != nil {
			t.Errorf("newModel() error = %v", err)
		}
	})

	t.Run("theme and keymap files", func(t *testing.T) {
		dir := t.TempDir()
		e.Config.TUI.Theme = testutil.WriteFile(t, dir, "theme.yaml", "name: Test\nversion: \"1\"\ncolors:\n  primary: \"#112233\"\n")
		e.Config.TUI.Keymap = testutil.WriteFile(t, dir, "keys.yaml", "modes:\n  question:\n    - key: x\n      command: select\n")
		if _, err := newModel(context.Background(), e, m); err != nil {
			t.Errorf("newModel() error = %v", err)
		}
	})

	t.Run("missing theme file", func(t *testing.T) {
		e.Config.TUI.Theme = "/nonexistent/theme.yaml"
		e.Config.TUI.Keymap = ""
		if _, err := newModel(context.Background(), e, m); err == nil {
			t.Error("expected an error for a missing theme file")
		}
	})

	t.Run("bad keymap", func(t *testing.T) {
		e.Config.TUI.Theme = "dark"
		e.Config.TUI.Keymap = testutil.WriteFile(t, t.TempDir(), "keys.yaml", "modes:\n  question:\n    - key: x\n      command: launch\n")
		if _, err := newModel(context.Background(), e, m); err == nil {
			t.Error("expected an error for an unknown command")
		}
	})
}

func TestResolveThemePath(t *testing.T) {
	for _, name := range []string{"", "auto", "dark", "light", "/abs/theme.yaml"} {
		if got := resolveThemePath(name); got != name {
			t.Errorf("resolveThemePath(%q) = %q", name, got)
		}
	}
}

func TestPrintAnswers(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	id, err := e.Manager.Create(ctx, []answer.Question{testutil.MultiSelect("Which features?", "Auth", "Billing")})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Manager.CommitAnswer(ctx, id, 0, answer.Answer{SelectedOptions: []string{"Auth"}}); err != nil {
		t.Fatal(err)
	}
	if err := e.Manager.Complete(ctx, id); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := printAnswers(ctx, cmd, e.Manager, id, output.FormatJSON); err != nil {
		t.Fatalf("printAnswers() error = %v", err)
	}

	var result output.Result
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not a result document: %v\n%s", err, buf.String())
	}
	if result.Status != session.StatusCompleted {
		t.Errorf("Status = %q", result.Status)
	}
	if got := result.Answers[0].Answer; got == nil || len(got.SelectedOptions) != 1 || got.SelectedOptions[0] != "Auth" {
		t.Errorf("Answers[0] = %+v", got)
	}
}

func TestRunAsk_NoTerminal(t *testing.T) {
	orig := isTerminal
	isTerminal = func(int) bool { return false }
	defer func() { isTerminal = orig }()

	if err := runAsk(askCmd, nil); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("runAsk() error = %v, want ErrNoTerminal", err)
	}
}

func TestRunAsk_BadOutput(t *testing.T) {
	orig := askOutput
	askOutput = "xml"
	defer func() { askOutput = orig }()

	if err := runAsk(askCmd, nil); err == nil {
		t.Error("expected an error for an unsupported output format")
	}
}
