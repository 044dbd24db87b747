// Package ask provides the interactive ask command.
package ask

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/cmd/env"
	"github.com/Iron-Ham/askuser/internal/cmd/output"
	"github.com/Iron-Ham/askuser/internal/config"
	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/session"
	"github.com/Iron-Ham/askuser/internal/tui"
	"github.com/Iron-Ham/askuser/internal/tui/form"
	"github.com/Iron-Ham/askuser/internal/tui/keymap"
	"github.com/Iron-Ham/askuser/internal/tui/styles"
)

// ErrNoTerminal is returned when the UI has no terminal to draw on.
var ErrNoTerminal = errors.New("ask needs an interactive terminal on stderr")

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions interactively and print the answers",
	Long: `Ask presents a set of questions in the terminal and prints the submitted
answers to stdout.

Questions come from a YAML or JSON file (use "-" to read stdin), either as a
list or as a document with a top-level "questions" key:

  questions:
    - header: Storage
      prompt: Which database should we use?
      options:
        - label: Postgres
          description: Managed relational database
        - label: SQLite
      allowCustom: true

The interface is drawn on stderr so stdout only carries the answers. If you
quit before submitting, the session is kept and can be continued with --resume.`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

var (
	askFile   string
	askResume string
	askOutput string
)

// isTerminal reports whether a file descriptor is a terminal.
var isTerminal = term.IsTerminal

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "question file (YAML or JSON, - for stdin)")
	askCmd.Flags().StringVar(&askResume, "resume", "", "continue an unfinished session by id")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", output.FormatJSON, "answer format: json or yaml")
	askCmd.MarkFlagsMutuallyExclusive("file", "resume")
	askCmd.MarkFlagsOneRequired("file", "resume")
}

// Register adds the ask command to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := output.CheckFormat(askOutput, output.FormatJSON, output.FormatYAML); err != nil {
		return err
	}
	if !isTerminal(int(os.Stderr.Fd())) {
		return ErrNoTerminal
	}

	e, err := env.Open()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	machine, err := prepareMachine(ctx, e, askFile, askResume)
	if err != nil {
		return err
	}
	id := machine.Snapshot().SessionID

	model, err := newModel(ctx, e, machine)
	if err != nil {
		return err
	}

	// Answers cannot be saved once another process removes the record;
	// the watcher lets the UI say so.
	if w, err := session.NewWatcher(e.Store.Dir(), e.Bus, e.Logger); err != nil {
		e.Logger.Warn("session watcher unavailable", "error", err)
	} else {
		w.Start()
		defer w.Stop()
	}

	app := tui.New(model, e.Bus, id, tea.WithAltScreen(), tea.WithOutput(os.Stderr), tea.WithInputTTY())
	if _, err := app.Run(); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			fmt.Fprintf(cmd.ErrOrStderr(), "No answers submitted. Continue with: askuser ask --resume %s\n", id)
		}
		return err
	}

	return printAnswers(ctx, cmd, e.Manager, id, askOutput)
}

// prepareMachine creates a session from a question file, or restores an
// unfinished one, and returns the form machine driving it.
func prepareMachine(ctx context.Context, e *env.Env, file, resume string) (*form.Machine, error) {
	cfg := form.Config{
		MaxOptions:         e.Config.Questions.MaxOptions,
		RecommendedOptions: e.Config.Questions.RecommendedOptions,
	}

	if resume != "" {
		s, err := e.Manager.Get(ctx, resume)
		if err != nil {
			return nil, err
		}
		if s.Status.IsClosed() {
			return nil, fmt.Errorf("session %s is %s and cannot be resumed", s.ID, s.Status)
		}
		m := form.New(s.ID, s.Questions, cfg, e.Manager)
		m.Restore(s.AnswerSet(), s.Cursor.Question, s.Cursor.ShowReview)
		return m, nil
	}

	questions, err := answer.LoadQuestionFile(file)
	if err != nil {
		return nil, err
	}
	id, err := e.Manager.Create(ctx, questions)
	if err != nil {
		return nil, err
	}
	return form.New(id, questions, cfg, e.Manager), nil
}

// newModel builds the UI model with the configured theme and key bindings.
func newModel(ctx context.Context, e *env.Env, machine *form.Machine) (tui.Model, error) {
	palette, err := styles.Resolve(resolveThemePath(e.Config.TUI.Theme), nil)
	if err != nil {
		return tui.Model{}, fmt.Errorf("loading theme: %w", err)
	}

	km := keymap.DefaultKeymap()
	if path := e.Config.TUI.Keymap; path != "" {
		km, err = keymap.LoadFile(config.ExpandPath(path))
		if err != nil {
			return tui.Model{}, fmt.Errorf("loading keymap: %w", err)
		}
	}

	return tui.NewModel(machine, tui.Options{
		Styles:  styles.New(palette),
		Keymap:  km,
		Logger:  e.Logger,
		Context: ctx,
	}), nil
}

// resolveThemePath expands ~ in theme file paths and leaves built-in theme
// names alone.
func resolveThemePath(theme string) string {
	switch theme {
	case "", styles.ThemeAuto, styles.ThemeDark, styles.ThemeLight:
		return theme
	}
	return config.ExpandPath(theme)
}

func printAnswers(ctx context.Context, cmd *cobra.Command, m *session.Manager, id, format string) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	return output.Write(cmd.OutOrStdout(), format, output.NewResult(s))
}
