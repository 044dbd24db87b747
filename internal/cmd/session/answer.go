package session

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/cmd/env"
	"github.com/Iron-Ham/askuser/internal/errors"
	"github.com/Iron-Ham/askuser/internal/session"
)

var answerCmd = &cobra.Command{
	Use:   "answer <session-id> <question-index>",
	Short: "Commit the answer to one question",
	Long: `Commit the answer to one question of an active session.

The question index is zero-based. Give one --option for a single-select
question, repeat --option for a multi-select question, or use --custom for a
free-text answer when the question allows it. --note attaches a note to the
selected option(s). --clear removes the answer of an optional question.

Examples:
  askuser session answer 3f2a... 0 --option Postgres --note "managed please"
  askuser session answer 3f2a... 1 --option Auth --option Billing
  askuser session answer 3f2a... 2 --custom "Whatever ships first"
  askuser session answer 3f2a... 3 --clear`,
	Args: cobra.ExactArgs(2),
	RunE: runAnswer,
}

var completeCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Finalize a session once every required question is answered",
	Args:  cobra.ExactArgs(1),
	RunE:  runComplete,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var (
	answerOptions []string
	answerCustom  string
	answerNote    string
	answerClear   bool
)

func init() {
	answerCmd.Flags().StringArrayVar(&answerOptions, "option", nil, "selected option label (repeat for multi-select)")
	answerCmd.Flags().StringVar(&answerCustom, "custom", "", "free-text answer")
	answerCmd.Flags().StringVar(&answerNote, "note", "", "note attached to the selection")
	answerCmd.Flags().BoolVar(&answerClear, "clear", false, "remove the answer of an optional question")
	answerCmd.MarkFlagsMutuallyExclusive("option", "custom")
	answerCmd.MarkFlagsMutuallyExclusive("note", "custom")
	answerCmd.MarkFlagsMutuallyExclusive("clear", "option")
	answerCmd.MarkFlagsMutuallyExclusive("clear", "custom")
	answerCmd.MarkFlagsMutuallyExclusive("clear", "note")
}

func runAnswer(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid question index %q: expected a number", args[1])
	}
	return withEnv(func(e *env.Env) error {
		if answerClear {
			return clearAnswer(cmd.Context(), cmd.OutOrStdout(), e.Manager, args[0], index)
		}
		return commitAnswer(cmd.Context(), cmd.OutOrStdout(), e.Manager, args[0], index, answerOptions, answerCustom, answerNote)
	})
}

func commitAnswer(ctx context.Context, w io.Writer, m *session.Manager, id string, index int, options []string, custom, note string) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(s.Questions) {
		return errors.NewValidationError(fmt.Sprintf("question index out of range (session has %d questions)", len(s.Questions))).
			WithField("index").
			WithValue(index).
			WithCause(errors.ErrInvalidAnswer)
	}

	a, err := buildAnswer(s.Questions[index], options, custom, note)
	if err != nil {
		return err
	}
	if err := m.CommitAnswer(ctx, id, index, a); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Answered question %d: %s\n", index, a.Summary())
	return err
}

func clearAnswer(ctx context.Context, w io.Writer, m *session.Manager, id string, index int) error {
	if err := m.ClearAnswer(ctx, id, index); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Cleared question %d\n", index)
	return err
}

// buildAnswer shapes the flag values into an answer for q. The manager
// validates the result against the question.
func buildAnswer(q answer.Question, options []string, custom, note string) (answer.Answer, error) {
	a := answer.Answer{CustomText: custom, Elaboration: note}
	switch {
	case len(options) == 0:
	case q.MultiSelect:
		a.SelectedOptions = options
	case len(options) == 1:
		a.SelectedOption = options[0]
	default:
		return answer.Answer{}, errors.NewValidationError("question takes a single option").
			WithField("option").
			WithValue(options).
			WithCause(errors.ErrInvalidAnswer)
	}
	if a.IsEmpty() {
		return answer.Answer{}, errors.NewValidationError("give --option or --custom").
			WithField("answer").
			WithCause(errors.ErrInvalidAnswer)
	}
	return a, nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	return withEnv(func(e *env.Env) error {
		return completeSession(cmd.Context(), cmd.OutOrStdout(), e.Manager, args[0])
	})
}

func completeSession(ctx context.Context, w io.Writer, m *session.Manager, id string) error {
	if err := m.Complete(ctx, id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Completed session %s\n", id)
	return err
}

func runDelete(cmd *cobra.Command, args []string) error {
	return withEnv(func(e *env.Env) error {
		return deleteSession(cmd.Context(), cmd.OutOrStdout(), e.Manager, args[0])
	})
}

func deleteSession(ctx context.Context, w io.Writer, m *session.Manager, id string) error {
	if err := m.Delete(ctx, id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Removed session: %s\n", id)
	return err
}
