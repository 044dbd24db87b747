package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/askuser/internal/answer"
	"github.com/Iron-Ham/askuser/internal/cmd/env"
	"github.com/Iron-Ham/askuser/internal/cmd/output"
	"github.com/Iron-Ham/askuser/internal/session"
	"github.com/Iron-Ham/askuser/internal/util"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session from a question file and print its id",
	Args:  cobra.NoArgs,
	RunE:  runCreate,
}

var getCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show a session",
	Long: `Show a session.

By default the answer document is printed, the same one 'askuser ask' prints.
Use --record to print the full stored record instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	createFile   string
	getOutput    string
	getRecord    bool
	listOutput   string
	listStatuses []string
)

func init() {
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "question file (YAML or JSON, - for stdin)")
	_ = createCmd.MarkFlagRequired("file")

	getCmd.Flags().StringVarP(&getOutput, "output", "o", output.FormatJSON, "output format: json or yaml")
	getCmd.Flags().BoolVar(&getRecord, "record", false, "print the full stored record")

	listCmd.Flags().StringVarP(&listOutput, "output", "o", output.FormatText, "output format: text, json or yaml")
	listCmd.Flags().StringSliceVar(&listStatuses, "status", nil, "only list sessions with these statuses (active, completed, expired)")
}

// withEnv opens the command runtime, runs fn and closes it again.
func withEnv(fn func(e *env.Env) error) error {
	e, err := env.Open()
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}

func runCreate(cmd *cobra.Command, args []string) error {
	return withEnv(func(e *env.Env) error {
		return createSession(cmd.Context(), cmd.OutOrStdout(), e.Manager, createFile)
	})
}

func createSession(ctx context.Context, w io.Writer, m *session.Manager, file string) error {
	questions, err := answer.LoadQuestionFile(file)
	if err != nil {
		return err
	}
	id, err := m.Create(ctx, questions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, id)
	return err
}

func runGet(cmd *cobra.Command, args []string) error {
	if err := output.CheckFormat(getOutput, output.FormatJSON, output.FormatYAML); err != nil {
		return err
	}
	return withEnv(func(e *env.Env) error {
		return showSession(cmd.Context(), cmd.OutOrStdout(), e.Manager, args[0], getOutput, getRecord)
	})
}

func showSession(ctx context.Context, w io.Writer, m *session.Manager, id, format string, record bool) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if record {
		return output.Write(w, format, s)
	}
	return output.Write(w, format, output.NewResult(s))
}

func runList(cmd *cobra.Command, args []string) error {
	if err := output.CheckFormat(listOutput, output.FormatText, output.FormatJSON, output.FormatYAML); err != nil {
		return err
	}
	return withEnv(func(e *env.Env) error {
		return listSessions(cmd.Context(), cmd.OutOrStdout(), e.Manager, listOutput, listStatuses)
	})
}

func listSessions(ctx context.Context, w io.Writer, m *session.Manager, format string, statuses []string) error {
	all, err := m.List(ctx)
	if err != nil {
		return err
	}

	infos := make([]*session.Info, 0, len(all))
	for _, info := range all {
		if matchesStatus(info, statuses) {
			infos = append(infos, info)
		}
	}

	if format != output.FormatText {
		return output.Write(w, format, infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	fmt.Fprintf(w, "Found %d session(s):\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(w, "  Session: %s\n", info.ID)
		if info.Error != "" {
			fmt.Fprintf(w, "    Error:    %s\n", info.Error)
			fmt.Fprintln(w)
			continue
		}
		status := string(info.Status)
		if info.IsLocked {
			status += " (locked)"
		}
		fmt.Fprintf(w, "    Status:   %s\n", status)
		if info.Title != "" {
			fmt.Fprintf(w, "    Title:    %s\n", util.Summarize(info.Title, 60))
		}
		fmt.Fprintf(w, "    Answered: %d/%d\n", info.Answered, info.Total)
		fmt.Fprintf(w, "    Created:  %s\n", info.CreatedAt.Format(time.RFC822))
		fmt.Fprintf(w, "    Active:   %s\n", info.LastActivityAt.Format(time.RFC822))
		fmt.Fprintln(w)
	}
	return nil
}

func matchesStatus(info *session.Info, statuses []string) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if strings.EqualFold(s, string(info.Status)) {
			return true
		}
	}
	return false
}
