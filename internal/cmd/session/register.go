// Package session provides the commands that inspect and drive persisted
// question sessions without the interactive UI.
package session

import "github.com/spf13/cobra"

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and manage question sessions",
	Long: `Inspect and manage persisted question sessions.

Sessions are stored as one JSON record per session in the session directory
(session.dir). These commands work on the records directly, so another tool
can create a session, commit answers and read the result without the
interactive UI.`,
}

// Register adds all session-related commands to the given parent command.
// This is the main entry point for integrating the session subpackage with
// the root command.
func Register(parent *cobra.Command) {
	sessionCmd.AddCommand(createCmd)
	sessionCmd.AddCommand(getCmd)
	sessionCmd.AddCommand(listCmd)
	sessionCmd.AddCommand(answerCmd)
	sessionCmd.AddCommand(completeCmd)
	sessionCmd.AddCommand(deleteCmd)
	sessionCmd.AddCommand(sweepCmd)
	sessionCmd.AddCommand(watchCmd)
	parent.AddCommand(sessionCmd)
}
