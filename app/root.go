// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shiftdesk",
	Short: "ShiftDesk is a multi-tenant task-management backend",
	Long: `ShiftDesk is a multi-tenant task-management backend providing
role-scoped access to tasks, SOPs, clock sessions, reminders and feedback,
with an append-only audit trail for privileged operations.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
