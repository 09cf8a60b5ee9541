package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the notifyhub command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifyhub",
		Short: "Multi-channel notification service",
		Long: `notifyhub stores in-app notifications, streams them to browsers and
delivers them by email and web push according to each user's preferences.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewWorkerCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewVAPIDCommand())
	cmd.AddCommand(NewRecipientCommand())
	cmd.AddCommand(NewEmitCommand())
	cmd.AddCommand(NewHookCommand())

	return cmd
}
