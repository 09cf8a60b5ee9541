package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

// NewRecipientCommand manages the email directory used by the email worker
// and the admin alerts.
func NewRecipientCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipient",
		Short: "Manage notification recipients",
	}

	var r notifications.Recipient
	upsert := &cobra.Command{
		Use:   "upsert",
		Short: "Create or update the address of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if r.UserID <= 0 || strings.TrimSpace(r.Email) == "" {
				return NewExitError(ExitCommandError, "--user and --email are required")
			}
			c, err := openCore(cmd.Context())
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.directory.Upsert(cmd.Context(), r); err != nil {
				return WrapExitError(ExitFailure, "failed to save recipient", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recipient %d saved\n", r.UserID)
			return nil
		},
	}
	upsert.Flags().Int64Var(&r.UserID, "user", 0, "user id")
	upsert.Flags().StringVar(&r.Email, "email", "", "email address")
	upsert.Flags().StringVar(&r.Name, "name", "", "display name")
	upsert.Flags().BoolVar(&r.IsAdmin, "admin", false, "receive admin alerts")
	cmd.AddCommand(upsert)

	return cmd
}
