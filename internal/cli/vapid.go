package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

func NewVAPIDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Manage web push VAPID keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a new VAPID key pair as environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub, priv, err := webpush.GenerateKeys()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate keys", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
			return nil
		},
	})
	return cmd
}
