package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

// EmitOptions holds flags of the emit command.
type EmitOptions struct {
	Users      []int64
	Admins     bool
	Subscribed string
	EntityType string
	EntityID   int64
	Event      notifications.Event
}

// NewEmitCommand sends a notification from the command line to explicit
// users, every admin or the subscribers of an entity event.
func NewEmitCommand() *cobra.Command {
	opts := &EmitOptions{}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emit a notification through the preference pipeline",
		Long: `Emit a notification through the preference pipeline.

Suppressed recipients (muted type, every channel disabled) are reported as
"suppressed" and get nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Event.Type == "" || opts.Event.Title == "" {
				return NewExitError(ExitCommandError, "--type and --title are required")
			}
			if len(opts.Users) == 0 && !opts.Admins && opts.Subscribed == "" {
				return NewExitError(ExitCommandError, "one of --user, --admins or --subscribed is required")
			}

			ctx := cmd.Context()
			c, err := openCore(ctx)
			if err != nil {
				return err
			}
			defer c.close()

			if opts.Admins {
				ev := opts.Event
				ids, err := notifications.NewAdminAlerter(c.emitter, c.directory, c.log).
					Alert(ctx, ev.Type, ev.Title, ev.Body, ev.URL, nil)
				fmt.Fprintf(cmd.OutOrStdout(), "admins: %d notification(s)\n", len(ids))
				if err != nil {
					return WrapExitError(ExitFailure, "admin alert failed", err)
				}
			}

			if opts.Subscribed != "" {
				var entityType *string
				var entityID *int64
				if opts.EntityType != "" {
					entityType = &opts.EntityType
				}
				if opts.EntityID > 0 {
					entityID = &opts.EntityID
				}
				ev := opts.Event
				ev.EntityType, ev.EntityID = entityType, entityID
				ids, err := c.emitter.BroadcastToSubscribers(ctx, opts.Subscribed, entityType, entityID, ev)
				fmt.Fprintf(cmd.OutOrStdout(), "subscribers: %d notification(s)\n", len(ids))
				if err != nil {
					return WrapExitError(ExitFailure, "subscriber broadcast failed", err)
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, uid := range opts.Users {
				ev := opts.Event
				ev.UserID = uid
				id, err := c.emitter.Emit(ctx, ev)
				switch {
				case err != nil:
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "user %d: %v\n", uid, err)
				case id == 0:
					fmt.Fprintf(out, "user %d: suppressed\n", uid)
				default:
					fmt.Fprintf(out, "user %d: notification %d\n", uid, id)
				}
			}
			if failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d emits failed", failed, len(opts.Users)))
			}
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&opts.Users, "user", nil, "recipient user id (repeatable)")
	cmd.Flags().BoolVar(&opts.Admins, "admins", false, "send to every admin recipient")
	cmd.Flags().StringVar(&opts.Subscribed, "subscribed", "", "send to subscribers of this event")
	cmd.Flags().StringVar(&opts.EntityType, "entity-type", "", "entity type of --subscribed")
	cmd.Flags().Int64Var(&opts.EntityID, "entity-id", 0, "entity id of --subscribed")
	cmd.Flags().StringVar(&opts.Event.Type, "type", "", "notification type key")
	cmd.Flags().StringVar(&opts.Event.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Event.Body, "body", "", "body text")
	cmd.Flags().StringVar(&opts.Event.URL, "url", "", "link target")

	return cmd
}
