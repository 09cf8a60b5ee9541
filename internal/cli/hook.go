package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifyhub/pkg/config"
	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

type hookConfig struct {
	FingerprintKey string `env:"FINGERPRINT_KEY,required"`
}

// NewHookCommand feeds events of the host application into the producers.
func NewHookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Report host application events",
	}
	cmd.AddCommand(newLoginHookCommand())
	cmd.AddCommand(newAuditHookCommand())
	return cmd
}

func newLoginHookCommand() *cobra.Command {
	var (
		userID    int64
		ip        string
		userAgent string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Record a sign-in and alert the user about unknown devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return NewExitError(ExitCommandError, "--user is required")
			}
			var cfg hookConfig
			if err := config.Load(&cfg); err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}

			ctx := cmd.Context()
			c, err := openCore(ctx)
			if err != nil {
				return err
			}
			defer c.close()

			tracker := notifications.NewLoginTracker(notifications.NewPGLoginStore(c.pool),
				fingerprint.NewHasher(cfg.FingerprintKey), c.emitter, c.log)
			id, err := tracker.Track(ctx, userID, ip, userAgent)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to track sign-in", err)
			}
			if id == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "known device")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "alert %d\n", id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&ip, "ip", "", "client address")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "client user agent")
	return cmd
}

func newAuditHookCommand() *cobra.Command {
	var (
		ev   notifications.AuditEvent
		meta []string
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Forward an audit log entry to administrator alerts",
		Long: `Forward an audit log entry to administrator alerts.

Only task.delete and user.create produce alerts; other actions are accepted
and ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ev.Action == "" {
				return NewExitError(ExitCommandError, "--action is required")
			}
			var err error
			if ev.Meta, err = parseMeta(meta); err != nil {
				return WrapExitError(ExitCommandError, "invalid --meta", err)
			}

			ctx := cmd.Context()
			c, err := openCore(ctx)
			if err != nil {
				return err
			}
			defer c.close()

			alerter := notifications.NewAdminAlerter(c.emitter, c.directory, c.log)
			if err := alerter.HandleAuditEvent(ctx, ev); err != nil {
				return WrapExitError(ExitFailure, "admin alert failed", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ev.Action, "action", "", "audit action, e.g. task.delete")
	cmd.Flags().StringVar(&ev.EntityType, "entity-type", "", "entity type")
	cmd.Flags().Int64Var(&ev.EntityID, "entity-id", 0, "entity id")
	cmd.Flags().StringVar(&ev.ActorEmail, "actor-email", "", "email of the acting user")
	cmd.Flags().StringVar(&ev.IP, "ip", "", "client address of the acting user")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "extra key=value (repeatable)")
	return cmd
}

// parseMeta turns key=value pairs into a map. Integer values stay numbers.
func parseMeta(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out, nil
}
