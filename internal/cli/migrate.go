package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifyhub/pkg/config"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg coreConfig
			if err := config.Load(&cfg); err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			log := newLogger(cfg.Log)

			ctx := cmd.Context()
			pool, err := pg.Connect(ctx, cfg.PG)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to connect to postgres", err)
			}
			defer pool.Close()

			if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
				return WrapExitError(ExitCommandError, "migration failed", err)
			}
			log.InfoContext(ctx, "database schema is up to date")
			return nil
		},
	}
}
