package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

// WorkerOptions holds flags of the worker commands.
type WorkerOptions struct {
	Limit       int
	Watch       bool
	MaxAttempts int
	Backoff     time.Duration
}

// NewWorkerCommand groups the delivery workers.
func NewWorkerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a channel delivery worker",
	}
	cmd.AddCommand(newChannelWorkerCommand("push", "Deliver pending web push jobs", func(c *core, cfg deliveryConfig, _ *WorkerOptions) (queue.BatchHandler, error) {
		return c.pushWorker(cfg), nil
	}))
	cmd.AddCommand(newChannelWorkerCommand("email", "Deliver pending email jobs", func(c *core, cfg deliveryConfig, _ *WorkerOptions) (queue.BatchHandler, error) {
		return c.emailWorker(cfg)
	}))

	retry := newChannelWorkerCommand("retry", "Move failed jobs back to pending", func(c *core, cfg deliveryConfig, opts *WorkerOptions) (queue.BatchHandler, error) {
		if opts.MaxAttempts > 0 {
			cfg.Queue.RetryMaxAttempts = opts.MaxAttempts
		}
		if opts.Backoff > 0 {
			cfg.Queue.RetryBackoff = opts.Backoff
		}
		return c.retrier(cfg), nil
	})
	cmd.AddCommand(retry)

	return cmd
}

type handlerFactory func(c *core, cfg deliveryConfig, opts *WorkerOptions) (queue.BatchHandler, error)

func newChannelWorkerCommand(name, short string, build handlerFactory) *cobra.Command {
	opts := &WorkerOptions{}

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Long: short + `.

Without --watch the worker claims up to --limit jobs once, prints a summary
and exits with status 1 when any job failed, or 2 when the run could not
start (missing configuration, claim failure).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cmd, opts, build)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum jobs claimed per run")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "keep polling until interrupted")
	if name == "retry" {
		cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "requeue jobs with fewer attempts (default QUEUE_RETRY_MAX_ATTEMPTS)")
		cmd.Flags().DurationVar(&opts.Backoff, "backoff", 0, "minimum age of the last attempt (default QUEUE_RETRY_BACKOFF)")
	}

	return cmd
}

func runWorker(ctx context.Context, cmd *cobra.Command, opts *WorkerOptions, build handlerFactory) error {
	if opts.Limit <= 0 {
		return NewExitError(ExitCommandError, "--limit must be positive")
	}

	cfg, err := loadDelivery()
	if err != nil {
		return err
	}
	c, err := openCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	h, err := build(c, cfg, opts)
	if err != nil {
		return err
	}

	if opts.Watch {
		w, err := queue.NewWorker([]queue.BatchHandler{h},
			append(queue.FromConfig(cfg.Queue), queue.WithBatchSize(opts.Limit), queue.WithWorkerLogger(c.log))...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start worker", err)
		}
		return w.Run(ctx)()
	}

	sum, runErr := h.RunBatch(ctx, opts.Limit)
	printSummary(cmd.OutOrStdout(), sum)
	for _, e := range sum.Errors {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}

	switch {
	case errors.Is(runErr, webpush.ErrNotConfigured):
		return WrapExitError(ExitCommandError, "push delivery is not configured", runErr)
	case runErr != nil:
		return WrapExitError(ExitCommandError, "worker run failed", runErr)
	case sum.Failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d job(s) failed", sum.Failed))
	}
	return nil
}

func printSummary(w io.Writer, s queue.Summary) {
	fmt.Fprintf(w, "Checked: %d\nSent: %d\nSkipped: %d\nFailed: %d\n", s.Checked, s.Sent, s.Skipped, s.Failed)
	if s.Requeued > 0 {
		fmt.Fprintf(w, "Requeued: %d\n", s.Requeued)
	}
}
