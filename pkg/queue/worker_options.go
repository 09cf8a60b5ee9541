package queue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval time.Duration
	batchSize    int
	runTimeout   time.Duration
	logger       *slog.Logger
}

// WithPollInterval sets how often the worker runs its handlers
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBatchSize sets the limit passed to every handler run
func WithBatchSize(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithRunTimeout bounds a single handler run
func WithRunTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.runTimeout = d
		}
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// FromConfig turns cfg into worker options.
func FromConfig(cfg Config) []WorkerOption {
	return []WorkerOption{
		WithPollInterval(cfg.PollInterval),
		WithBatchSize(cfg.BatchSize),
		WithRunTimeout(cfg.RunTimeout),
	}
}
