package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// Worker runs batch handlers on a fixed interval until stopped. Several
// workers may run against the same repository; claims keep them apart.
type Worker struct {
	handlers []BatchHandler
	workerID uuid.UUID

	pollInterval time.Duration
	batchSize    int
	runTimeout   time.Duration
	logger       *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates a worker for the given handlers.
func NewWorker(handlers []BatchHandler, opts ...WorkerOption) (*Worker, error) {
	if len(handlers) == 0 {
		return nil, ErrNoHandlers
	}

	options := &workerOptions{
		pollInterval: 5 * time.Second,
		batchSize:    50,
		runTimeout:   5 * time.Minute,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		handlers:     handlers,
		workerID:     uuid.New(),
		pollInterval: options.pollInterval,
		batchSize:    options.batchSize,
		runTimeout:   options.runTimeout,
		logger:       options.logger.With(logger.Component("queue.worker")),
	}, nil
}

// ID identifies the worker in logs.
func (w *Worker) ID() string { return w.workerID.String() }

// Start begins processing in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerStarted
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)

	w.logger.Info("worker started",
		slog.String("worker_id", w.ID()),
		slog.Int("handlers", len(w.handlers)),
		logger.Duration(w.pollInterval))
	return nil
}

// Stop cancels the loop and waits for the current pass to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("worker stopped", slog.String("worker_id", w.ID()))
	return nil
}

// Run starts the worker and returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce runs every handler once and returns the combined summary.
// Handler errors are logged and recorded in the summary.
func (w *Worker) RunOnce(ctx context.Context) Summary {
	var total Summary
	for _, h := range w.handlers {
		if ctx.Err() != nil {
			break
		}
		sum, err := w.runHandler(ctx, h)
		total.Add(sum)
		if err != nil {
			total.Errors = append(total.Errors, fmt.Sprintf("%s: %v", h.Name(), err))
		}
	}
	return total
}

func (w *Worker) runHandler(ctx context.Context, h BatchHandler) (sum Summary, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
			w.logger.Error("handler panicked",
				slog.String("worker_id", w.ID()),
				slog.String("handler", h.Name()),
				slog.Any("panic", r))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	sum, err = h.RunBatch(runCtx, w.batchSize)
	if err != nil {
		w.logger.LogAttrs(ctx, slog.LevelError, "batch run failed",
			slog.String("worker_id", w.ID()),
			slog.String("handler", h.Name()),
			logger.Error(err))
		return sum, err
	}

	if sum.Checked > 0 || sum.Requeued > 0 {
		w.logger.LogAttrs(ctx, slog.LevelInfo, "batch run finished",
			slog.String("worker_id", w.ID()),
			slog.String("handler", h.Name()),
			logger.Count("checked", sum.Checked),
			logger.Count("sent", sum.Sent),
			logger.Count("skipped", sum.Skipped),
			logger.Count("failed", sum.Failed),
			logger.Count("requeued", sum.Requeued),
			logger.Duration(time.Since(start)))
	}
	return sum, nil
}
