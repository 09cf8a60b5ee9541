package queue

import "context"

// BatchHandler processes up to limit jobs per call.
type BatchHandler interface {
	Name() string
	RunBatch(ctx context.Context, limit int) (Summary, error)
}

// BatchFunc adapts a function to BatchHandler.
func BatchFunc(name string, fn func(ctx context.Context, limit int) (Summary, error)) BatchHandler {
	return batchFunc{name: name, fn: fn}
}

type batchFunc struct {
	name string
	fn   func(ctx context.Context, limit int) (Summary, error)
}

func (b batchFunc) Name() string { return b.name }

func (b batchFunc) RunBatch(ctx context.Context, limit int) (Summary, error) {
	return b.fn(ctx, limit)
}
