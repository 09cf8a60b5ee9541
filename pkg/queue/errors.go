package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrClaimFailed is returned when the claim transaction fails.
	// Jobs stay pending for the next run.
	ErrClaimFailed = errors.New("failed to claim jobs")

	// ErrJobNotFound is returned when a job id does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownChannel is returned for channels without a queue.
	ErrUnknownChannel = errors.New("channel is not queued")

	// ErrFailedToUpdateJobStatus is returned when a status transition fails.
	ErrFailedToUpdateJobStatus = errors.New("failed to update job status")

	// ErrFailedToEnqueue is returned when job rows cannot be inserted.
	ErrFailedToEnqueue = errors.New("failed to enqueue jobs")

	// ErrNoHandlers is returned when a worker has nothing to run.
	ErrNoHandlers = errors.New("no batch handlers registered")

	// ErrWorkerStarted is returned by Start on a running worker.
	ErrWorkerStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned by Stop on an idle worker.
	ErrWorkerNotStarted = errors.New("worker not started")
)
