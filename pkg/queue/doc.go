// Package queue holds the out-of-band delivery jobs of notifications.
//
// Each notification owns one job per email or push channel that was allowed
// when it was emitted. Jobs move pending → sending → sent, skipped or
// failed. Workers take jobs with Claim, which hands every job to at most one
// caller even when many workers poll the same table: the Postgres
// repository selects pending rows FOR UPDATE SKIP LOCKED and flips them to
// sending inside the same transaction.
//
// Failed jobs are terminal unless a Retrier is scheduled, which moves them
// back to pending after a backoff and up to a maximum number of attempts.
//
// The Worker type runs BatchHandlers on an interval and is the long-running
// form of the one-shot worker commands:
//
//	w, err := queue.NewWorker(
//		[]queue.BatchHandler{pushWorker, emailWorker, queue.NewRetrier(repo, 3, 5*time.Minute)},
//		queue.FromConfig(cfg)...,
//	)
//	g.Go(w.Run(ctx))
package queue
