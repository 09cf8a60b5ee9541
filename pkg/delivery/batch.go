package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
)

type outcome struct {
	status queue.Status
	reason string
}

func sent() outcome               { return outcome{status: queue.StatusSent} }
func skip(reason string) outcome  { return outcome{status: queue.StatusSkipped, reason: reason} }
func fail(err error) outcome      { return outcome{status: queue.StatusFailed, reason: err.Error()} }
func failReason(r string) outcome { return outcome{status: queue.StatusFailed, reason: r} }

type processFunc func(ctx context.Context, res *preferences.Resolver, job queue.Job) outcome

// runBatch is the claim/process/record loop shared by the channel workers.
// Preferences are resolved through one scoped resolver per batch so every
// job sees the state at the time of the run.
func runBatch(ctx context.Context, jobs queue.Repository, ch catalog.Channel, limit int, log *slog.Logger, resolver *preferences.Resolver, process processFunc) (queue.Summary, error) {
	var sum queue.Summary

	claimed, err := jobs.Claim(ctx, ch, limit)
	if err != nil {
		sum.Errors = append(sum.Errors, fmt.Sprintf("failed to claim %s jobs: %v", ch, err))
		return sum, err
	}

	res := resolver.Scoped()
	for _, job := range claimed {
		sum.Checked++
		out := safeProcess(ctx, res, job, process)

		var merr error
		switch out.status {
		case queue.StatusSent:
			sum.Sent++
			merr = jobs.MarkSent(ctx, job.ID)
		case queue.StatusSkipped:
			sum.Skipped++
			merr = jobs.MarkSkipped(ctx, job.ID, out.reason)
		default:
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("job %d: %s", job.ID, queue.TruncateError(out.reason)))
			merr = jobs.MarkFailed(ctx, job.ID, out.reason)
		}
		if merr != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("job %d: %v", job.ID, merr))
			log.LogAttrs(ctx, slog.LevelError, "failed to record job outcome",
				logger.JobID(job.ID), logger.Error(merr))
		}

		log.LogAttrs(ctx, slog.LevelDebug, "job processed",
			logger.JobID(job.ID),
			logger.NotificationID(job.NotificationID),
			logger.Channel(string(ch)),
			slog.String("status", string(out.status)),
			slog.String("reason", out.reason))
	}
	return sum, nil
}

func safeProcess(ctx context.Context, res *preferences.Resolver, job queue.Job, process processFunc) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failReason(fmt.Sprintf("panic: %v", r))
		}
	}()
	return process(ctx, res, job)
}
