// Package delivery holds the channel workers that drain the job queue.
//
// Each run claims up to a limit of pending jobs of one channel and, for
// every job, reloads the notification, re-checks the recipient's current
// preference for the channel and delivers. Outcomes are recorded on the job:
//
//	sent     at least one delivery succeeded
//	skipped  notification missing, channel now disabled, nowhere to deliver
//	failed   every delivery attempt failed, attempt_count incremented
//
// The push worker deletes devices the push service reports as gone or whose
// keys are unusable, and keeps trying the user's remaining devices.
// Both workers implement queue.BatchHandler.
package delivery
