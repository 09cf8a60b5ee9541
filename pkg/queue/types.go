package queue

import (
	"time"
	"unicode/utf8"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
)

// Status is the lifecycle state of a channel job.
type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Terminal reports whether no worker will pick the job up again.
// Failed jobs only leave this state through the retry sweep.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusSkipped
}

// Job is one out-of-band delivery of a notification over a single channel.
type Job struct {
	ID             int64
	NotificationID int64
	Channel        catalog.Channel
	Status         Status
	AttemptCount   int
	LastError      string
	ScheduledAt    time.Time
	SentAt         *time.Time
}

// Skip reasons recorded in last_error.
const (
	ReasonNotificationMissing = "notification missing"
	ReasonPushDisabled        = "push disabled"
	ReasonEmailDisabled       = "email disabled"
	ReasonNoSubscriptions     = "no subscriptions"
	ReasonNoRecipient         = "no recipient"
	ReasonDeliveryFailed      = "delivery failed"
)

// MaxErrorLength bounds the stored error message in bytes.
const MaxErrorLength = 240

// TruncateError cuts msg to MaxErrorLength bytes without splitting a rune.
func TruncateError(msg string) string {
	if len(msg) <= MaxErrorLength {
		return msg
	}
	cut := MaxErrorLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

// Summary counts the outcome of one worker run.
type Summary struct {
	Checked  int
	Sent     int
	Skipped  int
	Failed   int
	Requeued int
	Errors   []string
}

// Add folds o into s.
func (s *Summary) Add(o Summary) {
	s.Checked += o.Checked
	s.Sent += o.Sent
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Requeued += o.Requeued
	s.Errors = append(s.Errors, o.Errors...)
}
