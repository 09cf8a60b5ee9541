package webpush

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when VAPID keys are missing or invalid.
	ErrNotConfigured = errors.New("web push is not configured")

	// ErrSubscriptionGone means the push service no longer knows the
	// endpoint (404 or 410). The device should be deleted.
	ErrSubscriptionGone = errors.New("push subscription is gone")

	// ErrInvalidSubscription means the stored credentials cannot be used to
	// encrypt a message. The device should be deleted.
	ErrInvalidSubscription = errors.New("push subscription credentials are invalid")
)

// DeliveryError is a rejected or failed push request that may succeed later.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("push delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("push delivery failed: status %d", e.StatusCode)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Permanent reports whether err means the device will never accept pushes.
func Permanent(err error) bool {
	return errors.Is(err, ErrSubscriptionGone) || errors.Is(err, ErrInvalidSubscription)
}
