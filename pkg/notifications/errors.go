package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidUser          = errors.New("invalid user id")
	ErrInvalidType          = errors.New("notification type is required")
	ErrFailedToCreate       = errors.New("failed to create notification")
	ErrStorageFailed        = errors.New("notification storage failed")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrNoSubscriptions      = errors.New("subscription registry not configured")
)
