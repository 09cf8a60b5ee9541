package devices

import "errors"

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrInvalidSubscription = errors.New("invalid push subscription")
	ErrMissingSubscription = errors.New("missing push subscription")
	ErrDeviceConflict      = errors.New("endpoint is registered to another user")
	ErrInvalidUser         = errors.New("invalid user id")
	ErrStorageFailed       = errors.New("device storage failed")
)
