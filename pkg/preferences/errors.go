package preferences

import "errors"

var (
	ErrNotFound      = errors.New("preferences not found")
	ErrInvalidUser   = errors.New("invalid user id")
	ErrInvalidType   = errors.New("invalid notification type")
	ErrUnknownMode   = errors.New("unknown preference cache mode")
	ErrStorageFailed = errors.New("preference storage failed")
)
