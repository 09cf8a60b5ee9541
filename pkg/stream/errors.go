package stream

import "errors"

var (
	ErrStreamingUnsupported = errors.New("stream: response writer cannot flush")
	ErrInvalidUser          = errors.New("stream: invalid user id")
)
