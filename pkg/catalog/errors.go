package catalog

import "errors"

var (
	ErrUnknownChannel  = errors.New("unknown notification channel")
	ErrInvalidCatalog  = errors.New("invalid notification catalog")
	ErrDuplicateType   = errors.New("duplicate notification type")
	ErrUnknownCategory = errors.New("unknown notification category")
)
