package handler

import (
	"errors"
	"net/http"
)

// HTTPError carries a status code and a machine-readable key that clients
// switch on. Keys are stable API surface.
type HTTPError struct {
	Code    int
	Key     string
	Message string
}

func (e HTTPError) Error() string { return e.Key }

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request", Message: "The request could not be understood."}
	ErrBadAction           = HTTPError{Code: http.StatusBadRequest, Key: "bad_action", Message: "Unsupported notification action."}
	ErrBadIntent           = HTTPError{Code: http.StatusBadRequest, Key: "bad_intent", Message: "Unsupported device action."}
	ErrAuth                = HTTPError{Code: http.StatusUnauthorized, Key: "auth", Message: "You need to be signed in to manage notifications."}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Key: "not_found", Message: "Not found."}
	ErrCSRF                = HTTPError{Code: http.StatusUnprocessableEntity, Key: "csrf", Message: "We could not verify that request."}
	ErrMissingSubscription = HTTPError{Code: http.StatusUnprocessableEntity, Key: "missing_subscription", Message: "Push subscription payload is missing."}
	ErrInvalidSubscription = HTTPError{Code: http.StatusUnprocessableEntity, Key: "invalid_subscription", Message: "Push subscription payload is incomplete."}
	ErrDeviceConflict      = HTTPError{Code: http.StatusConflict, Key: "device_conflict", Message: "This device is registered to another account."}
	ErrServer              = HTTPError{Code: http.StatusInternalServerError, Key: "server", Message: "Something went wrong while updating notifications."}
)

// AsHTTPError maps err onto an HTTPError, defaulting to ErrServer.
func AsHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return ErrServer
}
