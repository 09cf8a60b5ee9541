// Package httpserver runs an http.Handler until its context is cancelled and
// provides liveness and readiness handlers.
package httpserver
