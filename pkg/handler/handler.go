package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

// HandlerFunc handles a request and returns what to render.
type HandlerFunc func(r *http.Request) Response

// Wrap converts h into an http.HandlerFunc. A nil response or a failed
// render is logged and answered with ErrServer when headers are still unsent.
func Wrap(h HandlerFunc, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h(r)
		if resp == nil {
			log.ErrorContext(r.Context(), "handler returned nil response", slog.String("path", r.URL.Path))
			_ = JSONError(ErrServer).Render(w, r)
			return
		}
		if err := resp.Render(w, r); err != nil {
			log.ErrorContext(r.Context(), "failed to render response",
				slog.String("path", r.URL.Path),
				logger.Error(err),
			)
		}
	}
}
