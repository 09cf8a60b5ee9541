package requestid

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// New returns a fresh random id.
func New() string {
	return uuid.NewString()
}

// Middleware propagates a client-supplied X-Request-ID when it is well formed
// and generates one otherwise. The id is echoed in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !isValid(id) {
			id = New()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// Detached returns a background context carrying a new id. Worker runs use
// it so every record of one run shares an id.
func Detached(parent context.Context) context.Context {
	return WithContext(parent, New())
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
