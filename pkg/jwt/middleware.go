package jwt

import (
	"net/http"
	"strings"
)

// TokenExtractorFunc pulls a raw token out of a request.
type TokenExtractorFunc func(r *http.Request) (string, error)

// Middleware authenticates requests with the first extractor that yields a
// token. Requests without a valid token are passed to unauthorized.
func Middleware(s *Service, unauthorized http.Handler, extractors ...TokenExtractorFunc) func(http.Handler) http.Handler {
	if len(extractors) == 0 {
		extractors = []TokenExtractorFunc{BearerTokenExtractor}
	}
	if unauthorized == nil {
		unauthorized = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, extract := range extractors {
				tok, err := extract(r)
				if err != nil {
					continue
				}
				sess, err := s.Parse(tok)
				if err != nil {
					break
				}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
				return
			}
			unauthorized.ServeHTTP(w, r)
		})
	}
}

// BearerTokenExtractor reads "Authorization: Bearer <token>".
func BearerTokenExtractor(r *http.Request) (string, error) {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || tok == "" {
		return "", ErrInvalidToken
	}
	return tok, nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(name string) TokenExtractorFunc {
	return func(r *http.Request) (string, error) {
		c, err := r.Cookie(name)
		if err != nil || c.Value == "" {
			return "", ErrInvalidToken
		}
		return c.Value, nil
	}
}
