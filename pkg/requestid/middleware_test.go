package requestid_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/requestid"
)

func serve(t *testing.T, header string) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var seen string
	h := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates id", func(t *testing.T) {
		t.Parallel()
		id, rec := serve(t, "")
		require.NotEmpty(t, id)
		assert.Equal(t, id, rec.Header().Get(requestid.Header))
	})

	t.Run("keeps valid client id", func(t *testing.T) {
		t.Parallel()
		id, rec := serve(t, "client-id_42")
		assert.Equal(t, "client-id_42", id)
		assert.Equal(t, "client-id_42", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces invalid client id", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"has spaces", "<script>", strings.Repeat("a", 129)} {
			id, _ := serve(t, bad)
			assert.NotEqual(t, bad, id)
			assert.NotEmpty(t, id)
		}
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, requestid.FromContext(context.Background()))
	assert.Empty(t, requestid.FromContext(nil)) //nolint:staticcheck

	ctx := requestid.Detached(context.Background())
	assert.NotEmpty(t, requestid.FromContext(ctx))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithContextExtractors(requestid.LoggerExtractor()))

	log.InfoContext(requestid.WithContext(context.Background(), "abc"), "tagged")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)

	buf.Reset()
	log.InfoContext(context.Background(), "untagged")
	assert.NotContains(t, buf.String(), "request_id")
}
