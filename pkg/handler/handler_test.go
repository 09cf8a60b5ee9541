package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/handler"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

func TestWantsJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{name: "plain form", want: false},
		{name: "xhr", headers: map[string]string{"X-Requested-With": "XMLHttpRequest"}, want: true},
		{name: "xhr lowercase", headers: map[string]string{"X-Requested-With": "xmlhttprequest"}, want: true},
		{name: "accept json", headers: map[string]string{"Accept": "application/json, text/plain"}, want: true},
		{name: "accept text json", headers: map[string]string{"Accept": "Text/JSON"}, want: true},
		{name: "accept html", headers: map[string]string{"Accept": "text/html"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, handler.WantsJSON(r))
		})
	}
}

func TestNegotiate(t *testing.T) {
	t.Parallel()

	t.Run("json client", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()

		require.NoError(t, handler.Negotiate(r, "/notifications", map[string]any{"ok": true, "count": 3}, "Done.").Render(rec, r))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true,"count":3}`, rec.Body.String())
	})

	t.Run("form client", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, handler.Negotiate(r, "/notifications", nil, "Done.").Render(rec, r))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/notifications", loc.Path)
		assert.Equal(t, "success", loc.Query().Get("status"))
		assert.Equal(t, "Done.", loc.Query().Get("message"))
	})

	t.Run("error json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("X-Requested-With", "XMLHttpRequest")
		rec := httptest.NewRecorder()

		require.NoError(t, handler.NegotiateError(r, "/notifications", handler.ErrCSRF).Render(rec, r))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"csrf"}`, rec.Body.String())
	})

	t.Run("error redirect", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, handler.NegotiateError(r, "/notifications", handler.ErrBadAction).Render(rec, r))

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "error", loc.Query().Get("status"))
		assert.Equal(t, handler.ErrBadAction.Message, loc.Query().Get("message"))
	})

	t.Run("external page falls back to root", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, handler.Negotiate(r, "https://evil.example/x", nil, "").Render(rec, r))
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Empty(t, loc.Host)
		assert.Equal(t, "/", loc.Path)
	})
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, handler.ErrAuth, handler.AsHTTPError(handler.ErrAuth))
	assert.Equal(t, handler.ErrCSRF, handler.AsHTTPError(errors.Join(errors.New("ctx"), handler.ErrCSRF)))
	assert.Equal(t, handler.ErrServer, handler.AsHTTPError(errors.New("boom")))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("renders response", func(t *testing.T) {
		h := handler.Wrap(func(*http.Request) handler.Response {
			return handler.OK(map[string]int{"count": 1})
		}, logger.Nop())

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		var body map[string]int
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body["count"])
	})

	t.Run("nil response", func(t *testing.T) {
		h := handler.Wrap(func(*http.Request) handler.Response { return nil }, logger.Nop())

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"server"}`, rec.Body.String())
	})
}
