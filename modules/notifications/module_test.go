package notifications_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	module "github.com/dmitrymomot/notifyhub/modules/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/jwt"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/stream"
	"github.com/dmitrymomot/notifyhub/pkg/token"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

type env struct {
	srv      http.Handler
	store    *notifications.MemoryStore
	resolver *preferences.Resolver
	devices  *devices.MemoryRegistry
	subs     *notifications.MemorySubscriptions
	auth     *jwt.Service
	csrf     *token.CSRF
	bearer   string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	auth, err := jwt.New(jwt.Config{Secret: "jwt-secret", Issuer: "notifyhub", TTL: time.Hour})
	require.NoError(t, err)

	e := &env{
		store:    notifications.NewMemoryStore(nil),
		resolver: preferences.NewResolver(preferences.NewMemoryStorage(), catalog.Default()),
		devices:  devices.NewMemoryRegistry(),
		subs:     notifications.NewMemorySubscriptions(),
		auth:     auth,
		csrf:     token.NewCSRF("csrf-secret", time.Hour),
	}
	e.bearer, err = auth.Issue(jwt.Session{UserID: 1, SessionID: "s1"})
	require.NoError(t, err)

	cfg := stream.DefaultConfig()
	cfg.Duration = 50 * time.Millisecond
	cfg.PollInterval = time.Millisecond
	gw := stream.NewGateway(e.store, e.resolver, cfg)

	e.srv = module.New(module.Config{Page: "/inbox"}, module.Deps{
		Store:         e.store,
		Resolver:      e.resolver,
		Devices:       e.devices,
		Subscriptions: e.subs,
		Gateway:       gw,
		Auth:          auth,
		CSRF:          e.csrf,
		Push:          webpush.Config{PublicKey: "pub", PrivateKey: "priv"},
	}).Handle()
	return e
}

func (e *env) csrfToken(t *testing.T) string {
	t.Helper()
	tok, err := e.csrf.Issue(1, "s1")
	require.NoError(t, err)
	return tok
}

func (e *env) do(r *http.Request) *httptest.ResponseRecorder {
	if r.Header.Get("Authorization") == "" {
		r.Header.Set("Authorization", "Bearer "+e.bearer)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, r)
	return rec
}

func (e *env) seed(t *testing.T, userID int64, title string) int64 {
	t.Helper()
	id, err := e.store.Create(context.Background(), notifications.Notification{UserID: userID, Type: "task.assigned", Title: title}, nil)
	require.NoError(t, err)
	return id
}

func form(target string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func jsonRequest(target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(data)))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	r := httptest.NewRequest(http.MethodGet, "/unread-count", nil)
	r.Header.Set("Authorization", "Bearer nope")
	r.Header.Set("Accept", "application/json")
	rec := e.do(r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"auth"}`, rec.Body.String())
}

func TestReadEndpoints(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	for i := range 5 {
		e.seed(t, 1, "n"+string(rune('a'+i)))
	}
	e.seed(t, 2, "foreign")

	rec := e.do(httptest.NewRequest(http.MethodGet, "/unread-count", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"count":5}`, rec.Body.String())

	rec = e.do(httptest.NewRequest(http.MethodGet, "/peek", nil))
	body := decode(t, rec)
	assert.Len(t, body["items"], notifications.DefaultPeekLimit)
	assert.EqualValues(t, 5, body["count"])

	rec = e.do(httptest.NewRequest(http.MethodGet, "/peek?limit=50", nil))
	assert.Len(t, decode(t, rec)["items"], 5)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/?limit=2&offset=1", nil))
	body = decode(t, rec)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "nd", items[0].(map[string]any)["title"], "newest first")
	assert.EqualValues(t, 5, body["unread"])
}

func TestMutations(t *testing.T) {
	t.Parallel()

	t.Run("json client marks read", func(t *testing.T) {
		e := newEnv(t)
		id := e.seed(t, 1, "a")
		e.seed(t, 1, "b")

		r := form("/read", url.Values{"id": {itoa(id)}, token.FormField: {e.csrfToken(t)}})
		r.Header.Set("X-Requested-With", "XMLHttpRequest")
		rec := e.do(r)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true,"count":1}`, rec.Body.String())
	})

	t.Run("form client is redirected", func(t *testing.T) {
		e := newEnv(t)
		e.seed(t, 1, "a")

		rec := e.do(form("/read-all", url.Values{token.FormField: {e.csrfToken(t)}}))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/inbox", loc.Path)
		assert.Equal(t, "success", loc.Query().Get("status"))
		assert.Equal(t, "All notifications marked as read.", loc.Query().Get("message"))
	})

	t.Run("header token", func(t *testing.T) {
		e := newEnv(t)
		id := e.seed(t, 1, "a")

		r := form("/delete", url.Values{"id": {itoa(id)}})
		r.Header.Set(token.Header, e.csrfToken(t))
		r.Header.Set("Accept", "application/json")
		rec := e.do(r)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, e.store.Len())
	})

	t.Run("foreign row untouched", func(t *testing.T) {
		e := newEnv(t)
		id := e.seed(t, 2, "theirs")

		r := form("/delete", url.Values{"id": {itoa(id)}, token.FormField: {e.csrfToken(t)}})
		r.Header.Set("Accept", "application/json")
		rec := e.do(r)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, e.store.Len())
	})

	t.Run("missing csrf", func(t *testing.T) {
		e := newEnv(t)
		r := form("/read-all", url.Values{})
		r.Header.Set("Accept", "application/json")
		rec := e.do(r)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"csrf"}`, rec.Body.String())
	})

	t.Run("token of another session", func(t *testing.T) {
		e := newEnv(t)
		tok, err := e.csrf.Issue(1, "other")
		require.NoError(t, err)

		r := form("/read-all", url.Values{token.FormField: {tok}})
		r.Header.Set("Accept", "application/json")
		assert.Equal(t, http.StatusUnprocessableEntity, e.do(r).Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		e := newEnv(t)
		r := form("/archive", url.Values{token.FormField: {e.csrfToken(t)}})
		r.Header.Set("Accept", "application/json")
		rec := e.do(r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"bad_action"}`, rec.Body.String())
	})
}

func TestPushIntents(t *testing.T) {
	t.Parallel()

	sub := map[string]any{
		"endpoint": "https://push.example/abc",
		"keys":     map[string]string{"publicKey": "BPk", "authSecret": "au"},
	}

	t.Run("status needs no token", func(t *testing.T) {
		e := newEnv(t)
		rec := e.do(jsonRequest("/push", map[string]any{"intent": "status"}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true,"allowPush":false,"pushReady":true,"vapidPublicKey":"pub","devices":[]}`, rec.Body.String())
	})

	t.Run("subscribe then disable", func(t *testing.T) {
		e := newEnv(t)
		ctx := context.Background()

		rec := e.do(jsonRequest("/push", map[string]any{"intent": "subscribe", "csrf_token": e.csrfToken(t), "subscription": sub}))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["allowPush"])
		require.Len(t, body["devices"], 1)
		assert.True(t, e.resolver.Global(ctx, 1).AllowPush)

		rec = e.do(jsonRequest("/push", map[string]any{"intent": "disable", "csrf_token": e.csrfToken(t)}))
		require.Equal(t, http.StatusOK, rec.Code)
		body = decode(t, rec)
		assert.Equal(t, false, body["allowPush"])
		assert.Empty(t, body["devices"])
	})

	t.Run("unsubscribe one endpoint", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.devices.Subscribe(context.Background(), 1,
			devices.Subscription{Endpoint: "https://push.example/abc", Keys: devices.Keys{P256DH: "k", Auth: "a"}}, "")
		require.NoError(t, err)

		rec := e.do(jsonRequest("/push", map[string]any{"intent": "unsubscribe", "csrf_token": e.csrfToken(t), "endpoint": "https://push.example/abc"}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode(t, rec)["devices"])
	})

	t.Run("errors", func(t *testing.T) {
		e := newEnv(t)
		tests := []struct {
			name string
			body map[string]any
			code int
			key  string
		}{
			{"no token", map[string]any{"intent": "subscribe", "subscription": sub}, http.StatusUnprocessableEntity, "csrf"},
			{"bad intent", map[string]any{"intent": "explode", "csrf_token": e.csrfToken(t)}, http.StatusBadRequest, "bad_intent"},
			{"missing subscription", map[string]any{"intent": "subscribe", "csrf_token": e.csrfToken(t)}, http.StatusUnprocessableEntity, "missing_subscription"},
			{"incomplete subscription", map[string]any{"intent": "subscribe", "csrf_token": e.csrfToken(t),
				"subscription": map[string]any{"endpoint": "https://push.example/x"}}, http.StatusUnprocessableEntity, "invalid_subscription"},
		}
		for _, tt := range tests {
			rec := e.do(jsonRequest("/push", tt.body))
			assert.Equal(t, tt.code, rec.Code, tt.name)
			assert.Equal(t, tt.key, decode(t, rec)["error"], tt.name)
		}
	})

	t.Run("endpoint of another user", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.devices.Subscribe(context.Background(), 2,
			devices.Subscription{Endpoint: "https://push.example/abc", Keys: devices.Keys{P256DH: "k", Auth: "a"}}, "")
		require.NoError(t, err)

		rec := e.do(jsonRequest("/push", map[string]any{"intent": "subscribe", "csrf_token": e.csrfToken(t), "subscription": sub}))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "device_conflict", decode(t, rec)["error"])
	})
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	rec := e.do(jsonRequest("/preferences", map[string]any{"csrf_token": e.csrfToken(t), "allow_email": true}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, e.resolver.Global(ctx, 1).AllowEmail)

	rec = e.do(jsonRequest("/preferences/system.alert", map[string]any{"csrf_token": e.csrfToken(t), "allow_web": true, "allow_email": false}))
	require.Equal(t, http.StatusOK, rec.Code)
	eff := decode(t, rec)["effective"].(map[string]any)
	assert.Equal(t, true, eff["allow_web"])
	assert.Equal(t, false, eff["allow_email"])

	rec = e.do(jsonRequest("/preferences/made.up", map[string]any{"csrf_token": e.csrfToken(t)}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/preferences", nil))
	body := decode(t, rec)
	assert.Len(t, body["types"], len(catalog.Default().Types()))
}

func TestStreamEndpoint(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.seed(t, 1, "hello")

	r := httptest.NewRequest(http.MethodGet, "/stream", nil)
	r.Header.Set("Last-Event-ID", "0")
	rec := e.do(r)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: hello\n")
	assert.Contains(t, rec.Body.String(), "event: notify\nid: 1\n")
	assert.Contains(t, rec.Body.String(), "event: bye\n")
}

// noFlushWriter hides the recorder's Flush method.
type noFlushWriter struct {
	rec *httptest.ResponseRecorder
}

func (w noFlushWriter) Header() http.Header         { return w.rec.Header() }
func (w noFlushWriter) Write(b []byte) (int, error) { return w.rec.Write(b) }
func (w noFlushWriter) WriteHeader(code int)        { w.rec.WriteHeader(code) }

func TestStreamEndpoint_WriterCannotFlush(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	r := httptest.NewRequest(http.MethodGet, "/stream", nil)
	r.Header.Set("Authorization", "Bearer "+e.bearer)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(noFlushWriter{rec: rec}, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"server"}`, rec.Body.String())
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func TestSubscriptions(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	rec := e.do(jsonRequest("/subscriptions", map[string]any{
		"intent":      "subscribe",
		"csrf_token":  e.csrfToken(t),
		"event":       "task.updated",
		"entity_type": "task",
		"entity_id":   9,
		"channels":    []string{"web", "push"},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	typ, id := "task", int64(9)
	users, err := e.subs.Subscribers(ctx, "task.updated", &typ, &id)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, users)

	rec = e.do(form("/subscriptions", url.Values{
		"intent":        {"unsubscribe"},
		token.FormField: {e.csrfToken(t)},
		"event":         {"task.updated"},
		"entity_type":   {"task"},
		"entity_id":     {"9"},
	}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	users, err = e.subs.Subscribers(ctx, "task.updated", &typ, &id)
	require.NoError(t, err)
	assert.Empty(t, users)

	t.Run("unknown channel", func(t *testing.T) {
		rec := e.do(jsonRequest("/subscriptions", map[string]any{
			"csrf_token": e.csrfToken(t),
			"event":      "task.updated",
			"channels":   []string{"sms"},
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing event", func(t *testing.T) {
		rec := e.do(jsonRequest("/subscriptions", map[string]any{"csrf_token": e.csrfToken(t)}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		rec := e.do(jsonRequest("/subscriptions", map[string]any{"event": "task.updated", "csrf_token": "x"}))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("bad intent", func(t *testing.T) {
		rec := e.do(jsonRequest("/subscriptions", map[string]any{
			"intent":     "mute",
			"csrf_token": e.csrfToken(t),
			"event":      "task.updated",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"bad_intent"}`, rec.Body.String())
	})
}
