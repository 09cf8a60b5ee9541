package notifications

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/handler"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/stream"
)

type countResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

type peekResponse struct {
	OK    bool                         `json:"ok"`
	Items []notifications.Notification `json:"items"`
	Count int                          `json:"count"`
}

type listResponse struct {
	OK     bool                         `json:"ok"`
	Items  []notifications.Notification `json:"items"`
	Unread int                          `json:"unread"`
}

type csrfResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return n
}

func nonNil(items []notifications.Notification) []notifications.Notification {
	if items == nil {
		return []notifications.Notification{}
	}
	return items
}

func (m *Module) serveStream(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	err := m.gateway.Serve(w, r, stream.Client{
		UserID:    sess.UserID,
		SessionID: sess.SessionID,
		IP:        fingerprint.ClientIP(r),
		UserAgent: r.UserAgent(),
		Cursor:    stream.CursorFromRequest(r),
	})
	switch {
	case errors.Is(err, stream.ErrInvalidUser):
		_ = handler.JSONError(handler.ErrAuth).Render(w, r)
	case errors.Is(err, stream.ErrStreamingUnsupported):
		m.logger.LogAttrs(r.Context(), slog.LevelError, "stream unavailable", logger.Error(err))
		_ = handler.JSONError(handler.ErrServer).Render(w, r)
	case err != nil:
		m.logger.LogAttrs(r.Context(), slog.LevelWarn, "stream ended with error",
			logger.UserID(sess.UserID), logger.Error(err))
	}
}

func (m *Module) unreadCount(r *http.Request) handler.Response {
	count, err := m.store.UnreadCount(r.Context(), session(r).UserID)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.OK(countResponse{OK: true, Count: count})
}

func (m *Module) peek(r *http.Request) handler.Response {
	userID := session(r).UserID
	limit := notifications.ClampPeek(queryInt(r, "limit", notifications.DefaultPeekLimit))

	items, err := m.store.RecentUnread(r.Context(), userID, limit)
	if err != nil {
		return handler.JSONError(err)
	}
	count, err := m.store.UnreadCount(r.Context(), userID)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.OK(peekResponse{OK: true, Items: nonNil(items), Count: count})
}

func (m *Module) list(r *http.Request) handler.Response {
	userID := session(r).UserID
	limit, offset := notifications.ClampList(queryInt(r, "limit", notifications.DefaultListLimit), queryInt(r, "offset", 0))

	items, err := m.store.List(r.Context(), userID, limit, offset)
	if err != nil {
		return handler.JSONError(err)
	}
	unread, err := m.store.UnreadCount(r.Context(), userID)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.OK(listResponse{OK: true, Items: nonNil(items), Unread: unread})
}

func (m *Module) issueCSRF(r *http.Request) handler.Response {
	sess := session(r)
	tok, err := m.csrf.Issue(sess.UserID, sess.SessionID)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.OK(csrfResponse{OK: true, Token: tok})
}
