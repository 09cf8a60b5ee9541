package notifications

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifyhub/pkg/handler"
)

type mutation struct {
	message string
	// needsID mutations are a no-op without a positive id.
	needsID bool
	apply   func(m *Module, ctx context.Context, userID, id int64) error
}

var mutations = map[string]mutation{
	"read": {
		message: "Notification marked as read.",
		needsID: true,
		apply: func(m *Module, ctx context.Context, userID, id int64) error {
			return m.store.MarkRead(ctx, userID, id)
		},
	},
	"unread": {
		message: "Notification marked as unread.",
		needsID: true,
		apply: func(m *Module, ctx context.Context, userID, id int64) error {
			return m.store.MarkUnread(ctx, userID, id)
		},
	},
	"read-all": {
		message: "All notifications marked as read.",
		apply: func(m *Module, ctx context.Context, userID, _ int64) error {
			return m.store.MarkAllRead(ctx, userID)
		},
	},
	"delete": {
		message: "Notification removed.",
		needsID: true,
		apply: func(m *Module, ctx context.Context, userID, id int64) error {
			return m.store.Delete(ctx, userID, id)
		},
	},
}

// mutate runs one of the read-state actions and answers with the new
// unread count.
func (m *Module) mutate(r *http.Request) handler.Response {
	mut, ok := mutations[chi.URLParam(r, "action")]
	if !ok {
		return handler.NegotiateError(r, m.cfg.Page, handler.ErrBadAction)
	}

	sess := session(r)
	if err := m.verifyCSRF(r, sess, ""); err != nil {
		return handler.NegotiateError(r, m.cfg.Page, err)
	}

	ctx := r.Context()
	id, _ := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if !mut.needsID || id > 0 {
		if err := mut.apply(m, ctx, sess.UserID, id); err != nil {
			return handler.NegotiateError(r, m.cfg.Page, err)
		}
	}

	count, err := m.store.UnreadCount(ctx, sess.UserID)
	if err != nil {
		return handler.NegotiateError(r, m.cfg.Page, err)
	}
	return handler.Negotiate(r, m.cfg.Page, countResponse{OK: true, Count: count}, mut.message)
}
