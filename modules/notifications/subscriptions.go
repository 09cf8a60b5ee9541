package notifications

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/handler"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/token"
)

type subscriptionRequest struct {
	Intent     string   `json:"intent"`
	CSRFToken  string   `json:"csrf_token"`
	Event      string   `json:"event"`
	EntityType string   `json:"entity_type"`
	EntityID   int64    `json:"entity_id"`
	Channels   []string `json:"channels"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func decodeSubscriptionRequest(r *http.Request) (subscriptionRequest, error) {
	var req subscriptionRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 16<<10)).Decode(&req); err != nil {
			return req, handler.ErrBadRequest
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, handler.ErrBadRequest
		}
		req.Intent = r.FormValue("intent")
		req.CSRFToken = r.FormValue(token.FormField)
		req.Event = r.FormValue("event")
		req.EntityType = r.FormValue("entity_type")
		req.EntityID, _ = strconv.ParseInt(r.FormValue("entity_id"), 10, 64)
		req.Channels = r.Form["channels"]
	}
	req.Intent = strings.ToLower(strings.TrimSpace(req.Intent))
	req.Event = strings.TrimSpace(req.Event)
	req.EntityType = strings.TrimSpace(req.EntityType)
	if req.Event == "" {
		return req, handler.ErrBadRequest
	}
	return req, nil
}

// subscribe follows or unfollows an event, optionally on one entity.
func (m *Module) subscribe(r *http.Request) handler.Response {
	req, err := decodeSubscriptionRequest(r)
	if err != nil {
		return handler.NegotiateError(r, m.cfg.Page, err)
	}
	sess := session(r)
	if err := m.verifyCSRF(r, sess, req.CSRFToken); err != nil {
		return handler.NegotiateError(r, m.cfg.Page, err)
	}

	var entityType *string
	var entityID *int64
	if req.EntityType != "" {
		entityType = &req.EntityType
	}
	if req.EntityID > 0 {
		entityID = &req.EntityID
	}

	ctx := r.Context()
	switch req.Intent {
	case intentSubscribe, "":
		chs := make([]catalog.Channel, 0, len(req.Channels))
		for _, s := range req.Channels {
			ch, err := catalog.ParseChannel(s)
			if err != nil {
				return handler.NegotiateError(r, m.cfg.Page, handler.ErrBadRequest)
			}
			chs = append(chs, ch)
		}
		err = m.subscriptions.Subscribe(ctx, notifications.Subscription{
			UserID:     sess.UserID,
			EntityType: entityType,
			EntityID:   entityID,
			Event:      req.Event,
			Channels:   chs,
		})
		if err != nil {
			return handler.NegotiateError(r, m.cfg.Page, err)
		}
		return handler.Negotiate(r, m.cfg.Page, okResponse{OK: true}, "Subscribed.")
	case intentUnsubscribe:
		if err := m.subscriptions.Unsubscribe(ctx, sess.UserID, entityType, entityID, req.Event); err != nil {
			return handler.NegotiateError(r, m.cfg.Page, err)
		}
		return handler.Negotiate(r, m.cfg.Page, okResponse{OK: true}, "Unsubscribed.")
	default:
		return handler.NegotiateError(r, m.cfg.Page, handler.ErrBadIntent)
	}
}
