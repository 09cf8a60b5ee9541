package notifications

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/handler"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
)

type typeView struct {
	catalog.Type
	Effective preferences.Effective `json:"effective"`
}

type preferencesResponse struct {
	OK     bool               `json:"ok"`
	Global preferences.Global `json:"global"`
	Types  []typeView         `json:"types"`
}

type globalRequest struct {
	CSRFToken  string                    `json:"csrf_token"`
	AllowInApp *bool                     `json:"allow_in_app"`
	AllowEmail *bool                     `json:"allow_email"`
	AllowPush  *bool                     `json:"allow_push"`
	Categories map[catalog.Category]bool `json:"categories"`
}

type typeRequest struct {
	CSRFToken  string     `json:"csrf_token"`
	AllowWeb   bool       `json:"allow_web"`
	AllowEmail bool       `json:"allow_email"`
	AllowPush  bool       `json:"allow_push"`
	MuteUntil  *time.Time `json:"mute_until"`
}

type typeResponse struct {
	OK        bool                  `json:"ok"`
	Type      string                `json:"type"`
	Effective preferences.Effective `json:"effective"`
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10)).Decode(v); err != nil {
		return handler.ErrBadRequest
	}
	return nil
}

func (m *Module) preferences(r *http.Request) handler.Response {
	ctx := r.Context()
	userID := session(r).UserID

	types := m.resolver.Catalog().Types()
	views := make([]typeView, 0, len(types))
	for _, t := range types {
		views = append(views, typeView{Type: t, Effective: m.resolver.Type(ctx, userID, t.Key)})
	}
	return handler.OK(preferencesResponse{OK: true, Global: m.resolver.Global(ctx, userID), Types: views})
}

func (m *Module) updateGlobal(r *http.Request) handler.Response {
	var req globalRequest
	if err := decodeJSON(r, &req); err != nil {
		return handler.JSONError(err)
	}
	sess := session(r)
	if err := m.verifyCSRF(r, sess, req.CSRFToken); err != nil {
		return handler.JSONError(err)
	}

	g, err := m.resolver.SetGlobal(r.Context(), sess.UserID, preferences.GlobalUpdate{
		AllowInApp: req.AllowInApp,
		AllowEmail: req.AllowEmail,
		AllowPush:  req.AllowPush,
		Categories: req.Categories,
	})
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.OK(preferencesResponse{OK: true, Global: g, Types: []typeView{}})
}

func (m *Module) updateType(r *http.Request) handler.Response {
	typ := strings.TrimSpace(chi.URLParam(r, "type"))
	if _, ok := m.resolver.Catalog().Lookup(typ); !ok {
		return handler.JSONError(handler.ErrNotFound)
	}

	var req typeRequest
	if err := decodeJSON(r, &req); err != nil {
		return handler.JSONError(err)
	}
	sess := session(r)
	if err := m.verifyCSRF(r, sess, req.CSRFToken); err != nil {
		return handler.JSONError(err)
	}

	ctx := r.Context()
	err := m.resolver.SetType(ctx, sess.UserID, typ, preferences.TypeOverride{
		AllowWeb:   req.AllowWeb,
		AllowEmail: req.AllowEmail,
		AllowPush:  req.AllowPush,
		MuteUntil:  req.MuteUntil,
	})
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.OK(typeResponse{OK: true, Type: typ, Effective: m.resolver.Type(ctx, sess.UserID, typ)})
}
