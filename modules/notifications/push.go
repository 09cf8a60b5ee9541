package notifications

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/handler"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/token"
)

const (
	intentStatus      = "status"
	intentSubscribe   = "subscribe"
	intentUnsubscribe = "unsubscribe"
	intentDisable     = "disable"
)

type pushRequest struct {
	Intent       string                `json:"intent"`
	CSRFToken    string                `json:"csrf_token"`
	Endpoint     string                `json:"endpoint"`
	Subscription *devices.Subscription `json:"subscription"`
}

type deviceView struct {
	ID         int64        `json:"id"`
	Kind       devices.Kind `json:"kind"`
	UserAgent  string       `json:"user_agent"`
	CreatedAt  time.Time    `json:"created_at"`
	LastUsedAt time.Time    `json:"last_used_at"`
}

type pushStatus struct {
	OK             bool         `json:"ok"`
	AllowPush      bool         `json:"allowPush"`
	PushReady      bool         `json:"pushReady"`
	VAPIDPublicKey string       `json:"vapidPublicKey,omitempty"`
	Devices        []deviceView `json:"devices"`
}

// decodePushRequest reads a JSON body, or form fields where subscription
// holds the JSON-encoded subscription.
func decodePushRequest(r *http.Request) (pushRequest, error) {
	var req pushRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10)).Decode(&req); err != nil {
			return req, handler.ErrBadRequest
		}
	} else {
		req.Intent = r.FormValue("intent")
		req.CSRFToken = r.FormValue(token.FormField)
		req.Endpoint = r.FormValue("endpoint")
		if raw := strings.TrimSpace(r.FormValue("subscription")); raw != "" {
			var sub devices.Subscription
			if err := json.Unmarshal([]byte(raw), &sub); err != nil {
				return req, handler.ErrInvalidSubscription
			}
			req.Subscription = &sub
		}
	}
	req.Intent = strings.ToLower(strings.TrimSpace(req.Intent))
	if req.Intent == "" {
		req.Intent = intentStatus
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	return req, nil
}

// pushIntent manages the push devices of the signed-in user. Every intent
// except status requires an anti-forgery token; all answer with the status.
func (m *Module) pushIntent(r *http.Request) handler.Response {
	req, err := decodePushRequest(r)
	if err != nil {
		return handler.JSONError(err)
	}

	sess := session(r)
	if req.Intent != intentStatus {
		if err := m.verifyCSRF(r, sess, req.CSRFToken); err != nil {
			return handler.JSONError(err)
		}
	}

	ctx := r.Context()
	userID := sess.UserID

	switch req.Intent {
	case intentStatus:
	case intentUnsubscribe:
		if req.Endpoint != "" {
			if err := m.devices.Remove(ctx, userID, req.Endpoint); err != nil {
				return handler.JSONError(err)
			}
		}
	case intentDisable:
		if req.Endpoint != "" {
			if err := m.devices.Remove(ctx, userID, req.Endpoint); err != nil {
				return handler.JSONError(err)
			}
		}
		if err := m.devices.RemoveKind(ctx, userID, devices.KindWebPush); err != nil {
			return handler.JSONError(err)
		}
		if _, err := m.resolver.SetGlobal(ctx, userID, preferences.GlobalUpdate{AllowPush: ptr(false)}); err != nil {
			return handler.JSONError(err)
		}
	case intentSubscribe:
		if req.Subscription == nil {
			return handler.JSONError(handler.ErrMissingSubscription)
		}
		ua := fingerprint.TruncateUserAgent(r.UserAgent())
		if _, err := m.devices.Subscribe(ctx, userID, *req.Subscription, ua); err != nil {
			return handler.JSONError(deviceError(err))
		}
		if _, err := m.resolver.SetGlobal(ctx, userID, preferences.GlobalUpdate{AllowPush: ptr(true)}); err != nil {
			return handler.JSONError(err)
		}
	default:
		return handler.JSONError(handler.ErrBadIntent)
	}

	return m.pushStatus(r, userID)
}

func (m *Module) pushStatus(r *http.Request, userID int64) handler.Response {
	ctx := r.Context()
	list, err := devices.PushDevices(ctx, m.devices, userID)
	if err != nil {
		return handler.JSONError(err)
	}
	views := make([]deviceView, 0, len(list))
	for _, d := range list {
		views = append(views, deviceView{
			ID:         d.ID,
			Kind:       d.Kind,
			UserAgent:  d.UserAgent,
			CreatedAt:  d.CreatedAt,
			LastUsedAt: d.LastUsedAt,
		})
	}

	st := pushStatus{
		OK:        true,
		AllowPush: m.resolver.Global(ctx, userID).AllowPush,
		PushReady: m.push.Ready(),
		Devices:   views,
	}
	if st.PushReady {
		st.VAPIDPublicKey = m.push.PublicKey
	}
	return handler.OK(st)
}

func deviceError(err error) error {
	switch {
	case errors.Is(err, devices.ErrMissingSubscription):
		return handler.ErrMissingSubscription
	case errors.Is(err, devices.ErrInvalidSubscription):
		return handler.ErrInvalidSubscription
	case errors.Is(err, devices.ErrDeviceConflict):
		return handler.ErrDeviceConflict
	}
	return err
}

func ptr[T any](v T) *T { return &v }
