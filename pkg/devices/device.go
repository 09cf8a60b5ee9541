package devices

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind is the push transport of a device.
type Kind string

const (
	KindWebPush Kind = "webpush"
	KindFCM     Kind = "fcm"
	KindAPNS    Kind = "apns"
)

// InternalScheme prefixes endpoints of browser sessions registered by the
// live stream. They carry no credentials and never receive push.
const InternalScheme = "internal-webpush://"

// Device is a push-capable endpoint of a user.
type Device struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Kind       Kind      `json:"kind"`
	Endpoint   string    `json:"-"`
	P256DH     string    `json:"-"`
	Auth       string    `json:"-"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// PushReady reports whether the device has complete web push credentials.
func (d Device) PushReady() bool {
	return d.Endpoint != "" && d.P256DH != "" && d.Auth != "" && !strings.HasPrefix(d.Endpoint, InternalScheme)
}

// Subscription is a browser PushSubscription as posted by the client.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Keys holds the client public key and auth secret. Both the
// {publicKey, authSecret} and the browser-native {p256dh, auth} spellings
// are accepted.
type Keys struct {
	P256DH string `json:"p256dh"`
	Auth   string `json:"auth"`
}

func (k *Keys) UnmarshalJSON(data []byte) error {
	var raw struct {
		P256DH     string `json:"p256dh"`
		Auth       string `json:"auth"`
		PublicKey  string `json:"publicKey"`
		AuthSecret string `json:"authSecret"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	k.P256DH = strings.TrimSpace(firstNonEmpty(raw.P256DH, raw.PublicKey))
	k.Auth = strings.TrimSpace(firstNonEmpty(raw.Auth, raw.AuthSecret))
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Validate rejects subscriptions missing the endpoint or a key.
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Endpoint) == "" || s.Keys.P256DH == "" || s.Keys.Auth == "" {
		return ErrInvalidSubscription
	}
	if strings.HasPrefix(s.Endpoint, InternalScheme) {
		return ErrInvalidSubscription
	}
	return nil
}
