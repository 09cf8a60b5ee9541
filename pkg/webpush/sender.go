package webpush

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

// Target is the endpoint and keys of one device.
type Target struct {
	Endpoint string
	P256DH   string
	Auth     string
}

// Sender delivers an encrypted message to one device.
type Sender interface {
	Send(ctx context.Context, t Target, payload []byte) error
}

// VAPIDSender sends through the browser push services using VAPID.
type VAPIDSender struct {
	cfg    Config
	client webpushgo.HTTPClient
}

// SenderOption configures a VAPIDSender.
type SenderOption func(*VAPIDSender)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c webpushgo.HTTPClient) SenderOption {
	return func(s *VAPIDSender) {
		if c != nil {
			s.client = c
		}
	}
}

// NewSender returns an error wrapping ErrNotConfigured when the VAPID keys
// are missing or do not form a valid key pair.
func NewSender(cfg Config, opts ...SenderOption) (*VAPIDSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &VAPIDSender{cfg: cfg, client: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send returns ErrInvalidSubscription only for device keys or endpoints
// that can never work. Other failures are a retryable *DeliveryError.
func (s *VAPIDSender) Send(ctx context.Context, t Target, payload []byte) error {
	if err := validateTarget(t); err != nil {
		return err
	}
	resp, err := webpushgo.SendNotificationWithContext(ctx, payload, &webpushgo.Subscription{
		Endpoint: t.Endpoint,
		Keys:     webpushgo.Keys{P256dh: t.P256DH, Auth: t.Auth},
	}, &webpushgo.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subject,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             int(s.cfg.TTL.Seconds()),
	})
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	return classifyStatus(resp.StatusCode)
}

func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrSubscriptionGone, code)
	}
	return &DeliveryError{StatusCode: code}
}

// GenerateKeys creates a new VAPID key pair.
func GenerateKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpushgo.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
