package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const (
	// FormField and Header carry the anti-forgery token on mutations.
	FormField = "csrf_token"
	Header    = "X-CSRF-Token"
)

type csrfPayload struct {
	UserID    int64  `json:"u"`
	SessionID string `json:"s"`
	Nonce     string `json:"n"`
	ExpiresAt int64  `json:"e"`
}

// CSRF issues and verifies anti-forgery tokens bound to a user session.
type CSRF struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewCSRF returns a CSRF issuer. A non-positive ttl defaults to two hours.
func NewCSRF(secret string, ttl time.Duration) *CSRF {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &CSRF{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.
func (c *CSRF) WithClock(now func() time.Time) *CSRF {
	cp := *c
	cp.now = now
	return &cp
}

// Issue returns a fresh token for the session.
func (c *CSRF) Issue(userID int64, sessionID string) (string, error) {
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return Generate(csrfPayload{
		UserID:    userID,
		SessionID: sessionID,
		Nonce:     base64.RawURLEncoding.EncodeToString(nonce),
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	}, c.secret)
}

// Verify checks that tok was issued for this session and has not expired.
func (c *CSRF) Verify(tok string, userID int64, sessionID string) error {
	p, err := Parse[csrfPayload](tok, c.secret)
	if err != nil {
		return err
	}
	if p.UserID != userID || p.SessionID != sessionID {
		return ErrTokenMismatch
	}
	if c.now().Unix() >= p.ExpiresAt {
		return ErrTokenExpired
	}
	return nil
}
