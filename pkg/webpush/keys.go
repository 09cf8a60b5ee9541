package webpush

import (
	"bytes"
	"crypto/ecdh"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const authSecretLen = 16

// decodeKey accepts base64 in the URL and standard alphabets, padded or not.
func decodeKey(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// Validate checks that both VAPID keys decode and form one P-256 key pair.
// Any failure wraps ErrNotConfigured.
func (c Config) Validate() error {
	if !c.Ready() {
		return ErrNotConfigured
	}
	rawPriv, err := decodeKey(c.PrivateKey)
	if err != nil {
		return fmt.Errorf("%w: private key: %v", ErrNotConfigured, err)
	}
	priv, err := ecdh.P256().NewPrivateKey(rawPriv)
	if err != nil {
		return fmt.Errorf("%w: private key: %v", ErrNotConfigured, err)
	}
	rawPub, err := decodeKey(c.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: public key: %v", ErrNotConfigured, err)
	}
	if !bytes.Equal(priv.PublicKey().Bytes(), rawPub) {
		return fmt.Errorf("%w: public key does not match the private key", ErrNotConfigured)
	}
	return nil
}

// validateTarget rejects devices whose endpoint or keys can never be used
// to encrypt a message.
func validateTarget(t Target) error {
	u, err := url.Parse(t.Endpoint)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q", ErrInvalidSubscription, t.Endpoint)
	}
	dh, err := decodeKey(t.P256DH)
	if err != nil {
		return fmt.Errorf("%w: p256dh: %v", ErrInvalidSubscription, err)
	}
	if _, err := ecdh.P256().NewPublicKey(dh); err != nil {
		return fmt.Errorf("%w: p256dh: %v", ErrInvalidSubscription, err)
	}
	auth, err := decodeKey(t.Auth)
	if err != nil {
		return fmt.Errorf("%w: auth: %v", ErrInvalidSubscription, err)
	}
	if len(auth) != authSecretLen {
		return fmt.Errorf("%w: auth secret is %d bytes", ErrInvalidSubscription, len(auth))
	}
	return nil
}
