package token

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Parse verifies the signature of tok and decodes its payload.
func Parse[T any](tok, secret string) (T, error) {
	var payload T

	encData, encSig, ok := strings.Cut(tok, ".")
	if !ok || encData == "" || encSig == "" {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(encData)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	if !hmac.Equal(sig, sign(data, secret)) {
		return payload, ErrSignatureInvalid
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	return payload, nil
}
