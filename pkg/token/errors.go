package token

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMismatch    = errors.New("token issued for another session")
)
