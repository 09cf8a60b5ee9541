// Package token signs small JSON payloads with HMAC-SHA256 and builds the
// anti-forgery tokens that guard notification mutations.
//
// Token format: base64url(payload).base64url(signature)
//
//	csrf := token.NewCSRF(secret, 2*time.Hour)
//	tok, _ := csrf.Issue(userID, sessionID)
//	err := csrf.Verify(tok, userID, sessionID)
//
// Verify returns ErrInvalidToken, ErrSignatureInvalid, ErrTokenMismatch or
// ErrTokenExpired.
package token
