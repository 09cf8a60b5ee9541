// Package jwt authenticates notification endpoints with HS256 session
// tokens built on github.com/golang-jwt/jwt/v5.
//
// The subject claim carries the numeric user id and "sid" the session id
// that anti-forgery tokens and stream device fingerprints are bound to.
// Middleware accepts a bearer header or a cookie and stores the Session in
// the request context.
package jwt
