// Package fingerprint derives keyed blake2b identifiers for browser sessions
// and sign-in clients, and extracts the client IP from proxied requests.
//
// Session fingerprints name the pseudo device that the live stream registers
// for a connected browser. Login fingerprints let the login tracker recognise
// a returning client without storing a reversible value.
package fingerprint
