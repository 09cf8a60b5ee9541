// Package devices is the registry of push endpoints per user.
//
// Browsers subscribe with a PushSubscription (endpoint plus p256dh and auth
// keys). The live stream also registers every open browser session as a
// credential-less device under an internal endpoint derived from a keyed
// fingerprint, so users can see where they are signed in. Only devices with
// complete credentials receive push; delivery workers delete devices that
// the push service reports as gone.
package devices
