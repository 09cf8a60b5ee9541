// Package notifications mounts the HTTP surface of the notification
// center for signed-in users: the live stream, polling fallbacks, read-state
// mutations, preference settings and push device management.
//
// Requests are authenticated with a session JWT from the Authorization
// header or the session cookie. Every mutation requires an anti-forgery
// token from GET /csrf, sent as the csrf_token field or the X-CSRF-Token
// header. Read-state mutations answer JSON to XHR and JSON-accepting
// clients and redirect plain form posts back to the notifications page.
package notifications
