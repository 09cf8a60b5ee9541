package handler

import (
	"net/http"
	"strings"
)

// WantsJSON reports whether the client expects a JSON body rather than a
// redirect: XHR requests and requests accepting application/json or text/json.
func WantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := strings.ToLower(r.Header.Get("Accept"))
	return strings.Contains(accept, "application/json") || strings.Contains(accept, "text/json")
}

// Negotiate answers JSON clients with body and redirects everyone else to
// page with a flash message.
func Negotiate(r *http.Request, page string, body any, message string) Response {
	if WantsJSON(r) {
		return OK(body)
	}
	return RedirectWithFlash(page, true, message)
}

// NegotiateError is the failure counterpart of Negotiate.
func NegotiateError(r *http.Request, page string, err error) Response {
	if WantsJSON(r) {
		return JSONError(err)
	}
	return RedirectWithFlash(page, false, AsHTTPError(err).Message)
}
