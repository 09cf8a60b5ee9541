package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Response renders itself onto w.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// ResponseFunc adapts a function to Response.
type ResponseFunc func(w http.ResponseWriter, r *http.Request) error

func (f ResponseFunc) Render(w http.ResponseWriter, r *http.Request) error { return f(w, r) }

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON writes body with status.
func JSON(status int, body any) Response {
	return jsonResponse{status: status, body: body}
}

// OK writes body with 200.
func OK(body any) Response {
	return JSON(http.StatusOK, body)
}

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// JSONError writes err as {ok:false, error:key} with its status.
func JSONError(err error) Response {
	httpErr := AsHTTPError(err)
	return JSON(httpErr.Code, ErrorBody{OK: false, Error: httpErr.Key})
}

type redirectResponse struct {
	target string
	code   int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.target, r.code)
	return nil
}

// Redirect answers 303 See Other to target.
func Redirect(target string) Response {
	return redirectResponse{target: target, code: http.StatusSeeOther}
}

// RedirectWithFlash redirects to page carrying a status and message in the
// query string for the page to display.
func RedirectWithFlash(page string, ok bool, message string) Response {
	u, err := url.Parse(page)
	if err != nil || !isLocalURL(u) {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	if ok {
		q.Set("status", "success")
	} else {
		q.Set("status", "error")
	}
	if message != "" {
		q.Set("message", message)
	}
	u.RawQuery = q.Encode()
	return Redirect(u.String())
}

func isLocalURL(u *url.URL) bool {
	return u.Scheme == "" && u.Host == ""
}
