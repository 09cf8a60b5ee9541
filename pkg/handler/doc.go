// Package handler turns small request functions into http.HandlerFuncs and
// provides the response types shared by the notification endpoints: JSON
// bodies, 303 redirects with a flash message, and keyed HTTP errors.
//
// Endpoints that browsers may submit as plain forms use Negotiate, which
// answers JSON to XHR or JSON-accepting clients and redirects otherwise.
package handler
