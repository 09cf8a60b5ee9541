// Package requestid tags each HTTP request and worker run with an id that
// is propagated through context and added to log records.
package requestid
