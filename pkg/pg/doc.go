// Package pg connects to PostgreSQL through a pgx connection pool and owns
// the service schema.
//
// Connect retries until the database answers a ping. Migrate applies the
// goose migrations embedded from the migrations directory. Healthcheck
// returns a readiness check for the HTTP server.
package pg
