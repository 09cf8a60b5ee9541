// Package stream implements the live notification stream served over
// Server-Sent Events.
//
// A connection starts with a hello event carrying the resume cursor, taken
// from the Last-Event-ID header or the cursor query parameter. The gateway
// then polls the store for rows above the cursor, emitting each row whose
// type is currently allowed on the web channel as a notify event tagged
// with the row id. Rows that are currently muted or disabled are held back
// without moving the cursor and are released once their type becomes
// eligible again. A poll that emits nothing writes a ": ping" comment.
// After Config.Duration the gateway sends bye with the final cursor and the
// client is expected to reconnect.
//
// Delivery is at least once across reconnects: clients treat repeated ids
// as no-ops.
package stream
