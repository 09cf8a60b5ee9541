// Package notifications stores in-app notifications and turns domain events
// into them.
//
// Domain code never writes notification or queue rows directly; it calls
// Emitter.Emit (or Broadcast / BroadcastToSubscribers). Emit resolves the
// user's effective preferences for the event type and then:
//
//   - creates nothing when the type is muted or every channel is disallowed;
//   - otherwise stores the notification, already read when the web channel
//     is disallowed, and queues one job per allowed email or push channel in
//     the same transaction.
//
// Store reads and mutations are always scoped by user id. LoginTracker and
// AdminAlerter are small producers built on the Emitter.
package notifications
