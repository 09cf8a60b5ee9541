// Package webpush sends Web Push messages signed with VAPID keys.
//
// Send classifies failures for the delivery worker: ErrSubscriptionGone
// when the push service answers 404 or 410, ErrInvalidSubscription when the
// stored keys cannot be used, and *DeliveryError for everything that may
// succeed on a later attempt. Permanent reports the first two.
package webpush
