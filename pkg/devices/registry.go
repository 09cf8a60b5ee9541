package devices

import (
	"context"

	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
)

// Registry tracks the push endpoints of users.
type Registry interface {
	// Subscribe upserts a web push device for the user. An endpoint already
	// owned by another user yields ErrDeviceConflict.
	Subscribe(ctx context.Context, userID int64, sub Subscription, userAgent string) (Device, error)
	// Touch upserts a credential-less web device and bumps last_used_at.
	Touch(ctx context.Context, userID int64, endpoint, userAgent string) error
	// List returns the user's devices, most recently used first. An empty
	// kind matches every kind.
	List(ctx context.Context, userID int64, kind Kind) ([]Device, error)
	// Remove deletes the user's device with the endpoint.
	Remove(ctx context.Context, userID int64, endpoint string) error
	// RemoveKind deletes every device of the kind for the user.
	RemoveKind(ctx context.Context, userID int64, kind Kind) error
	// Delete removes a device by id. Used when delivery proves it dead.
	Delete(ctx context.Context, id int64) error
}

// PushDevices returns the user's web push devices with complete
// credentials.
func PushDevices(ctx context.Context, r Registry, userID int64) ([]Device, error) {
	all, err := r.List(ctx, userID, KindWebPush)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if d.PushReady() {
			out = append(out, d)
		}
	}
	return out, nil
}

// WebEndpoint derives the endpoint of a browser session. The same user,
// session, address and user agent always map to the same device row.
func WebEndpoint(h *fingerprint.Hasher, userID int64, sessionID, ip, userAgent string) string {
	return InternalScheme + h.Session(userID, sessionID, ip, fingerprint.TruncateUserAgent(userAgent))
}
