package delivery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

type mockPushSender struct{ mock.Mock }

func (m *mockPushSender) Send(ctx context.Context, t webpush.Target, payload []byte) error {
	return m.Called(ctx, t, payload).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, p email.SendEmailParams) error {
	return m.Called(ctx, p).Error(0)
}

type fixture struct {
	now       time.Time
	resolver  *preferences.Resolver
	jobs      *queue.MemoryRepository
	store     *notifications.MemoryStore
	emitter   *notifications.Emitter
	devices   *devices.MemoryRegistry
	directory *notifications.MemoryDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	f.resolver = preferences.NewResolver(preferences.NewMemoryStorage(), catalog.Default(), preferences.WithClock(clock))
	f.jobs = queue.NewMemoryRepository().WithClock(clock)
	f.store = notifications.NewMemoryStore(f.jobs).WithClock(clock)
	f.emitter = notifications.NewEmitter(f.store, f.resolver, notifications.WithEmitterClock(clock))
	f.devices = devices.NewMemoryRegistry().WithClock(clock)
	f.directory = notifications.NewMemoryDirectory(notifications.Recipient{UserID: 1, Email: "ada@example.com", Name: "Ada"})
	return f
}

func ptr[T any](v T) *T { return &v }

// optIn enables every out-of-band channel for user.
func (f *fixture) optIn(t *testing.T, user int64) {
	t.Helper()
	_, err := f.resolver.SetGlobal(context.Background(), user,
		preferences.GlobalUpdate{AllowEmail: ptr(true), AllowPush: ptr(true)})
	require.NoError(t, err)
}

func (f *fixture) emit(t *testing.T, ev notifications.Event) int64 {
	t.Helper()
	id, err := f.emitter.Emit(context.Background(), ev)
	require.NoError(t, err)
	require.NotZero(t, id)
	return id
}

func (f *fixture) subscribe(t *testing.T, user int64, endpoint string) devices.Device {
	t.Helper()
	d, err := f.devices.Subscribe(context.Background(), user,
		devices.Subscription{Endpoint: endpoint, Keys: devices.Keys{P256DH: "BPk", Auth: "au"}}, "Firefox")
	require.NoError(t, err)
	return d
}

func (f *fixture) job(t *testing.T, ch catalog.Channel) queue.Job {
	t.Helper()
	for _, j := range f.jobs.Jobs() {
		if j.Channel == ch {
			return j
		}
	}
	t.Fatalf("no %s job queued", ch)
	return queue.Job{}
}
