package delivery_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/catalog"
	"github.com/dmitrymomot/notifyhub/pkg/delivery"
	"github.com/dmitrymomot/notifyhub/pkg/devices"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/preferences"
	"github.com/dmitrymomot/notifyhub/pkg/queue"
	"github.com/dmitrymomot/notifyhub/pkg/webpush"
)

func endpointIs(endpoint string) any {
	return mock.MatchedBy(func(t webpush.Target) bool { return t.Endpoint == endpoint })
}

func TestPushWorker_PrunesGoneDeviceAndDelivers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.optIn(t, 1)
	f.subscribe(t, 1, "https://push.example/gone")
	f.subscribe(t, 1, "https://push.example/live")
	id := f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "Disk full", URL: "/ops"})

	sender := &mockPushSender{}
	sender.On("Send", mock.Anything, endpointIs("https://push.example/gone"), mock.Anything).Return(webpush.ErrSubscriptionGone)
	sender.On("Send", mock.Anything, endpointIs("https://push.example/live"), mock.MatchedBy(func(p []byte) bool {
		var got webpush.Payload
		return json.Unmarshal(p, &got) == nil && got.NotificationID == id && got.Title == "Disk full"
	})).Return(nil)

	w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, sender, nil)
	sum, err := w.RunBatch(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, queue.Summary{Checked: 1, Sent: 1}, sum)
	assert.Equal(t, queue.StatusSent, f.job(t, catalog.Push).Status)

	left, err := f.devices.List(ctx, 1, devices.KindWebPush)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "https://push.example/live", left[0].Endpoint)
	sender.AssertExpectations(t)
}

func TestPushWorker_AllDevicesFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)
	f.subscribe(t, 1, "https://push.example/a")
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

	sender := &mockPushSender{}
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(&webpush.DeliveryError{StatusCode: 500, Err: errors.New("upstream")})

	w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, sender, nil)
	sum, err := w.RunBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Errors, 1)

	job := f.job(t, catalog.Push)
	assert.Equal(t, queue.StatusFailed, job.Status)
	assert.Equal(t, 1, job.AttemptCount)
	assert.Contains(t, job.LastError, queue.ReasonDeliveryFailed)

	left, _ := f.devices.List(context.Background(), 1, "")
	assert.Len(t, left, 1, "transient failures keep the device")
}

func TestPushWorker_Skips(t *testing.T) {
	t.Parallel()

	t.Run("no subscriptions", func(t *testing.T) {
		f := newFixture(t)
		f.optIn(t, 1)
		f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

		sender := &mockPushSender{}
		w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, sender, nil)
		sum, err := w.RunBatch(context.Background(), 10)
		require.NoError(t, err)

		assert.Equal(t, 1, sum.Skipped)
		job := f.job(t, catalog.Push)
		assert.Equal(t, queue.StatusSkipped, job.Status)
		assert.Equal(t, queue.ReasonNoSubscriptions, job.LastError)
		assert.NotNil(t, job.SentAt)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("push disabled after emission", func(t *testing.T) {
		f := newFixture(t)
		f.optIn(t, 1)
		f.subscribe(t, 1, "https://push.example/a")
		f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

		_, err := f.resolver.SetGlobal(context.Background(), 1, preferences.GlobalUpdate{AllowPush: ptr(false)})
		require.NoError(t, err)

		w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, &mockPushSender{}, nil)
		_, err = w.RunBatch(context.Background(), 10)
		require.NoError(t, err)

		assert.Equal(t, queue.ReasonPushDisabled, f.job(t, catalog.Push).LastError)
	})

	t.Run("notification missing", func(t *testing.T) {
		f := newFixture(t)
		f.optIn(t, 1)
		id := f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})
		require.NoError(t, f.store.Delete(context.Background(), 1, id))

		w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, &mockPushSender{}, nil)
		_, err := w.RunBatch(context.Background(), 10)
		require.NoError(t, err)

		assert.Equal(t, queue.ReasonNotificationMissing, f.job(t, catalog.Push).LastError)
	})
}

func TestPushWorker_NotConfigured(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

	w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, nil, nil)
	_, err := w.RunBatch(context.Background(), 10)
	require.ErrorIs(t, err, webpush.ErrNotConfigured)
	assert.Equal(t, queue.StatusPending, f.job(t, catalog.Push).Status, "nothing is claimed")
}

func TestPushWorker_BrokenVAPIDKeyKeepsDevices(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)
	f.subscribe(t, 1, "https://push.example/a")
	f.subscribe(t, 1, "https://push.example/b")
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

	pub, _, err := webpush.GenerateKeys()
	require.NoError(t, err)
	_, err = webpush.NewSender(webpush.Config{PublicKey: pub, PrivateKey: "not-a-valid-key!!"})
	require.ErrorIs(t, err, webpush.ErrNotConfigured)

	// The command layer passes a nil sender when the key pair is rejected.
	w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, nil, nil)
	_, err = w.RunBatch(context.Background(), 10)
	require.ErrorIs(t, err, webpush.ErrNotConfigured)

	left, err := f.devices.List(context.Background(), 1, devices.KindWebPush)
	require.NoError(t, err)
	assert.Len(t, left, 2)
	assert.Equal(t, queue.StatusPending, f.job(t, catalog.Push).Status)
}

func TestPushWorker_UnreachablePushServiceKeepsDevice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.optIn(t, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL + "/push"
	srv.Close()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	_, err = f.devices.Subscribe(context.Background(), 1, devices.Subscription{
		Endpoint: endpoint,
		Keys: devices.Keys{
			P256DH: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(secret),
		},
	}, "Firefox")
	require.NoError(t, err)
	f.emit(t, notifications.Event{UserID: 1, Type: "system.alert", Title: "x"})

	pub, priv, err := webpush.GenerateKeys()
	require.NoError(t, err)
	sender, err := webpush.NewSender(webpush.Config{PublicKey: pub, PrivateKey: priv, TTL: time.Minute})
	require.NoError(t, err)

	w := delivery.NewPushWorker(f.jobs, f.store, f.resolver, f.devices, sender, nil)
	sum, err := w.RunBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	left, err := f.devices.List(context.Background(), 1, devices.KindWebPush)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
