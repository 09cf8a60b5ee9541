package notifications_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/fingerprint"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

func TestLoginTracker_AlertsOncePerFingerprint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	tracker := notifications.NewLoginTracker(notifications.NewMemoryLoginStore(), fingerprint.NewHasher("k"), f.emitter, nil)

	id, err := tracker.Track(ctx, 1, " 203.0.113.9 ", "Firefox")
	require.NoError(t, err)
	require.NotZero(t, id)

	n, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, notifications.TypeLoginAlert, n.Type)
	assert.Equal(t, "New sign-in detected", n.Title)
	assert.Equal(t, "A new device just signed in to your account. (IP 203.0.113.9 • Firefox)", n.Body)
	assert.Equal(t, "/account/profile", n.URL)
	assert.Equal(t, "203.0.113.9", n.Data["ip"])

	id, err = tracker.Track(ctx, 1, "203.0.113.9", "Firefox")
	require.NoError(t, err)
	assert.Zero(t, id)

	id, err = tracker.Track(ctx, 1, "", "")
	require.NoError(t, err)
	n, err = f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A new device just signed in to your account.", n.Body)

	_, err = tracker.Track(ctx, 0, "", "")
	assert.ErrorIs(t, err, notifications.ErrInvalidUser)
}

func TestAdminAlerter_HandleAuditEvent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	dir := notifications.NewMemoryDirectory(
		notifications.Recipient{UserID: 10, Email: "root@example.com", IsAdmin: true},
		notifications.Recipient{UserID: 11, Email: "ops@example.com", IsAdmin: true},
		notifications.Recipient{UserID: 12, Email: "user@example.com"},
	)
	alerter := notifications.NewAdminAlerter(f.emitter, dir, nil)

	require.NoError(t, alerter.HandleAuditEvent(ctx, notifications.AuditEvent{
		Action: "TASK.DELETE", EntityID: 42, ActorEmail: "bob@example.com", IP: "198.51.100.4",
	}))

	rows, err := f.store.List(ctx, 10, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Task #42 deleted", rows[0].Title)
	assert.Equal(t, "Task #42 was removed. by bob@example.com • IP 198.51.100.4", rows[0].Body)
	assert.Equal(t, "/tasks/42", rows[0].URL)
	assert.Equal(t, "task.delete", rows[0].Data["action"])

	rows, err = f.store.List(ctx, 12, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, alerter.HandleAuditEvent(ctx, notifications.AuditEvent{
		Action: "user.create", EntityID: 5, Meta: map[string]any{"role": "manager"},
	}))
	rows, err = f.store.List(ctx, 11, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "New user provisioned", rows[0].Title)
	assert.Equal(t, "A new account was created (user #5). Role: manager.", rows[0].Body)
	assert.Equal(t, "/admin/users", rows[0].URL)

	require.NoError(t, alerter.HandleAuditEvent(ctx, notifications.AuditEvent{Action: "task.view", EntityID: 1}))
	require.NoError(t, alerter.HandleAuditEvent(ctx, notifications.AuditEvent{Action: "task.delete"}))
	assert.Equal(t, 4, f.store.Len())
}

func TestAdminAlerter_NoAdmins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alerter := notifications.NewAdminAlerter(f.emitter, notifications.NewMemoryDirectory(), nil)
	ids, err := alerter.Alert(context.Background(), notifications.TypeSystemAlert, "t", "b", "", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
