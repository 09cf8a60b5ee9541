package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/notifications"
)

func seed(t *testing.T, s *notifications.MemoryStore, user int64, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := range n {
		id, err := s.Create(context.Background(), notifications.Notification{
			UserID: user,
			Type:   "task.updated",
			Title:  "n" + string(rune('a'+i)),
		}, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestMemoryStore_ReadStateIsUserScoped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := notifications.NewMemoryStore(nil)
	mine := seed(t, s, 1, 3)
	theirs := seed(t, s, 2, 1)

	require.NoError(t, s.MarkRead(ctx, 1, theirs[0]))
	require.NoError(t, s.Delete(ctx, 1, theirs[0]))
	n, err := s.Get(ctx, theirs[0])
	require.NoError(t, err)
	assert.False(t, n.IsRead, "other users' rows are untouched")

	require.NoError(t, s.MarkRead(ctx, 1, mine[0]))
	count, err := s.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkUnread(ctx, 1, mine[0]))
	n, err = s.Get(ctx, mine[0])
	require.NoError(t, err)
	assert.False(t, n.IsRead)
	assert.Nil(t, n.ReadAt)

	require.NoError(t, s.MarkAllRead(ctx, 1))
	count, err = s.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
	count, err = s.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.Delete(ctx, 1, mine[1]))
	_, err = s.Get(ctx, mine[1])
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestMemoryStore_ListAndRecent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := notifications.NewMemoryStore(nil)
	ids := seed(t, s, 1, 5)
	require.NoError(t, s.MarkRead(ctx, 1, ids[4]))

	rows, err := s.List(ctx, 1, 2, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[3], rows[0].ID)
	assert.Equal(t, ids[2], rows[1].ID)

	rows, err = s.List(ctx, 1, 0, -5)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	rows, err = s.List(ctx, 1, 10, 50)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = s.RecentUnread(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[3], rows[0].ID, "read rows are skipped")
}

func TestMemoryStore_After(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	s := notifications.NewMemoryStore(nil).WithClock(func() time.Time { return now })

	old := seed(t, s, 1, 1)
	now = now.Add(48 * time.Hour)
	ids := seed(t, s, 1, 4)
	seed(t, s, 2, 2)

	rows, err := s.After(ctx, notifications.AfterQuery{UserID: 1, Cursor: ids[0], Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ids[1], rows[0].ID)
	assert.Equal(t, ids[3], rows[2].ID)

	rows, err = s.After(ctx, notifications.AfterQuery{UserID: 1, Limit: 10, Exclude: []int64{ids[1]}, Since: now.Add(-time.Hour)})
	require.NoError(t, err)
	got := make([]int64, len(rows))
	for i, r := range rows {
		got[i] = r.ID
	}
	assert.Equal(t, []int64{ids[0], ids[2], ids[3]}, got)
	assert.NotContains(t, got, old[0])

	rows, err = s.After(ctx, notifications.AfterQuery{UserID: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	l, o := notifications.ClampList(0, -1)
	assert.Equal(t, 20, l)
	assert.Equal(t, 0, o)
	l, _ = notifications.ClampList(500, 0)
	assert.Equal(t, 100, l)

	assert.Equal(t, 3, notifications.ClampPeek(0))
	assert.Equal(t, 10, notifications.ClampPeek(99))
	assert.Equal(t, 5, notifications.ClampPeek(5))
}
