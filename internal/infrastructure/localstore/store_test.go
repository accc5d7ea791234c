package localstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timeweaver-api/internal/domain"
	"go.uber.org/zap"
)

func newStore(t *testing.T, path string) *TimerStore {
	t.Helper()
	s, err := NewTimerStore(path, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestTimerStore_PutListDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timers.json")
	s := newStore(t, path)
	ctx := context.Background()

	later := time.Now().Add(2 * time.Hour).UTC()
	sooner := time.Now().Add(1 * time.Hour).UTC()

	require.NoError(t, s.Put(ctx, &domain.Timer{TimerID: "1", UserID: domain.AnonymousUserID, Title: "B", TargetDate: later}))
	require.NoError(t, s.Put(ctx, &domain.Timer{TimerID: "2", UserID: domain.AnonymousUserID, Title: "A", TargetDate: sooner}))

	timers, err := s.ListByUser(ctx, domain.AnonymousUserID)
	require.NoError(t, err)
	require.Len(t, timers, 2)
	// Ascending by target date.
	assert.Equal(t, "2", timers[0].TimerID)
	assert.Equal(t, "1", timers[1].TimerID)

	require.NoError(t, s.Delete(ctx, "2"))
	timers, err = s.ListByUser(ctx, domain.AnonymousUserID)
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, "1", timers[0].TimerID)
}

func TestTimerStore_ReloadDropsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timers.json")
	snapshot := []domain.Timer{
		{TimerID: "past", UserID: domain.AnonymousUserID, Title: "A", TargetDate: time.Now().Add(-time.Hour).UTC()},
		{TimerID: "future", UserID: domain.AnonymousUserID, Title: "B", TargetDate: time.Now().Add(time.Hour).UTC()},
	}
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	s := newStore(t, path)
	timers, err := s.ListByUser(context.Background(), domain.AnonymousUserID)
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, "future", timers[0].TimerID)
}

func TestTimerStore_CorruptSnapshotResetsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timers.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := newStore(t, path)
	timers, err := s.ListByUser(context.Background(), domain.AnonymousUserID)
	require.NoError(t, err)
	assert.Empty(t, timers)
}

func TestTimerStore_SnapshotSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timers.json")
	s := newStore(t, path)
	ctx := context.Background()

	target := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, &domain.Timer{
		TimerID: "keep", UserID: domain.AnonymousUserID, Title: "Launch", TargetDate: target,
	}))

	reloaded := newStore(t, path)
	got, err := reloaded.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Title)
	assert.True(t, got.TargetDate.Equal(target))
}

func TestNotificationStore_UnreadAndAcknowledge(t *testing.T) {
	s := NewNotificationStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &domain.Notification{
		NotificationID: "n1", UserID: domain.AnonymousUserID, Message: "done", CreatedAt: time.Now(),
	}))

	unread, err := s.ListUnread(ctx, domain.AnonymousUserID)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, s.MarkAsRead(ctx, "n1"))
	unread, err = s.ListUnread(ctx, domain.AnonymousUserID)
	require.NoError(t, err)
	assert.Empty(t, unread)

	assert.ErrorIs(t, s.MarkAsRead(ctx, "missing"), domain.ErrNotFound)
}
