package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinances/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "state", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestKVStoreScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	local, session := repo.Store(ScopeLocal), repo.Store(ScopeSession)

	require.NoError(t, local.Set(ctx, "paidNotificationIds", "[1,2]"))
	require.NoError(t, session.Set(ctx, "notificationsAcknowledged", "true"))

	v, ok, err := local.Get(ctx, "paidNotificationIds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[1,2]", v)

	_, ok, err = session.Get(ctx, "paidNotificationIds")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, local.Set(ctx, "paidNotificationIds", "[1,2,3]"))
	v, _, _ = local.Get(ctx, "paidNotificationIds")
	assert.Equal(t, "[1,2,3]", v)

	require.NoError(t, session.Clear(ctx))
	_, ok, _ = session.Get(ctx, "notificationsAcknowledged")
	assert.False(t, ok)
	_, ok, _ = local.Get(ctx, "paidNotificationIds")
	assert.True(t, ok, "clearing the session scope must not touch local entries")

	require.NoError(t, local.Remove(ctx, "paidNotificationIds"))
	require.NoError(t, local.Remove(ctx, "missing"))
}

func TestKVStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Store(ScopeLocal).Set(ctx, "k", "v"))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Store(ScopeLocal).Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestHolidayCache(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, ok, err := repo.LoadHolidays(ctx, 2024, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	hs := []core.Holiday{
		{Date: core.NewDate(2024, 12, 25), Name: "Natal", Type: "national"},
		{Date: core.NewDate(2024, 1, 1), Name: "Confraternização mundial", Type: "national"},
	}
	require.NoError(t, repo.SaveHolidays(ctx, 2024, hs))

	got, ok, err := repo.LoadHolidays(ctx, 2024, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Date.String())

	// replacing a year drops the old rows
	require.NoError(t, repo.SaveHolidays(ctx, 2024, hs[:1]))
	got, _, _ = repo.LoadHolidays(ctx, 2024, 0)
	assert.Len(t, got, 1)
}

func TestMarkEventProcessed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seen, err := repo.IsEventProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, seen)

	first, err := repo.MarkEventProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, first)

	seen, err = repo.IsEventProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, seen)

	again, err := repo.MarkEventProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestPruneProcessedEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.MarkEventProcessed(ctx, "msg-old")
	require.NoError(t, err)

	n, err := repo.PruneProcessedEvents(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.PruneProcessedEvents(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	first, err := repo.MarkEventProcessed(ctx, "msg-old")
	require.NoError(t, err)
	assert.True(t, first)
}
