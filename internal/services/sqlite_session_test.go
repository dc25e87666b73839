package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"daily-routine/internal/database"
	"daily-routine/internal/routine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteRepository(t *testing.T) *database.Repository {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "routine.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewRepository(db)
}

func newSQLiteManager(t *testing.T, repo *database.Repository, clock *testClock) *ServiceManager {
	t.Helper()
	sm := NewServiceManager(repo, clock.Today, zap.NewNop(),
		WithStoreOptions(routine.WithIDGenerator(sequentialIDs())),
	)
	t.Cleanup(func() {
		require.NoError(t, sm.Flush(context.Background()))
	})
	return sm
}

func TestSession_SQLiteRolloverSurvivesRestart(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	clock := &testClock{date: "2024-01-01"}

	sm := newSQLiteManager(t, repo, clock)
	phone := sm.OpenSession(ctx, *ann, "chat-1")
	for i := 1; i <= 8; i++ {
		_, err := phone.Add(fmt.Sprintf("Step %d", i), "⭐", "")
		require.NoError(t, err)
	}
	for _, id := range []string{"s2", "s5", "s7"} {
		_, ok := phone.Toggle(id)
		require.True(t, ok)
	}
	require.True(t, phone.MoveUp("s8"))
	flushManager(t, sm)

	// второй клиент того же пользователя: переход дня пишут обе сессии сразу
	laptop := sm.OpenSession(ctx, *ann, "chat-2")
	require.Len(t, laptop.Snapshot().Steps, 8)

	clock.Set("2024-01-02")
	assert.Equal(t, 2, sm.RolloverAll())
	flushManager(t, sm)
	phone.Close()
	laptop.Close()

	want := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s8", "s7"}

	restarted := newSQLiteManager(t, repo, clock)
	s := restarted.OpenSession(ctx, *ann, "chat-1")
	flushManager(t, restarted)

	snap := s.Snapshot()
	assert.Equal(t, "2024-01-02", snap.LastUpdated)
	assert.Equal(t, want, stepIDs(snap.Steps))
	for _, step := range snap.Steps {
		assert.False(t, step.Completed, step.ID)
	}
	assert.Equal(t, []routine.HistoryEntry{{Date: "2024-01-01", Completed: 3, Total: 8}}, snap.History)

	date, found := restarted.Sync.ReadLastUpdated(ctx, ann)
	require.True(t, found)
	assert.Equal(t, "2024-01-02", date)

	stale, err := repo.ListCollection(ctx, "users/u1/2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, stale)

	current, err := repo.ListCollection(ctx, "users/u1/2024-01-02")
	require.NoError(t, err)
	assert.Len(t, current, 8)
}

func TestSession_SQLiteConcurrentSessionsKeepEveryWrite(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	clock := &testClock{date: "2024-01-01"}
	sm := newSQLiteManager(t, repo, clock)

	users := make([]*Session, 0, 6)
	for i := 0; i < 6; i++ {
		identity := *ann
		identity.UID = fmt.Sprintf("u%d", i+1)
		users = append(users, sm.OpenSession(ctx, identity, fmt.Sprintf("chat-%d", i)))
	}
	for _, s := range users {
		for j := 0; j < 5; j++ {
			_, err := s.Add(fmt.Sprintf("Step %d", j), "⭐", "")
			require.NoError(t, err)
		}
	}
	flushManager(t, sm)

	for _, s := range users {
		steps, err := repo.ListCollection(ctx, database.Path("users", s.Identity().UID, "2024-01-01"))
		require.NoError(t, err)
		assert.Len(t, steps, 5, s.Identity().UID)
	}
}
