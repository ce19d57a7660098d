package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleRun(id string, startedAt time.Time) Run {
	return Run{
		ID:        id,
		Account:   "leanprover",
		Repo:      "docs",
		Branch:    "gh-pages",
		StartedAt: startedAt,
		Duration:  90 * time.Second,
		Outcome:   OutcomeSuccess,
		Commit:    "abc123",
		Files:     42,
	}
}

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now().Truncate(time.Second)
	require.NoError(t, store.Record(ctx, sampleRun("run-1", started)))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, "leanprover", got.Account)
	assert.Equal(t, "docs", got.Repo)
	assert.Equal(t, "gh-pages", got.Branch)
	assert.Equal(t, started.Unix(), got.StartedAt.Unix())
	assert.Equal(t, 90*time.Second, got.Duration)
	assert.Equal(t, OutcomeSuccess, got.Outcome)
	assert.Equal(t, "abc123", got.Commit)
	assert.Equal(t, 42, got.Files)
	assert.Empty(t, got.Error)
}

func TestSQLiteStore_RecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		run := sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Record(ctx, run))
	}

	runs, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)
	assert.Equal(t, "run-2", runs[2].ID)
}

func TestSQLiteStore_RecentDefaultLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		run := sampleRun(fmt.Sprintf("run-%02d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Record(ctx, run))
	}

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 20)
}

func TestSQLiteStore_RecordsFailedRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("run-fail", time.Now())
	run.Outcome = OutcomeFailed
	run.Commit = ""
	run.Files = 0
	run.Error = "build command exited with code 2"
	require.NoError(t, store.Record(ctx, run))

	runs, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, OutcomeFailed, runs[0].Outcome)
	assert.Empty(t, runs[0].Commit)
	assert.Equal(t, "build command exited with code 2", runs[0].Error)
}

func TestSQLiteStore_CreatesParentDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state", "nested", "history.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	require.NoError(t, store.Record(context.Background(), sampleRun("run-1", time.Now())))
}
