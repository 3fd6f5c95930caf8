package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".mkrelease", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Minute)
	run := Run{ID: "run-1", StartedAt: start, FinishedAt: start.Add(10 * time.Second), Outcome: OutcomeSucceeded}
	stages := []StageRecord{
		{RunID: "run-1", Seq: 0, Stage: "readme", Outcome: OutcomeSucceeded, Duration: 3 * time.Second},
		{RunID: "run-1", Seq: 1, Stage: "convert", Outcome: OutcomeSkipped},
		{RunID: "run-1", Seq: 2, Stage: "build", Outcome: OutcomeSucceeded, Duration: 7 * time.Second},
	}
	require.NoError(t, store.RecordRun(ctx, run, stages))

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, OutcomeSucceeded, runs[0].Outcome)

	got, err := store.StagesFor(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "readme", got[0].Stage)
	assert.Equal(t, OutcomeSkipped, got[1].Outcome)
	assert.Equal(t, 7*time.Second, got[2].Duration)
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		run := Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute), FinishedAt: base.Add(time.Duration(i)*time.Minute + time.Second), Outcome: OutcomeFailed, Error: "boom"}
		require.NoError(t, store.RecordRun(ctx, run, nil))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, "boom", runs[0].Error)
}

func TestStagesForUnknownRun(t *testing.T) {
	store := openTestStore(t)
	stages, err := store.StagesFor(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, stages)
}
