package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	runID, err := StartRun(db, "process", "v1.0")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := GetRun(db, runID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, RecordBatchEvent(db, runID, "001.json", 3, 2, nil))
	require.NoError(t, RecordBatchEvent(db, runID, "002.json", 0, 0, errors.New("bad json")))
	require.NoError(t, FinishRun(db, runID, 2, nil))

	run, err = GetRun(db, runID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, run.Status)
	assert.Equal(t, 2, run.Processed)
	assert.NotNil(t, run.FinishedAt)
	assert.Nil(t, run.Error)

	events, err := ListBatchEvents(db, runID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "001.json", events[0].BatchName)
	assert.Equal(t, StatusDone, events[0].Status)
	assert.Equal(t, StatusSkipped, events[1].Status)
	require.NotNil(t, events[1].Error)
	assert.Equal(t, "bad json", *events[1].Error)
}

func TestFailedRunAndListing(t *testing.T) {
	db := openTestDB(t)

	first, err := StartRun(db, "process", "v1")
	require.NoError(t, err)
	require.NoError(t, FinishRun(db, first, 0, errors.New("metadata directory does not exist")))

	second, err := StartRun(db, "bing-sync", "")
	require.NoError(t, err)

	runs, err := ListRecentRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, StatusFailed, runs[1].Status)

	_, err = GetRun(db, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.ErrorIs(t, FinishRun(db, "missing", 0, nil), sql.ErrNoRows)
}

func TestSortOptions(t *testing.T) {
	assert.True(t, IsValidSortOrder(DefaultSortOrder))
	assert.True(t, IsValidSortOrder(SortModifiedDesc))
	assert.False(t, IsValidSortOrder("filename_asc"))
}
