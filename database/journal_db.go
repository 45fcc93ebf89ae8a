package database

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Run is one pipeline invocation
type Run struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	CDNTag     string  `json:"cdn_tag"`
	StartedAt  int64   `json:"started_at"`
	FinishedAt *int64  `json:"finished_at,omitempty"`
	Status     string  `json:"status"`
	Processed  int     `json:"processed"`
	Error      *string `json:"error,omitempty"`
}

// BatchEvent records what happened to one pending batch within a run
type BatchEvent struct {
	ID         int64   `json:"id"`
	RunID      string  `json:"run_id"`
	BatchName  string  `json:"batch_name"`
	Status     string  `json:"status"`
	Entries    int     `json:"entries"`
	Processed  int     `json:"processed"`
	Error      *string `json:"error,omitempty"`
	RecordedAt int64   `json:"recorded_at"`
}

// StartRun inserts a running row and returns its id
func StartRun(db Querier, kind, cdnTag string) (string, error) {
	id := uuid.NewString()
	queryBuilder := psql.Insert("pipeline_runs").
		Columns("id", "kind", "cdn_tag", "started_at", "status").
		Values(id, kind, cdnTag, time.Now().Unix(), StatusRunning)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build SQL query for StartRun: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run done or failed
func FinishRun(db Querier, runID string, processed int, runErr error) error {
	status := StatusDone
	var errMsg *string
	if runErr != nil {
		status = StatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}

	queryBuilder := psql.Update("pipeline_runs").
		Set("finished_at", time.Now().Unix()).
		Set("status", status).
		Set("processed", processed).
		Set("error", errMsg).
		Where(sq.Eq{"id": runID})

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for FinishRun: %w", err)
	}
	res, err := db.Exec(sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to finish run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// RecordBatchEvent appends a batch outcome to a run
func RecordBatchEvent(db Querier, runID, batchName string, entries, processed int, batchErr error) error {
	status := StatusDone
	var errMsg *string
	if batchErr != nil {
		status = StatusSkipped
		msg := batchErr.Error()
		errMsg = &msg
	}

	queryBuilder := psql.Insert("batch_events").
		Columns("run_id", "batch_name", "status", "entries", "processed", "error", "recorded_at").
		Values(runID, batchName, status, entries, processed, errMsg, time.Now().Unix())

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL query for RecordBatchEvent: %w", err)
	}
	if _, err := db.Exec(sqlStr, args...); err != nil {
		return fmt.Errorf("failed to record batch %s: %w", batchName, err)
	}
	return nil
}

// GetRun retrieves one run by id
func GetRun(db Querier, runID string) (Run, error) {
	var run Run
	queryBuilder := psql.Select("id", "kind", "cdn_tag", "started_at", "finished_at", "status", "processed", "error").
		From("pipeline_runs").
		Where(sq.Eq{"id": runID}).
		Limit(1)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return Run{}, fmt.Errorf("failed to build SQL query for GetRun: %w", err)
	}
	err = db.QueryRow(sqlStr, args...).Scan(&run.ID, &run.Kind, &run.CDNTag, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Processed, &run.Error)
	if err != nil {
		if err == sql.ErrNoRows {
			return Run{}, sql.ErrNoRows
		}
		return Run{}, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	return run, nil
}

// ListRecentRuns returns up to limit runs, newest first
func ListRecentRuns(db Querier, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	queryBuilder := psql.Select("id", "kind", "cdn_tag", "started_at", "finished_at", "status", "processed", "error").
		From("pipeline_runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(uint64(limit))

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListRecentRuns: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Kind, &run.CDNTag, &run.StartedAt, &run.FinishedAt, &run.Status, &run.Processed, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListBatchEvents returns the batch outcomes of a run in recording order
func ListBatchEvents(db Querier, runID string) ([]BatchEvent, error) {
	queryBuilder := psql.Select("id", "run_id", "batch_name", "status", "entries", "processed", "error", "recorded_at").
		From("batch_events").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("id ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListBatchEvents: %w", err)
	}
	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch events for %s: %w", runID, err)
	}
	defer rows.Close()

	events := []BatchEvent{}
	for rows.Next() {
		var ev BatchEvent
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.BatchName, &ev.Status, &ev.Entries, &ev.Processed, &ev.Error, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
