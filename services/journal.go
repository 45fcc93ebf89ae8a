package services

import (
	"database/sql"
	"log"

	"github.com/camden-git/wallpapersync/database"
)

// RunJournal records run and batch outcomes. a nil journal records nothing
type RunJournal interface {
	StartRun(kind, tag string) (string, error)
	RecordBatch(runID string, result BatchResult) error
	FinishRun(runID string, processed int, runErr error) error
}

// SQLJournal stores the journal in the sqlite database
type SQLJournal struct {
	DB *sql.DB
}

func NewSQLJournal(db *sql.DB) *SQLJournal {
	return &SQLJournal{DB: db}
}

func (j *SQLJournal) StartRun(kind, tag string) (string, error) {
	return database.StartRun(j.DB, kind, tag)
}

func (j *SQLJournal) RecordBatch(runID string, result BatchResult) error {
	return database.RecordBatchEvent(j.DB, runID, result.Name, result.Entries, result.Processed, result.Err)
}

func (j *SQLJournal) FinishRun(runID string, processed int, runErr error) error {
	return database.FinishRun(j.DB, runID, processed, runErr)
}

// journalRun wraps a journal so callers never have to check for nil or
// failures; journal errors are logged only
type journalRun struct {
	journal RunJournal
	id      string
}

func startJournalRun(journal RunJournal, kind, tag string) *journalRun {
	run := &journalRun{journal: journal}
	if journal == nil {
		return run
	}
	id, err := journal.StartRun(kind, tag)
	if err != nil {
		log.Printf("journal: Warning - failed to start run: %v", err)
		run.journal = nil
		return run
	}
	run.id = id
	return run
}

func (r *journalRun) batch(result BatchResult) {
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordBatch(r.id, result); err != nil {
		log.Printf("journal: Warning - failed to record batch %s: %v", result.Name, err)
	}
}

func (r *journalRun) finish(processed int, runErr error) {
	if r.journal == nil {
		return
	}
	if err := r.journal.FinishRun(r.id, processed, runErr); err != nil {
		log.Printf("journal: Warning - failed to finish run %s: %v", r.id, err)
	}
}
