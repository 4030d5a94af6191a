// Package runlog records pipeline run history in a local SQLite
// database. It is observability only: failures to record are logged and
// never affect the run.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/benefits-etl/internal/model"
)

// Entry is one recorded run.
type Entry struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	ValidRows   int              `json:"valid_rows"`
	ErrorRows   int              `json:"error_rows"`
	Error       string           `json:"error,omitempty"`
	Summary     *model.RunReport `json:"summary,omitempty"`
}

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Log provides read/write access to the runs table.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the run-history database and configures WAL
// mode.
func Open(dsn string) (*Log, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}
	return &Log{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	valid_rows   INTEGER NOT NULL DEFAULT 0,
	error_rows   INTEGER NOT NULL DEFAULT 0,
	error        TEXT,
	summary      TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate applies the schema.
func (l *Log) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "runlog: migrate")
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a run.
func (l *Log) Start(ctx context.Context, runID string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		runID, StatusRunning, time.Now().UTC(),
	)
	return eris.Wrapf(err, "runlog: start run %s", runID)
}

// Complete marks a run as successfully completed with its summary.
func (l *Log) Complete(ctx context.Context, runID string, report *model.RunReport) error {
	var summaryJSON []byte
	validRows, errorRows := 0, 0
	if report != nil {
		var err error
		summaryJSON, err = json.Marshal(report)
		if err != nil {
			return eris.Wrap(err, "runlog: marshal summary")
		}
		validRows = report.ValidRows
		errorRows = report.ErrorRows
	}

	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, valid_rows = ?, error_rows = ?, summary = ? WHERE id = ?`,
		StatusComplete, time.Now().UTC(), validRows, errorRows, summaryJSON, runID,
	)
	return eris.Wrapf(err, "runlog: complete run %s", runID)
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, runID, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		StatusFailed, time.Now().UTC(), errMsg, runID,
	)
	return eris.Wrapf(err, "runlog: fail run %s", runID)
}

// List returns the most recent runs, newest first.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, status, started_at, completed_at, valid_rows, error_rows, COALESCE(error, ''), summary
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completed sql.NullTime
		var summary sql.NullString
		if err := rows.Scan(&e.ID, &e.Status, &e.StartedAt, &completed, &e.ValidRows, &e.ErrorRows, &e.Error, &summary); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		if summary.Valid && summary.String != "" {
			var report model.RunReport
			if err := json.Unmarshal([]byte(summary.String), &report); err == nil {
				e.Summary = &report
			}
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "runlog: iterate runs")
}
