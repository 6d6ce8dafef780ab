package scheduler

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/utils"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

// JobRun is one recorded job execution
type JobRun struct {
	ID         int64
	Job        string
	StartedAt  time.Time
	DurationMS int64
	Outcome    string
	Error      string
	CreatedAt  time.Time
}

// RunRecorder persists job executions to the cache database so the last
// runs survive restarts
type RunRecorder struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRecorder creates a new run recorder
func NewRunRecorder(db *sql.DB, log zerolog.Logger) *RunRecorder {
	return &RunRecorder{
		db:  db,
		log: log.With().Str("repo", "job_runs").Logger(),
	}
}

// Record stores one job execution
func (r *RunRecorder) Record(job string, startedAt time.Time, elapsed time.Duration, runErr error) error {
	outcome := outcomeOK
	errText := ""
	if runErr != nil {
		outcome = outcomeError
		errText = runErr.Error()
	}

	_, err := r.db.Exec(`
		INSERT INTO job_runs (job, started_at, duration_ms, outcome, error)
		VALUES (?, ?, ?, ?, ?)`,
		job,
		startedAt.UTC().Format("2006-01-02 15:04:05"),
		elapsed.Milliseconds(),
		outcome,
		errText,
	)
	if err != nil {
		return fmt.Errorf("failed to record job run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest executions of one job, newest first
func (r *RunRecorder) RecentRuns(job string, limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, job, started_at, duration_ms, outcome, error, created_at
		FROM job_runs
		WHERE job = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, job, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job runs: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		var startedAt, createdAt string
		if err := rows.Scan(&run.ID, &run.Job, &startedAt, &run.DurationMS, &run.Outcome, &run.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		run.StartedAt = utils.ParseSQLiteTime(startedAt)
		run.CreatedAt = utils.ParseSQLiteTime(createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteOlderThan removes runs started before the cutoff, given as
// "YYYY-MM-DD HH:MM:SS" in UTC
func (r *RunRecorder) DeleteOlderThan(cutoff string) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM job_runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete job runs: %w", err)
	}
	return res.RowsAffected()
}
