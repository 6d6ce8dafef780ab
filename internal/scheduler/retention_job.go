package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// jobRunRetentionDays bounds the job_runs bookkeeping table
const jobRunRetentionDays = 90

// AdvicePruner removes advice history older than the retention window
type AdvicePruner interface {
	PruneAdvice(retentionDays int, now time.Time) (int64, error)
}

// SnapshotPruner removes dashboard snapshots older than the retention window
type SnapshotPruner interface {
	PruneSnapshots(retentionDays int, now time.Time) (int64, error)
}

// RetentionConfig holds configuration for the retention job
type RetentionConfig struct {
	Advice                AdvicePruner
	Snapshots             SnapshotPruner
	Runs                  *RunRecorder
	AdviceRetentionDays   int
	SnapshotRetentionDays int
	Log                   zerolog.Logger
}

// RetentionJob trims aged rows from the advisor and cache databases
type RetentionJob struct {
	advice       AdvicePruner
	snapshots    SnapshotPruner
	runs         *RunRecorder
	adviceDays   int
	snapshotDays int
	log          zerolog.Logger
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(cfg RetentionConfig) *RetentionJob {
	return &RetentionJob{
		advice:       cfg.Advice,
		snapshots:    cfg.Snapshots,
		runs:         cfg.Runs,
		adviceDays:   cfg.AdviceRetentionDays,
		snapshotDays: cfg.SnapshotRetentionDays,
		log:          cfg.Log.With().Str("job", "retention_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "retention_cleanup"
}

// Run prunes each store in turn. A failure in one store does not stop the
// others, the first error is reported.
func (j *RetentionJob) Run() error {
	now := time.Now()
	var firstErr error

	advicePruned, err := j.advice.PruneAdvice(j.adviceDays, now)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune advice history")
		firstErr = err
	}

	snapshotsPruned, err := j.snapshots.PruneSnapshots(j.snapshotDays, now)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune dashboard snapshots")
		if firstErr == nil {
			firstErr = err
		}
	}

	var runsPruned int64
	if j.runs != nil {
		cutoff := now.UTC().AddDate(0, 0, -jobRunRetentionDays).Format("2006-01-02 15:04:05")
		runsPruned, err = j.runs.DeleteOlderThan(cutoff)
		if err != nil {
			j.log.Error().Err(err).Msg("Failed to prune job runs")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	j.log.Info().
		Int64("advice", advicePruned).
		Int64("snapshots", snapshotsPruned).
		Int64("job_runs", runsPruned).
		Msg("Retention cleanup completed")

	return firstErr
}
