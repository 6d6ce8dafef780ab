package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/database"
)

// healthCheckTimeout bounds the integrity check of a single database
const healthCheckTimeout = 2 * time.Minute

// MaintenanceJob keeps the databases healthy. It integrity-checks and
// WAL-truncates every store and vacuums the regenerable caches.
type MaintenanceJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases map[string]*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run checks every database in turn. Corruption of any database is
// reported as a job failure, the remaining steps still run.
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting database maintenance")
	start := time.Now()

	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	var firstErr error
	for _, name := range names {
		db := j.databases[name]
		if db == nil {
			j.log.Warn().Str("database", name).Msg("Database not initialized, skipping")
			continue
		}

		if err := j.maintainDatabase(name, db); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Database maintenance failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	j.log.Info().
		Dur("duration", time.Since(start)).
		Msg("Database maintenance completed")

	return firstErr
}

func (j *MaintenanceJob) maintainDatabase(name string, db *database.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		return err
	}
	j.log.Debug().Str("database", name).Msg("Database integrity OK")

	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
	}

	// Only caches get vacuumed, they churn. The ledger is append-mostly
	// and VACUUM would hold it locked for no gain.
	if db.Profile() == database.ProfileCache {
		j.vacuumDatabase(name, db)
	}

	if stats, err := db.GetStats(); err == nil {
		j.log.Debug().
			Str("database", name).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Int64("freelist_count", stats.FreelistCount).
			Msg("Database stats")
	}

	return nil
}

func (j *MaintenanceJob) vacuumDatabase(name string, db *database.DB) {
	var sizeBefore int64
	if stats, err := db.GetStats(); err == nil {
		sizeBefore = stats.SizeBytes
	}

	if err := db.Vacuum(); err != nil {
		j.log.Warn().Err(err).Str("database", name).Msg("Vacuum failed")
		return
	}

	var sizeAfter int64
	if stats, err := db.GetStats(); err == nil {
		sizeAfter = stats.SizeBytes
	}

	j.log.Info().
		Str("database", name).
		Int64("size_before", sizeBefore).
		Int64("size_after", sizeAfter).
		Msg("Database vacuumed")
}
