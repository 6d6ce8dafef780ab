package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/scheduler"
)

// RegisterJobs builds the scheduler and registers the background jobs.
// The backup_rotation job is only registered when an object store is
// configured, everything else always runs.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.RunRecorder = scheduler.NewRunRecorder(container.CacheDB.Conn(), log)
	sched := scheduler.New(container.RunRecorder, log)

	entries := []struct {
		schedule string
		job      scheduler.Job
	}{
		{"0 55 23 * * *", scheduler.NewSnapshotJob(container.DashboardService, log)},
		{"0 0 5 * * *", scheduler.NewCatalogRefreshJob(container.ProductsService, cfg.ProductsFile, log)},
		{"0 30 0 * * *", scheduler.NewRetentionJob(scheduler.RetentionConfig{
			Advice:                container.AdvisorService,
			Snapshots:             container.DashboardService,
			Runs:                  container.RunRecorder,
			AdviceRetentionDays:   cfg.AdviceRetentionDays,
			SnapshotRetentionDays: cfg.SnapshotRetentionDays,
			Log:                   log,
		})},
		{"0 0 1 * * *", scheduler.NewBackupJob(container.BackupService, container.RemoteBackupService, cfg.BackupRetentionDays, log)},
		{"0 0 3 * * 0", scheduler.NewMaintenanceJob(container.Databases(), log)},
		{"0 0 * * * *", scheduler.NewSystemMonitorJob(cfg.DataDir, container.Databases(), log)},
	}

	if container.RemoteBackupService != nil {
		entries = append(entries, struct {
			schedule string
			job      scheduler.Job
		}{"0 30 1 * * *", scheduler.NewBackupRotationJob(container.RemoteBackupService, cfg.BackupRetentionDays, log)})
	}

	for _, entry := range entries {
		if err := sched.AddJob(entry.schedule, entry.job); err != nil {
			return fmt.Errorf("failed to register job %s: %w", entry.job.Name(), err)
		}
	}

	container.Scheduler = sched
	return nil
}
