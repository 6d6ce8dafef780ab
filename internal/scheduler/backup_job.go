package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/reliability"
)

// remoteBackupTimeout caps one archive-and-upload cycle
const remoteBackupTimeout = 10 * time.Minute

// BackupJob owns the nightly backup pipeline. It writes the on-disk
// database copies and their rotation, and ships an archive to the object
// store when one is configured.
type BackupJob struct {
	backups       *reliability.BackupService
	remote        *reliability.RemoteBackupService // nil when no object store is configured
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(backups *reliability.BackupService, remote *reliability.RemoteBackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups:       backups,
		remote:        remote,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run writes today's backup copies and rotates expired days. When remote
// backups are enabled it also ships one archive to the object store.
func (j *BackupJob) Run() error {
	now := time.Now()

	if err := j.backups.CreateDailyBackup(now); err != nil {
		return err
	}

	if _, err := j.backups.RotateDailyBackups(j.retentionDays, now); err != nil {
		j.log.Error().Err(err).Msg("Failed to rotate daily backups")
		return err
	}

	if j.remote == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteBackupTimeout)
	defer cancel()

	if err := j.remote.CreateAndUpload(ctx); err != nil {
		j.log.Error().Err(err).Msg("Failed to upload remote backup")
		return err
	}
	return nil
}
