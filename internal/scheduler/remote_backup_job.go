package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/reliability"
)

// rotationTimeout caps one remote rotation pass
const rotationTimeout = 2 * time.Minute

// BackupRotationJob deletes aged archives from the object store. Only
// registered when an object store is configured.
type BackupRotationJob struct {
	remote        *reliability.RemoteBackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupRotationJob creates a new backup rotation job
func NewBackupRotationJob(remote *reliability.RemoteBackupService, retentionDays int, log zerolog.Logger) *BackupRotationJob {
	return &BackupRotationJob{
		remote:        remote,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup_rotation").Logger(),
	}
}

// Name returns the job name
func (j *BackupRotationJob) Name() string {
	return "backup_rotation"
}

// Run deletes expired remote archives, always keeping the newest few
func (j *BackupRotationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), rotationTimeout)
	defer cancel()

	return j.remote.RotateOldBackups(ctx, j.retentionDays)
}
