package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/dashboard"
)

// SnapshotSource captures and stores a dashboard snapshot
type SnapshotSource interface {
	Snapshot(userID string, now time.Time) (*dashboard.Summary, error)
}

// SnapshotJob stores the end-of-day dashboard snapshot so trends have a
// data point even on days nobody opens the app
type SnapshotJob struct {
	dashboards SnapshotSource
	log        zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(dashboards SnapshotSource, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		dashboards: dashboards,
		log:        log.With().Str("job", "dashboard_snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "dashboard_snapshot"
}

// Run captures today's snapshot for the default user
func (j *SnapshotJob) Run() error {
	summary, err := j.dashboards.Snapshot(domain.DefaultUserID, time.Now())
	if err != nil {
		return err
	}

	j.log.Info().Int("health_score", summary.HealthScore).Msg("Daily snapshot captured")
	return nil
}
