// Package reliability creates and ships consistent backups of the finsight
// databases and keeps local backup history within its retention window.
package reliability

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/database"
)

// BackupService writes point-in-time copies of every managed database under
// <backupDir>/daily/<YYYY-MM-DD>/<name>.db
type BackupService struct {
	databases map[string]*database.DB
	backupDir string
	log       zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(databases map[string]*database.DB, backupDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		backupDir: backupDir,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// DatabaseNames returns the managed database names, sorted for stable output
func (s *BackupService) DatabaseNames() []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupDatabase writes a consistent copy of one database to destPath using
// VACUUM INTO, which is safe while the database is in use
func (s *BackupService) BackupDatabase(name, destPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("unknown database %q", name)
	}
	return db.VacuumInto(destPath)
}

// CreateDailyBackup writes every database into the day's dated directory.
// Re-running on the same day replaces that day's copies.
func (s *BackupService) CreateDailyBackup(now time.Time) error {
	day := now.Format("2006-01-02")
	dir := filepath.Join(s.backupDir, "daily", day)

	// VACUUM INTO refuses to overwrite an existing file
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear daily backup directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create daily backup directory: %w", err)
	}

	start := time.Now()
	for _, name := range s.DatabaseNames() {
		s.log.Debug().Str("database", name).Msg("Backing up database")

		if err := s.BackupDatabase(name, filepath.Join(dir, name+".db")); err != nil {
			return fmt.Errorf("failed to back up %s: %w", name, err)
		}
	}

	s.log.Info().
		Str("dir", dir).
		Int("databases", len(s.databases)).
		Dur("duration_ms", time.Since(start)).
		Msg("Daily backup completed")

	return nil
}

// RotateDailyBackups deletes dated backup directories older than the
// retention window and reports how many were removed
func (s *BackupService) RotateDailyBackups(retentionDays int, now time.Time) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	dailyDir := filepath.Join(s.backupDir, "daily")
	entries, err := os.ReadDir(dailyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read daily backup directory: %w", err)
	}

	// Directory names are YYYY-MM-DD, lexicographic order is date order
	cutoff := now.AddDate(0, 0, -retentionDays).Format("2006-01-02")

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() >= cutoff {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dailyDir, entry.Name())); err != nil {
			s.log.Error().Err(err).Str("dir", entry.Name()).Msg("Failed to remove old backup")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Str("cutoff", cutoff).Msg("Rotated daily backups")
	}
	return removed, nil
}
