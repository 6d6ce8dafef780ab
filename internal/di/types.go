// Package di provides dependency injection wiring and initialization.
//
// The Container is the single source of truth for all service instances.
// It is created by Wire() and handed to whatever surface needs the
// services, currently the server binary and its scheduler.
package di

import (
	"github.com/finsight/finsight/internal/clients/aiadvisor"
	"github.com/finsight/finsight/internal/clients/objectstore"
	"github.com/finsight/finsight/internal/database"
	"github.com/finsight/finsight/internal/modules/advisor"
	"github.com/finsight/finsight/internal/modules/dashboard"
	"github.com/finsight/finsight/internal/modules/frontier"
	"github.com/finsight/finsight/internal/modules/goals"
	"github.com/finsight/finsight/internal/modules/ledger"
	"github.com/finsight/finsight/internal/modules/products"
	"github.com/finsight/finsight/internal/modules/profile"
	"github.com/finsight/finsight/internal/modules/recommendation"
	"github.com/finsight/finsight/internal/reliability"
	"github.com/finsight/finsight/internal/scheduler"
)

// Container holds all dependencies for the application
type Container struct {
	// Databases (4-database architecture)
	// Each database uses SQLite with WAL mode and profile-specific PRAGMAs
	LedgerDB  *database.DB // Authoritative money movements (transactions, bills, goals)
	CatalogDB *database.DB // Product catalog and questionnaire definitions
	AdvisorDB *database.DB // Risk profiles, recommendations, advice history
	CacheDB   *database.DB // Regenerable data (dashboard snapshots, job runs)

	// Clients - external integrations
	ChatClient  *aiadvisor.Client   // Chat-completion upstream (disabled without API key)
	ObjectStore *objectstore.Client // S3-compatible backup target (nil when not configured)

	// Repositories - data access layer
	LedgerRepo         *ledger.Repository
	GoalRepo           *goals.Repository
	ProductRepo        *products.Repository
	QuestionnaireRepo  *profile.QuestionnaireRepository
	ProfileRepo        *profile.Repository
	RecommendationRepo *recommendation.Repository
	AdviceRepo         *advisor.Repository
	SnapshotRepo       *dashboard.SnapshotRepository

	// Services - business logic layer
	LedgerService         *ledger.Service
	GoalsService          *goals.Service
	ProfileService        *profile.Service
	ProductsService       *products.Service
	RecommendationService *recommendation.Service
	FrontierSolver        *frontier.Solver
	DashboardService      *dashboard.Service
	AdvisorService        *advisor.Service
	BackupService         *reliability.BackupService
	RemoteBackupService   *reliability.RemoteBackupService // nil when no object store is configured

	// Background jobs
	Scheduler   *scheduler.Scheduler
	RunRecorder *scheduler.RunRecorder
}

// Databases returns the open databases keyed by name
func (c *Container) Databases() map[string]*database.DB {
	dbs := make(map[string]*database.DB, 4)
	for name, db := range map[string]*database.DB{
		"ledger":  c.LedgerDB,
		"catalog": c.CatalogDB,
		"advisor": c.AdvisorDB,
		"cache":   c.CacheDB,
	} {
		if db != nil {
			dbs[name] = db
		}
	}
	return dbs
}

// Close checkpoints and closes every open database. Safe to call on a
// partially initialized container.
func (c *Container) Close() {
	// reverse of the open order
	for _, db := range []*database.DB{c.CacheDB, c.AdvisorDB, c.CatalogDB, c.LedgerDB} {
		if db == nil {
			continue
		}
		_ = db.WALCheckpoint("TRUNCATE")
		_ = db.Close()
	}
}
