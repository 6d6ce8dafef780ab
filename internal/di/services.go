package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/clients/aiadvisor"
	"github.com/finsight/finsight/internal/clients/objectstore"
	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/modules/advisor"
	"github.com/finsight/finsight/internal/modules/dashboard"
	"github.com/finsight/finsight/internal/modules/frontier"
	"github.com/finsight/finsight/internal/modules/goals"
	"github.com/finsight/finsight/internal/modules/ledger"
	"github.com/finsight/finsight/internal/modules/products"
	"github.com/finsight/finsight/internal/modules/profile"
	"github.com/finsight/finsight/internal/modules/recommendation"
	"github.com/finsight/finsight/internal/reliability"
)

// InitializeServices builds the repositories, clients and services on top of
// the open databases
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	// Repositories
	container.LedgerRepo = ledger.NewRepository(container.LedgerDB.Conn(), log)
	container.GoalRepo = goals.NewRepository(container.LedgerDB.Conn(), log)
	container.ProductRepo = products.NewRepository(container.CatalogDB.Conn(), log)
	container.QuestionnaireRepo = profile.NewQuestionnaireRepository(container.CatalogDB.Conn(), log)
	container.ProfileRepo = profile.NewRepository(container.AdvisorDB.Conn(), log)
	container.RecommendationRepo = recommendation.NewRepository(container.AdvisorDB.Conn(), log)
	container.AdviceRepo = advisor.NewRepository(container.AdvisorDB.Conn(), log)
	container.SnapshotRepo = dashboard.NewSnapshotRepository(container.CacheDB.Conn(), log)

	// Clients
	container.ChatClient = aiadvisor.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.AIModel, log)
	if !container.ChatClient.Enabled() {
		log.Warn().Msg("No AI upstream configured, advice endpoints will serve fallback text")
	}

	// Services
	container.LedgerService = ledger.NewService(container.LedgerRepo, log)
	container.GoalsService = goals.NewService(container.GoalRepo, log)
	container.ProfileService = profile.NewService(container.ProfileRepo, container.QuestionnaireRepo, log)
	container.ProductsService = products.NewService(container.ProductRepo, log)
	container.FrontierSolver = frontier.NewSolver(log)
	container.RecommendationService = recommendation.NewService(
		container.ProfileService,
		container.ProductsService,
		container.RecommendationRepo,
		recommendation.Config{},
		log,
	)
	container.DashboardService = dashboard.NewService(
		container.LedgerService,
		container.GoalsService,
		container.SnapshotRepo,
		log,
	)
	container.AdvisorService = advisor.NewService(
		container.ChatClient,
		container.DashboardService,
		container.ProfileService,
		container.ProductsService,
		container.FrontierSolver,
		container.AdviceRepo,
		advisor.Config{StreamTimeout: cfg.AdviceStreamTimeout},
		log,
	)

	// Backups
	backupDir := filepath.Join(cfg.DataDir, "backups")
	container.BackupService = reliability.NewBackupService(container.Databases(), backupDir, log)

	if cfg.RemoteBackupEnabled() {
		store, err := objectstore.NewClient(context.Background(), objectstore.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKeyID,
			SecretKey: cfg.S3SecretAccessKey,
			Bucket:    cfg.S3Bucket,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize object store client: %w", err)
		}
		container.ObjectStore = store
		container.RemoteBackupService = reliability.NewRemoteBackupService(store, container.BackupService, cfg.DataDir, log)
	} else {
		log.Info().Msg("No object store configured, remote backups disabled")
	}

	// Seed the product catalog, upserts by name so reruns are safe
	if err := container.ProductsService.Seed(cfg.ProductsFile); err != nil {
		return fmt.Errorf("failed to seed product catalog: %w", err)
	}

	return nil
}
