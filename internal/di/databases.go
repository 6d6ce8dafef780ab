package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/database"
)

// InitializeDatabases opens all 4 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. ledger.db - authoritative money movements
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger, // maximum safety for the money records
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
	}
	container.LedgerDB = ledgerDB

	// 2. catalog.db - product catalog and questionnaire definitions
	catalogDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "catalog.db"),
		Profile: database.ProfileStandard,
		Name:    "catalog",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize catalog database: %w", err)
	}
	container.CatalogDB = catalogDB

	// 3. advisor.db - risk profiles, recommendations, advice history
	advisorDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "advisor.db"),
		Profile: database.ProfileStandard,
		Name:    "advisor",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize advisor database: %w", err)
	}
	container.AdvisorDB = advisorDB

	// 4. cache.db - regenerable data, safe to delete at any time
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache, // maximum speed for regenerable data
		Name:    "cache",
	})
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	// Apply schemas to all databases (single source of truth)
	for _, db := range []*database.DB{ledgerDB, catalogDB, advisorDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")

	return container, nil
}
