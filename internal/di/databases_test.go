package di

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/config"
	"github.com/finsight/finsight/internal/database"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &config.Config{DataDir: tmpDir}

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.CatalogDB)
	assert.NotNil(t, container.AdvisorDB)
	assert.NotNil(t, container.CacheDB)

	assert.FileExists(t, filepath.Join(tmpDir, "ledger.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "catalog.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "advisor.db"))
	assert.FileExists(t, filepath.Join(tmpDir, "cache.db"))

	assert.Equal(t, database.ProfileLedger, container.LedgerDB.Profile())
	assert.Equal(t, database.ProfileCache, container.CacheDB.Profile())

	// schemas are applied
	var count int
	require.NoError(t, container.AdvisorDB.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'advice'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestContainerDatabases(t *testing.T) {
	container, err := InitializeDatabases(&config.Config{DataDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	dbs := container.Databases()
	assert.Len(t, dbs, 4)
	assert.Contains(t, dbs, "ledger")
	assert.Contains(t, dbs, "cache")
}

func TestContainerClosePartial(t *testing.T) {
	// Close must tolerate a container where only some databases opened
	container := &Container{}
	container.Close()
}
