package di

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:               t.TempDir(),
		LogLevel:              "info",
		OpenAIBaseURL:         "https://api.openai.com/v1",
		AIModel:               "gpt-3.5-turbo",
		AdviceStreamTimeout:   120 * time.Second,
		AdviceRetentionDays:   180,
		SnapshotRetentionDays: 365,
		BackupRetentionDays:   30,
	}
}

func TestWire(t *testing.T) {
	container, err := Wire(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.CatalogDB)
	assert.NotNil(t, container.AdvisorDB)
	assert.NotNil(t, container.CacheDB)

	assert.NotNil(t, container.LedgerService)
	assert.NotNil(t, container.GoalsService)
	assert.NotNil(t, container.ProfileService)
	assert.NotNil(t, container.ProductsService)
	assert.NotNil(t, container.RecommendationService)
	assert.NotNil(t, container.FrontierSolver)
	assert.NotNil(t, container.DashboardService)
	assert.NotNil(t, container.AdvisorService)
	assert.NotNil(t, container.BackupService)
	assert.NotNil(t, container.Scheduler)
	assert.NotNil(t, container.RunRecorder)

	// no S3 configuration, remote backups stay off
	assert.Nil(t, container.ObjectStore)
	assert.Nil(t, container.RemoteBackupService)

	// no API key, chat client disabled
	assert.False(t, container.ChatClient.Enabled())

	// the embedded product catalog is seeded during wiring
	products, err := container.ProductsService.ListActive()
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}

func TestWireWithObjectStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.S3Endpoint = "http://127.0.0.1:9000"
	cfg.S3AccessKeyID = "ak"
	cfg.S3SecretAccessKey = "sk"
	cfg.S3Bucket = "finsight-backups"

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.NotNil(t, container.ObjectStore)
	assert.NotNil(t, container.RemoteBackupService)
}

func TestWireServicesAreUsable(t *testing.T) {
	container, err := Wire(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	// a full pass through the wired graph: no assessment on file means the
	// recommender falls back to the balanced defaults
	rec, err := container.RecommendationService.RecommendForUser("")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Positions)

	summary, err := container.DashboardService.Summary("", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.TotalIncome)
}
