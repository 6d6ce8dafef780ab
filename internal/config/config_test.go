package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINSIGHT_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-3.5-turbo", cfg.AIModel)
	assert.Equal(t, 120*time.Second, cfg.AdviceStreamTimeout)
	assert.Equal(t, 180, cfg.AdviceRetentionDays)
	assert.Equal(t, 365, cfg.SnapshotRetentionDays)
	assert.Equal(t, 30, cfg.BackupRetentionDays)
	assert.False(t, cfg.AdviceUpstreamEnabled())
	assert.False(t, cfg.RemoteBackupEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FINSIGHT_DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ADVICE_STREAM_TIMEOUT_SECONDS", "30")
	t.Setenv("BACKUP_RETENTION_DAYS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.True(t, cfg.AdviceUpstreamEnabled())
	assert.Equal(t, 30*time.Second, cfg.AdviceStreamTimeout)
	assert.Equal(t, 0, cfg.BackupRetentionDays)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{AdviceStreamTimeout: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{AdviceStreamTimeout: time.Second, AdviceRetentionDays: -1}
	assert.Error(t, cfg.Validate())

	cfg = &Config{AdviceStreamTimeout: time.Second, BackupRetentionDays: -5}
	assert.Error(t, cfg.Validate())
}

func TestRemoteBackupEnabled(t *testing.T) {
	cfg := &Config{
		S3Endpoint:        "https://s3.example.com",
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
		S3Bucket:          "backups",
	}
	assert.True(t, cfg.RemoteBackupEnabled())

	cfg.S3Bucket = ""
	assert.False(t, cfg.RemoteBackupEnabled())
}
