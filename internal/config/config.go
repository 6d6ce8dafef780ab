// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	DevMode  bool

	// Advice upstream (OpenAI-compatible chat completions API)
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	AIModel             string
	AdviceStreamTimeout time.Duration // hard wall-clock budget per advice stream

	ProductsFile string // optional YAML file overriding the embedded product catalog

	SchedulerEnabled      bool
	AdviceRetentionDays   int
	SnapshotRetentionDays int
	BackupRetentionDays   int // 0 = keep everything

	// Object-store backup target (all empty = remote backups disabled)
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. FINSIGHT_DATA_DIR environment variable
	// 2. ./data fallback
	// Always resolved to an absolute path and created.
	dataDir := getEnv("FINSIGHT_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AIModel:             getEnv("AI_MODEL", "gpt-3.5-turbo"),
		AdviceStreamTimeout: time.Duration(getEnvAsInt("ADVICE_STREAM_TIMEOUT_SECONDS", 120)) * time.Second,

		ProductsFile: getEnv("PRODUCTS_FILE", ""),

		SchedulerEnabled:      getEnvAsBool("SCHEDULER_ENABLED", true),
		AdviceRetentionDays:   getEnvAsInt("ADVICE_RETENTION_DAYS", 180),
		SnapshotRetentionDays: getEnvAsInt("SNAPSHOT_RETENTION_DAYS", 365),
		BackupRetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),

		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration values are usable
func (c *Config) Validate() error {
	if c.AdviceStreamTimeout <= 0 {
		return fmt.Errorf("ADVICE_STREAM_TIMEOUT_SECONDS must be positive")
	}
	if c.AdviceRetentionDays < 0 {
		return fmt.Errorf("ADVICE_RETENTION_DAYS must not be negative")
	}
	if c.SnapshotRetentionDays < 0 {
		return fmt.Errorf("SNAPSHOT_RETENTION_DAYS must not be negative")
	}
	if c.BackupRetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative")
	}
	return nil
}

// RemoteBackupEnabled reports whether an object-store backup target is configured
func (c *Config) RemoteBackupEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != "" && c.S3Bucket != ""
}

// AdviceUpstreamEnabled reports whether the AI advice upstream is configured
// When false, advice endpoints fall back to deterministic template text.
func (c *Config) AdviceUpstreamEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
