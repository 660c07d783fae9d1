package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Archive backends selectable with ARCHIVE_TYPE
const (
	ArchiveNone    = "none"
	ArchiveWebhook = "webhook"
	ArchiveAzure   = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxImageSize       int64

	ModelVersion   string
	ServiceVersion string

	ArchiveType           string
	ArchiveWorkers        int
	ArchiveTimeout        time.Duration
	ArchiveCellLevel      int
	ReportWebhookURL      string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string

	EnableGzip bool
	GinMode    string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Load reads a .env file from the working directory, when present, and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return LoadFromEnv()
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8000"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 12*1024*1024),
		MaxImageSize:       parseIntOrDefault("MAX_IMAGE_SIZE", 10*1024*1024),

		ModelVersion:   getEnvOrDefault("MODEL_VERSION", "placeholder-v0.1"),
		ServiceVersion: getEnvOrDefault("SERVICE_VERSION", "0.1.0"),

		ArchiveType:           strings.ToLower(strings.TrimSpace(getEnvOrDefault("ARCHIVE_TYPE", ArchiveNone))),
		ArchiveWorkers:        int(parseIntOrDefault("ARCHIVE_WORKERS", 2)),
		ArchiveTimeout:        parseDurationOrDefault("ARCHIVE_TIMEOUT", 15*time.Second),
		ArchiveCellLevel:      int(parseIntOrDefault("ARCHIVE_CELL_LEVEL", 10)),
		ReportWebhookURL:      strings.TrimSpace(os.Getenv("REPORT_WEBHOOK_URL")),
		AzureStorageAccount:   strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureStorageKey:       strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		AzureStorageContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "cane-reports"),

		EnableGzip: parseBoolOrDefault("ENABLE_GZIP", true),
		GinMode:    os.Getenv("GIN_MODE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the settings the selected archive backend needs
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxImageSize <= 0 {
		return fmt.Errorf("MAX_IMAGE_SIZE must be > 0 (got %d)", c.MaxImageSize)
	}
	if c.MaxRequestBodySize < c.MaxImageSize {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE (%d) must be >= MAX_IMAGE_SIZE (%d)", c.MaxRequestBodySize, c.MaxImageSize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 || c.ArchiveTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, archive=%s)",
			c.RequestTimeout, c.AnalysisTimeout, c.ArchiveTimeout)
	}
	if c.ArchiveWorkers < 1 {
		return fmt.Errorf("ARCHIVE_WORKERS must be >= 1 (got %d)", c.ArchiveWorkers)
	}
	if c.ArchiveCellLevel < 0 || c.ArchiveCellLevel > 30 {
		return fmt.Errorf("ARCHIVE_CELL_LEVEL must be between 0 and 30 (got %d)", c.ArchiveCellLevel)
	}

	switch c.ArchiveType {
	case ArchiveNone:
	case ArchiveWebhook:
		if c.ReportWebhookURL == "" {
			return fmt.Errorf("REPORT_WEBHOOK_URL is required when ARCHIVE_TYPE=webhook")
		}
	case ArchiveAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required when ARCHIVE_TYPE=azure")
		}
	default:
		return fmt.Errorf("invalid ARCHIVE_TYPE: %q (use none, webhook or azure)", c.ArchiveType)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
