// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires once daily at 10:00 UTC.
const DefaultSchedule = "0 10 * * *"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	TikAPIKey   string
	BigQueryKey string // Base64-encoded service account JSON; decoded at startup.
	RootSecUID  string

	Schedule   string
	ListenAddr string
	DBPath     string

	BQProject string
	BQDataset string
	BQTable   string
	CSVPath   string

	PostWindow    time.Duration
	RollingWindow int
	APIRate       float64 // Outbound TikAPI requests per second.

	EncryptionKey []byte // 32-byte AES-256 key for credential storage; nil disables.
}

// HasTikAPIKey returns true when a TikAPI key was provided via environment.
// Used by the composition root to decide whether stored credentials must be
// consulted before failing startup.
func (c *Config) HasTikAPIKey() bool {
	return c.TikAPIKey != ""
}

// HasBigQuery returns true when a BigQuery destination is configured.
func (c *Config) HasBigQuery() bool {
	return c.BQProject != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. TIKTRENDS_ROOT_SEC_UID is required. TIKAPI_KEY and BIGQUERY_KEY may
// instead come from the credential store; the composition root resolves that.
// Optional variables with defaults: TIKTRENDS_SCHEDULE (0 10 * * *),
// TIKTRENDS_LISTEN_ADDR (127.0.0.1:8080), TIKTRENDS_DB_PATH (tiktrends.db),
// TIKTRENDS_BQ_DATASET (tiktok_analytics), TIKTRENDS_BQ_TABLE (daily_trends),
// TIKTRENDS_POST_WINDOW (8736h, i.e. 52 weeks), TIKTRENDS_ROLLING_WINDOW (28),
// TIKTRENDS_API_RPS (2).
func Load() (*Config, error) {
	rootSecUID := os.Getenv("TIKTRENDS_ROOT_SEC_UID")
	if rootSecUID == "" {
		return nil, fmt.Errorf("TIKTRENDS_ROOT_SEC_UID is required")
	}

	schedule := DefaultSchedule
	if v, ok := os.LookupEnv("TIKTRENDS_SCHEDULE"); ok {
		if _, err := cron.ParseStandard(v); err != nil {
			return nil, fmt.Errorf("TIKTRENDS_SCHEDULE has invalid cron expression %q: %w", v, err)
		}
		schedule = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("TIKTRENDS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "tiktrends.db"
	if v, ok := os.LookupEnv("TIKTRENDS_DB_PATH"); ok {
		dbPath = v
	}

	bqDataset := "tiktok_analytics"
	if v, ok := os.LookupEnv("TIKTRENDS_BQ_DATASET"); ok {
		bqDataset = v
	}

	bqTable := "daily_trends"
	if v, ok := os.LookupEnv("TIKTRENDS_BQ_TABLE"); ok {
		bqTable = v
	}

	postWindow := 52 * 7 * 24 * time.Hour
	if v, ok := os.LookupEnv("TIKTRENDS_POST_WINDOW"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TIKTRENDS_POST_WINDOW has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("TIKTRENDS_POST_WINDOW must be positive, got %q", v)
		}
		postWindow = parsed
	}

	rollingWindow := 28
	if v, ok := os.LookupEnv("TIKTRENDS_ROLLING_WINDOW"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("TIKTRENDS_ROLLING_WINDOW must be a positive integer, got %q", v)
		}
		rollingWindow = parsed
	}

	apiRate := 2.0
	if v, ok := os.LookupEnv("TIKTRENDS_API_RPS"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("TIKTRENDS_API_RPS must be a positive number, got %q", v)
		}
		apiRate = parsed
	}

	var encryptionKey []byte
	if v, ok := os.LookupEnv("TIKTRENDS_ENCRYPTION_KEY"); ok && v != "" {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("TIKTRENDS_ENCRYPTION_KEY is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("TIKTRENDS_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		encryptionKey = decoded
	}

	return &Config{
		TikAPIKey:     os.Getenv("TIKAPI_KEY"),
		BigQueryKey:   os.Getenv("BIGQUERY_KEY"),
		RootSecUID:    rootSecUID,
		Schedule:      schedule,
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		BQProject:     os.Getenv("TIKTRENDS_BQ_PROJECT"),
		BQDataset:     bqDataset,
		BQTable:       bqTable,
		CSVPath:       os.Getenv("TIKTRENDS_CSV_PATH"),
		PostWindow:    postWindow,
		RollingWindow: rollingWindow,
		APIRate:       apiRate,
		EncryptionKey: encryptionKey,
	}, nil
}
