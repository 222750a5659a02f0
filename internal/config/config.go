// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// CDN / Object Storage
	S3BucketName string
	CDNBaseURL   string
	AWSRegion    string

	// BlueSky API
	BskyAPIBase string

	// Refresh
	StaleAfter         time.Duration
	RefreshInterval    time.Duration
	FetchTimeout       time.Duration
	FetchMaxConcurrent int
	ScanPageSize       int
	BatchSize          int

	// Rate Limit
	RateLimitGeneral int
	RateLimitCreate  int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	if cfg.S3BucketName == "" {
		missing = append(missing, "S3_BUCKET_NAME")
	}

	cfg.CDNBaseURL = os.Getenv("CDN_BASE_URL")
	if cfg.CDNBaseURL == "" {
		missing = append(missing, "CDN_BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AWSRegion = getEnvString("AWS_REGION", "us-east-1")
	cfg.BskyAPIBase = getEnvString("BSKY_API_BASE", "https://api.bsky.app")
	cfg.StaleAfter = getEnvDuration("STALE_AFTER", 5*time.Minute)
	cfg.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", 5*time.Minute)
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 10)
	cfg.ScanPageSize = getEnvInt("SCAN_PAGE_SIZE", 100)
	cfg.BatchSize = getEnvInt("BATCH_SIZE", 25)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCreate = getEnvInt("RATE_LIMIT_CREATE", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
