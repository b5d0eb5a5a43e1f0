package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // Reporting timezone must load in minimal images

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	DatabaseURL          string
	AnalyticsDatabaseURL string
	AppEnv               string
	BaseURL              string
	ReportTimezone       string
	NodeID               int64
	LogLevel             string
	CacheTTL             time.Duration
	TrustProxy           bool
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:                 getEnv("PORT", "3000"),
		DatabaseURL:          getEnv("DATABASE_URL", "file:redirects.sqlite"),
		AnalyticsDatabaseURL: getEnv("ANALYTICS_DATABASE_URL", "file:analytics.sqlite"),
		AppEnv:               getEnv("APP_ENV", "local"),
		BaseURL:              getEnv("BASE_URL", "http://localhost:3000"),
		ReportTimezone:       getEnv("REPORT_TIMEZONE", "America/New_York"),
		NodeID:               getEnvInt("NODE_ID", 1),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CacheTTL:             getEnvDuration("CACHE_TTL", 10*time.Minute),
		TrustProxy:           getEnv("TRUST_PROXY", "false") == "true",
	}
}

// Location returns the timezone analytics timestamps are captured in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ReportTimezone)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return d
}
