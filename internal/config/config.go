package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	ExportDir        string
	ExportWorkers    int
	ExportRateLimit  int   // export creations per survey per minute, 0 disables the limit
	MaxPointsPerUser int64 // 0 means unlimited

	MetricsEnabled bool
	LogFormat      string // JSON or console
	LogLevel       string
}

const defaultJWTSecret = "change-me-in-production"

// Load reads .env (ignored if missing) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getenvDefault("PORT", ":8080"),
		DBPath:    getenvDefault("DB_PATH", "./data/tripbreaker.db"),
		JWTSecret: getenvDefault("JWT_SECRET", defaultJWTSecret),
		ExportDir: getenvDefault("EXPORT_DIR", "./data/exports"),
		LogFormat: strings.ToUpper(getenvDefault("LOG_FORMAT", "console")),
		LogLevel:  strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
	}

	if !strings.HasPrefix(cfg.Port, ":") && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	workers, err := getenvInt("EXPORT_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		return nil, fmt.Errorf("invalid EXPORT_WORKERS: %d must be positive", workers)
	}
	cfg.ExportWorkers = workers

	rate, err := getenvInt("EXPORT_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	if rate < 0 {
		return nil, fmt.Errorf("invalid EXPORT_RATE_LIMIT: %d is negative", rate)
	}
	cfg.ExportRateLimit = rate

	budget, err := getenvInt("MAX_POINTS_PER_USER", 0)
	if err != nil {
		return nil, err
	}
	if budget < 0 {
		return nil, fmt.Errorf("invalid MAX_POINTS_PER_USER: %d is negative", budget)
	}
	cfg.MaxPointsPerUser = int64(budget)

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_ENABLED: %q", v)
		}
		cfg.MetricsEnabled = enabled
	} else {
		cfg.MetricsEnabled = true
	}

	return cfg, nil
}

// UsesDefaultSecret reports whether JWT_SECRET was left unset
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getenvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

// SetupLogging configures the global zerolog logger from LOG_FORMAT and LOG_LEVEL
func (c *Config) SetupLogging() {
	if c.LogFormat != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}
