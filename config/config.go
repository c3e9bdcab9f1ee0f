package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

type Config struct {
	Port         int
	DatabaseType string
	DatabaseURL  string
	RedisAddr    string
	CacheTTL     time.Duration
	RateLimit    int
	LogFile      string
	LogLevel     string
	Timezone     string
	CORSOrigins  []string

	Location *time.Location
}

// Load reads flags first and falls back to environment variables for
// any flag not given on the command line.
func Load(args []string) (Config, error) {
	var cfg Config
	var origins string

	fs := pflag.NewFlagSet("habit-days", pflag.ContinueOnError)
	fs.IntVarP(&cfg.Port, "port", "p", 0, "Server port")
	fs.StringVarP(&cfg.DatabaseType, "db-type", "t", "", "Database type (postgres or sqlite)")
	fs.StringVarP(&cfg.DatabaseURL, "db-url", "d", "", "Database URL or DSN")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address (empty disables caching)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", 0, "Response cache TTL (0 disables)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 0, "Requests per minute per client IP (0 disables)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Log file path (empty logs to stdout)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level")
	fs.StringVar(&cfg.Timezone, "timezone", "", "IANA timezone used to cut calendar days")
	fs.StringVar(&origins, "cors-origins", "", "Comma separated allowed origins")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if !fs.Changed("port") {
		port, err := intEnv("PORT", 8080)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	if !fs.Changed("db-type") {
		cfg.DatabaseType = getEnv("DATABASE_TYPE", DatabasePostgres)
	}
	cfg.DatabaseType = strings.ToLower(cfg.DatabaseType)
	if cfg.DatabaseType != DatabasePostgres && cfg.DatabaseType != DatabaseSQLite {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if !fs.Changed("db-url") {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == DatabaseSQLite {
			cfg.DatabaseURL = "habits.db"
		} else {
			cfg.DatabaseURL = postgresDSN()
		}
	}

	if !fs.Changed("redis-addr") {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	}

	if !fs.Changed("cache-ttl") {
		ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "30s"))
		if err != nil {
			return Config{}, errors.New("invalid CACHE_TTL env variable")
		}
		cfg.CacheTTL = ttl
	}
	if cfg.CacheTTL < 0 {
		return Config{}, fmt.Errorf("invalid cache ttl %s", cfg.CacheTTL)
	}

	if !fs.Changed("rate-limit") {
		limit, err := intEnv("RATE_LIMIT", 0)
		if err != nil {
			return Config{}, err
		}
		cfg.RateLimit = limit
	}
	if cfg.RateLimit < 0 {
		return Config{}, fmt.Errorf("invalid rate limit %d", cfg.RateLimit)
	}

	if !fs.Changed("log-file") {
		cfg.LogFile = os.Getenv("LOG_FILE")
	}
	if !fs.Changed("log-level") {
		cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	}

	if !fs.Changed("timezone") {
		cfg.Timezone = getEnv("TIMEZONE", "Local")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if !fs.Changed("cors-origins") {
		origins = getEnv("CORS_ORIGINS", "*")
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func postgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "1234"),
		getEnv("DB_NAME", "habittracker_db"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return v, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
