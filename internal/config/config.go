package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreNone     = "none"
)

type Config struct {
	APIURL         string
	RequestTimeout time.Duration

	TokenStore     string
	TokenStorePath string
	TokenSecret    string
	TokenNamespace string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	QueryStaleTime time.Duration
	RoutesPageSize int
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
	MetricsFile    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:         getEnv("ZURURA_API_URL", "http://localhost:8080/a/v1"),
		RequestTimeout: getDuration("ZURURA_REQUEST_TIMEOUT", 10*time.Second),
		TokenStore:     strings.ToLower(getEnv("ZURURA_TOKEN_STORE", StoreFile)),
		TokenStorePath: getEnv("ZURURA_TOKEN_STORE_PATH", defaultStorePath()),
		TokenSecret:    strings.TrimSpace(os.Getenv("ZURURA_TOKEN_STORE_SECRET")),
		TokenNamespace: getEnv("ZURURA_TOKEN_NAMESPACE", "default"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("ZURURA_DATABASE_URL")),
		DBMaxConns:     int32(getInt("ZURURA_DB_MAX_CONNS", 4)),
		DBMinConns:     int32(getInt("ZURURA_DB_MIN_CONNS", 0)),
		RedisAddr:      strings.TrimSpace(os.Getenv("ZURURA_REDIS_ADDR")),
		RedisPassword:  os.Getenv("ZURURA_REDIS_PASSWORD"),
		RedisDB:        getInt("ZURURA_REDIS_DB", 0),
		QueryStaleTime: getDuration("ZURURA_QUERY_STALE_TIME", 30*time.Second),
		RoutesPageSize: getInt("ZURURA_ROUTES_PAGE_SIZE", 10),
		RateLimitRPS:   getFloat("ZURURA_RATE_LIMIT_RPS", 0),
		RateLimitBurst: getInt("ZURURA_RATE_LIMIT_BURST", 5),
		LogLevel:       getEnv("ZURURA_LOG_LEVEL", "warn"),
		MetricsFile:    strings.TrimSpace(os.Getenv("ZURURA_METRICS_FILE")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ZURURA_API_URL must be an http(s) URL, got %q", c.APIURL)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("ZURURA_REQUEST_TIMEOUT must be positive")
	}

	switch c.TokenStore {
	case StoreMemory, StoreNone:
	case StoreFile:
		if strings.TrimSpace(c.TokenStorePath) == "" {
			return fmt.Errorf("ZURURA_TOKEN_STORE_PATH cannot be empty")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("ZURURA_DATABASE_URL is required for the postgres token store")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("ZURURA_DB_MIN_CONNS/ZURURA_DB_MAX_CONNS out of range")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("ZURURA_REDIS_ADDR is required for the redis token store")
		}
	default:
		return fmt.Errorf("ZURURA_TOKEN_STORE must be one of memory, file, postgres, redis, none; got %q", c.TokenStore)
	}

	if c.QueryStaleTime < 0 {
		return fmt.Errorf("ZURURA_QUERY_STALE_TIME cannot be negative")
	}

	if c.RoutesPageSize <= 0 {
		return fmt.Errorf("ZURURA_ROUTES_PAGE_SIZE must be positive")
	}

	if c.RateLimitRPS < 0 {
		return fmt.Errorf("ZURURA_RATE_LIMIT_RPS cannot be negative")
	}

	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("ZURURA_RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "zurura", "session.json")
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}
