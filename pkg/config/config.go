package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Exclusion storage backends
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Analysis defaults
	Analysis AnalysisConfig

	// Feature exclusion persistence
	Exclusion ExclusionConfig

	// Database (postgres exclusion backend)
	Database DatabaseConfig

	// Redis (redis exclusion backend, result cache)
	Redis RedisConfig

	// HTTP API
	API APIConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// AnalysisConfig holds calculator defaults
type AnalysisConfig struct {
	StartingCapital    float64
	GainColumn         string
	MinTradesThreshold int
}

// ExclusionConfig selects where feature exclusions are persisted
type ExclusionConfig struct {
	Backend string // file, redis, postgres
	Dir     string // file backend root; empty = per-user app-data dir
}

// APIConfig holds HTTP API limits
type APIConfig struct {
	RateLimit float64 // requests per second
	RateBurst int
	CacheTTL  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Analysis: AnalysisConfig{
			StartingCapital:    getEnvAsFloat("STARTING_CAPITAL", 100_000),
			GainColumn:         getEnv("GAIN_COLUMN", "gain_pct"),
			MinTradesThreshold: getEnvAsInt("MIN_TRADES_THRESHOLD", 30),
		},

		Exclusion: ExclusionConfig{
			Backend: getEnv("EXCLUSION_BACKEND", BackendFile),
			Dir:     getEnv("EXCLUSION_DIR", ""),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		API: APIConfig{
			RateLimit: getEnvAsFloat("API_RATE_LIMIT", 20),
			RateBurst: getEnvAsInt("API_RATE_BURST", 40),
			CacheTTL:  getEnvAsDuration("API_CACHE_TTL", "10m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.StartingCapital <= 0 {
		return fmt.Errorf("STARTING_CAPITAL must be > 0")
	}
	if c.Analysis.MinTradesThreshold <= 0 {
		return fmt.Errorf("MIN_TRADES_THRESHOLD must be > 0")
	}
	if c.Analysis.GainColumn == "" {
		return fmt.Errorf("GAIN_COLUMN must not be empty")
	}

	switch c.Exclusion.Backend {
	case BackendFile:
	case BackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("EXCLUSION_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("EXCLUSION_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("EXCLUSION_BACKEND must be one of: file, redis, postgres")
	}

	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be > 0")
	}

	return nil
}

// Default returns a configuration with every default applied, without touching the environment.
// Used by tests and by the CLI when no .env is present.
func Default() *Config {
	return &Config{
		Port: "8090",
		Env:  "development",
		Analysis: AnalysisConfig{
			StartingCapital:    100_000,
			GainColumn:         "gain_pct",
			MinTradesThreshold: 30,
		},
		Exclusion: ExclusionConfig{Backend: BackendFile},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Redis:          RedisConfig{Host: "localhost", Port: "6379"},
		API:            APIConfig{RateLimit: 20, RateBurst: 40, CacheTTL: 10 * time.Minute},
		LogLevel:       "info",
		LogFormat:      "json",
		MetricsEnabled: true,
	}
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
