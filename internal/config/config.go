package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env       string          `toml:"env"`
	Port      string          `toml:"port"`
	JWTSecret string          `toml:"jwt_secret"`
	AppURL    string          `toml:"app_url"`
	Log       LogConfig       `toml:"log"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Kafka     KafkaConfig     `toml:"kafka"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	LogLevel string `toml:"log_level"` // silent, error, warn, info
}

// RedisConfig holds the optional shared store used by the rate limiter
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Enabled reports whether a Redis address was configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// KafkaConfig holds the optional stock event stream settings
type KafkaConfig struct {
	Brokers    []string `toml:"brokers"`
	StockTopic string   `toml:"stock_topic"`
}

// Enabled reports whether any broker was configured
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// RateLimitConfig holds per-route limits in "<limit>-<period>" form (e.g. 60-M)
type RateLimitConfig struct {
	Default     string `toml:"default"`
	OrdersRead  string `toml:"orders_read"`
	OrdersWrite string `toml:"orders_write"`
	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP. Enable only
	// behind a proxy that overwrites those headers.
	TrustProxy bool `toml:"trust_proxy"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Env:    "development",
		Port:   "3000",
		AppURL: "http://localhost:3000",
		Log: LogConfig{
			Level: "info",
			File:  "stdout",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			Username: "postgres",
			Database: "stockflow",
			LogLevel: "warn",
		},
		Kafka: KafkaConfig{
			StockTopic: "stock-events",
		},
		RateLimit: RateLimitConfig{
			Default:     "60-M",
			OrdersRead:  "30-M",
			OrdersWrite: "10-M",
		},
	}
}

// Load loads configuration from defaults, an optional TOML file (CONFIG_FILE)
// and environment variables, in that order of precedence
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AppURL = strings.TrimRight(getEnv("APP_URL", cfg.AppURL), "/")

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	cfg.Database.Host = getEnv("PG_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("PG_PORT", cfg.Database.Port)
	cfg.Database.Username = getEnv("PG_USERNAME", cfg.Database.Username)
	cfg.Database.Password = getEnv("PG_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("PG_DATABASE", cfg.Database.Database)
	cfg.Database.LogLevel = getEnv("DB_LOG_LEVEL", cfg.Database.LogLevel)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB must be a number: %w", err)
		}
		cfg.Redis.DB = n
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.StockTopic = getEnv("KAFKA_STOCK_TOPIC", cfg.Kafka.StockTopic)

	cfg.RateLimit.Default = getEnv("RATE_LIMIT_DEFAULT", cfg.RateLimit.Default)
	cfg.RateLimit.OrdersRead = getEnv("RATE_LIMIT_ORDERS_READ", cfg.RateLimit.OrdersRead)
	cfg.RateLimit.OrdersWrite = getEnv("RATE_LIMIT_ORDERS_WRITE", cfg.RateLimit.OrdersWrite)
	if v := os.Getenv("RATE_LIMIT_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY must be a boolean: %w", err)
		}
		cfg.RateLimit.TrustProxy = trust
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
