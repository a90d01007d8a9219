package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfiguration marks missing or malformed process configuration.
// Wrapped by contracts.ErrConfiguration at the pipeline boundary.
var ErrConfiguration = errors.New("configuration error")

// Config holds all process-level configuration (secrets, endpoints, logging)
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Pipeline variant file (YAML). Empty means built-in defaults.
	StrategyFile string

	// Redis (cache + shared rate limit)
	Redis RedisConfig

	// Database (optional watchlist table)
	Database DatabaseConfig

	// External services
	Telegram  TelegramConfig
	Naver     NaverConfig
	Inference InferenceConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Serve mode
	APIPort        string
	MetricsEnabled bool
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

// Enabled reports whether a database URL was provided
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// TelegramConfig holds the delivery bot credentials
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

// NaverConfig holds Naver Finance endpoints
type NaverConfig struct {
	FinanceURL string // finance.naver.com
	SearchURL  string // search.naver.com
	ChartURL   string // fchart.stock.naver.com
	MobileURL  string // m.stock.naver.com
	StockAPI   string // api.stock.naver.com
}

// InferenceConfig holds the summarization/classification endpoint.
// Empty URL means the rule-based keyword engine is used.
type InferenceConfig struct {
	URL    string
	APIKey string
	Model  string
}

// Enabled reports whether an inference endpoint was configured
func (i InferenceConfig) Enabled() bool {
	return i.URL != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:          getEnv("ENV", "development"),
		StrategyFile: getEnv("STRATEGY_FILE", ""),

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			BaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},

		Naver: NaverConfig{
			FinanceURL: getEnv("NAVER_FINANCE_URL", "https://finance.naver.com"),
			SearchURL:  getEnv("NAVER_SEARCH_URL", "https://search.naver.com"),
			ChartURL:   getEnv("NAVER_CHART_URL", "https://fchart.stock.naver.com"),
			MobileURL:  getEnv("NAVER_MOBILE_URL", "https://m.stock.naver.com"),
			StockAPI:   getEnv("NAVER_STOCK_API_URL", "https://api.stock.naver.com"),
		},

		Inference: InferenceConfig{
			URL:    getEnv("INFERENCE_URL", ""),
			APIKey: getEnv("INFERENCE_API_KEY", ""),
			Model:  getEnv("INFERENCE_MODEL", "gpt-4o-mini"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		APIPort:        getEnv("API_PORT", "8089"),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks values that are required regardless of run mode
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("%w: ENV must be one of: development, staging, production, test", ErrConfiguration)
	}
	return nil
}

// RequireDelivery checks the delivery credentials.
// Called before any network access when a run is going to deliver.
func (c *Config) RequireDelivery() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is required", ErrConfiguration)
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("%w: TELEGRAM_CHAT_ID is required", ErrConfiguration)
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

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
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
