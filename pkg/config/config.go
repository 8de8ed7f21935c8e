package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: decision history is disabled without DATABASE_URL)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data provider
	Provider ProviderConfig

	// Advisory (LLM) collaborator
	Advisory AdvisoryConfig

	// Strategy file (agents.yaml)
	StrategyPath string

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
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

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ProviderConfig holds market data endpoints
type ProviderConfig struct {
	QuoteBaseURL   string // push2.eastmoney.com
	HistoryBaseURL string // push2his.eastmoney.com
	DataCenterURL  string // datacenter-web.eastmoney.com
	ForumBaseURL   string // guba.eastmoney.com
	Timeout        time.Duration
	HistoryDays    int
	CacheTTL       time.Duration
}

// AdvisoryConfig holds LLM advisory configuration
type AdvisoryConfig struct {
	Provider        string // none, claude, gemini
	AnthropicAPIKey string
	GeminiAPIKey    string
	Model           string
	MaxTokens       int
	Temperature     float64
	Timeout         time.Duration
	RatePerMinute   int
}

// SchedulerConfig holds watchlist scheduling configuration
type SchedulerConfig struct {
	Cron      string
	Watchlist []string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

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

		// Market data
		Provider: ProviderConfig{
			QuoteBaseURL:   getEnv("PROVIDER_QUOTE_URL", "https://push2.eastmoney.com"),
			HistoryBaseURL: getEnv("PROVIDER_HISTORY_URL", "https://push2his.eastmoney.com"),
			DataCenterURL:  getEnv("PROVIDER_DATACENTER_URL", "https://datacenter-web.eastmoney.com"),
			ForumBaseURL:   getEnv("PROVIDER_FORUM_URL", "https://guba.eastmoney.com"),
			Timeout:        getEnvAsDuration("PROVIDER_TIMEOUT", "15s"),
			HistoryDays:    getEnvAsInt("PROVIDER_HISTORY_DAYS", 120),
			CacheTTL:       getEnvAsDuration("PROVIDER_CACHE_TTL", "10m"),
		},

		// Advisory
		Advisory: AdvisoryConfig{
			Provider:        strings.ToLower(getEnv("ADVISORY_PROVIDER", "none")),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("ADVISORY_MODEL", ""),
			MaxTokens:       getEnvAsInt("ADVISORY_MAX_TOKENS", 1024),
			Temperature:     getEnvAsFloat("ADVISORY_TEMPERATURE", 0.3),
			Timeout:         getEnvAsDuration("ADVISORY_TIMEOUT", "8s"),
			RatePerMinute:   getEnvAsInt("ADVISORY_RATE_PER_MINUTE", 20),
		},

		StrategyPath: getEnv("STRATEGY_PATH", ""),

		Scheduler: SchedulerConfig{
			// 평일 15:30 (장 마감 후)
			Cron:      getEnv("SCHEDULE_CRON", "0 30 15 * * 1-5"),
			Watchlist: getEnvAsSlice("WATCHLIST", nil),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Advisory.Provider {
	case "none", "":
	case "claude":
		if c.Advisory.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when ADVISORY_PROVIDER=claude")
		}
	case "gemini":
		if c.Advisory.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when ADVISORY_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("ADVISORY_PROVIDER must be one of: none, claude, gemini")
	}

	if c.Provider.HistoryDays < 20 {
		return fmt.Errorf("PROVIDER_HISTORY_DAYS must be >= 20")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// 명시된 파일이 있으면 그것만 사용
	if path := os.Getenv("ENV_FILE"); path != "" {
		_ = godotenv.Load(path)
		return
	}

	// Try paths in order of priority
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
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

// getEnvAsSlice splits a comma separated value, dropping blanks
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
