package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	GeminiURL    string `yaml:"gemini_base_url"`
	Currency     string `yaml:"currency_symbol"`
	Market       string `yaml:"market"`

	StorageDriver    string `yaml:"storage_driver"`
	SQLitePath       string `yaml:"sqlite_path"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`
	RedisAddr        string `yaml:"redis_addr"`
	RedisPassword    string `yaml:"redis_password"`
	RedisDB          int    `yaml:"redis_db"`

	HistoryLimit      int           `yaml:"history_limit"`
	MaxDeals          int           `yaml:"max_deals"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"retry_base_delay"`
	IdentifyTimeout   time.Duration `yaml:"identify_timeout"`
	EnrichTimeout     time.Duration `yaml:"enrich_timeout"`
	ChatTimeout       time.Duration `yaml:"chat_timeout"`
	MaxImageDimension int           `yaml:"max_image_dimension"`
	MaxConcurrency    int           `yaml:"max_concurrency"`
	RateLimitMs       int           `yaml:"rate_limit_ms"`

	RenderPages bool          `yaml:"render_pages"`
	ChromeBin   string        `yaml:"chrome_bin"`
	PageTimeout time.Duration `yaml:"page_timeout"`

	ServerPort       string   `yaml:"server_port"`
	AllowedOrigins   []string `yaml:"cors_allowed_origins"`
	ChatSessionLimit int      `yaml:"chat_session_limit"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GeminiModel: "gemini-3-flash-preview",
		Currency:    "₹",
		Market:      "India",

		StorageDriver:   "sqlite",
		SQLitePath:      "./data/veribuy.db",
		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "veribuy",
		PostgresDB:      "veribuy",
		PostgresSSLMode: "disable",
		RedisAddr:       "localhost:6379",

		HistoryLimit:      20,
		MaxDeals:          4,
		MaxRetries:        2,
		RetryBaseDelay:    time.Second,
		IdentifyTimeout:   60 * time.Second,
		EnrichTimeout:     45 * time.Second,
		ChatTimeout:       30 * time.Second,
		MaxImageDimension: 1536,
		MaxConcurrency:    2,
		RateLimitMs:       500,

		PageTimeout: 20 * time.Second,

		ServerPort:       "8080",
		ChatSessionLimit: 256,

		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// VERIBUY_CONFIG, a .env file and finally the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := Default()
	if path := os.Getenv("VERIBUY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", getEnv("API_KEY", c.GeminiAPIKey))
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.GeminiURL = getEnv("GEMINI_BASE_URL", c.GeminiURL)
	c.Currency = getEnv("CURRENCY_SYMBOL", c.Currency)
	c.Market = getEnv("MARKET", c.Market)

	c.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", c.StorageDriver))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)

	c.HistoryLimit = getEnvInt("HISTORY_LIMIT", c.HistoryLimit)
	c.MaxDeals = getEnvInt("MAX_DEALS", c.MaxDeals)
	c.MaxRetries = getEnvInt("MAX_RETRIES", c.MaxRetries)
	c.RetryBaseDelay = getEnvDuration("RETRY_BASE_DELAY", c.RetryBaseDelay)
	c.IdentifyTimeout = getEnvDuration("IDENTIFY_TIMEOUT", c.IdentifyTimeout)
	c.EnrichTimeout = getEnvDuration("ENRICH_TIMEOUT", c.EnrichTimeout)
	c.ChatTimeout = getEnvDuration("CHAT_TIMEOUT", c.ChatTimeout)
	c.MaxImageDimension = getEnvInt("MAX_IMAGE_DIMENSION", c.MaxImageDimension)
	c.MaxConcurrency = getEnvInt("MAX_CONCURRENCY", c.MaxConcurrency)
	c.RateLimitMs = getEnvInt("RATE_LIMIT_MS", c.RateLimitMs)

	c.RenderPages = getEnvBool("RENDER_PAGES", c.RenderPages)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)
	c.PageTimeout = getEnvDuration("PAGE_TIMEOUT", c.PageTimeout)

	c.ServerPort = getEnv("SERVER_PORT", c.ServerPort)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = splitAndTrim(origins)
	}
	c.ChatSessionLimit = getEnvInt("CHAT_SESSION_LIMIT", c.ChatSessionLimit)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogJSON = getEnvBool("LOG_JSON", c.LogJSON)
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "sqlite", "postgres", "redis", "memory":
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("config: HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxDeals < 1 {
		return fmt.Errorf("config: MAX_DEALS must be positive, got %d", c.MaxDeals)
	}
	if c.Currency == "" {
		return fmt.Errorf("config: CURRENCY_SYMBOL must not be empty")
	}
	if c.MaxImageDimension < 64 {
		return fmt.Errorf("config: MAX_IMAGE_DIMENSION too small: %d", c.MaxImageDimension)
	}
	timeouts := map[string]time.Duration{
		"IDENTIFY_TIMEOUT": c.IdentifyTimeout,
		"ENRICH_TIMEOUT":   c.EnrichTimeout,
		"CHAT_TIMEOUT":     c.ChatTimeout,
	}
	if c.RenderPages {
		timeouts["PAGE_TIMEOUT"] = c.PageTimeout
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RateLimit is RateLimitMs as a duration.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
