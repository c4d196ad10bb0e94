package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Cache     CacheConfig
	Provider  ProviderConfig
	Catalog   CatalogConfig
	Pricing   PricingConfig
	Quiz      QuizConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Database      string
	Schema        string
	MigrationsDir string
}

// DSN is the pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr is host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type SessionConfig struct {
	Secret          string
	TTL             time.Duration
	CleanupInterval time.Duration
}

type CacheConfig struct {
	Backend string // "redis" or "memory"
	Prefix  string
}

type ProviderConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
}

type CatalogConfig struct {
	Source string // "genai", "postgres" or "builtin"
}

type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	QuizDiscountRate      decimal.Decimal
}

type QuizConfig struct {
	PromptDelay time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

var moneyDefaults = map[string]string{
	"FREE_SHIPPING_THRESHOLD": "400",
	"SHIPPING_FEE":            "50",
	"QUIZ_DISCOUNT_RATE":      "0.10",
}

func Load() *Config {
	// Values already present in the environment win over the file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SESSION_TTL", "2h")
	viper.SetDefault("SESSION_CLEANUP_INTERVAL", "1m")
	viper.SetDefault("CACHE_BACKEND", "redis")
	viper.SetDefault("CACHE_PREFIX", "storefront")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	viper.SetDefault("PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("PROVIDER_MAX_RETRIES", 2)
	viper.SetDefault("CATALOG_SOURCE", "genai")
	for key, value := range moneyDefaults {
		viper.SetDefault(key, value)
	}
	viper.SetDefault("QUIZ_PROMPT_DELAY", "3s")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 30)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:          viper.GetString("DB_HOST"),
			Port:          viper.GetString("DB_PORT"),
			User:          viper.GetString("DB_USER"),
			Password:      viper.GetString("DB_PASSWORD"),
			Database:      viper.GetString("DB_DATABASE"),
			Schema:        viper.GetString("DB_SCHEMA"),
			MigrationsDir: viper.GetString("DB_MIGRATIONS_DIR"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Session: SessionConfig{
			Secret:          viper.GetString("SESSION_SECRET"),
			TTL:             viper.GetDuration("SESSION_TTL"),
			CleanupInterval: viper.GetDuration("SESSION_CLEANUP_INTERVAL"),
		},
		Cache: CacheConfig{
			Backend: viper.GetString("CACHE_BACKEND"),
			Prefix:  viper.GetString("CACHE_PREFIX"),
		},
		Provider: ProviderConfig{
			APIKey:     viper.GetString("GEMINI_API_KEY"),
			Model:      viper.GetString("GEMINI_MODEL"),
			Timeout:    viper.GetDuration("PROVIDER_TIMEOUT"),
			MaxRetries: viper.GetUint64("PROVIDER_MAX_RETRIES"),
		},
		Catalog: CatalogConfig{
			Source: viper.GetString("CATALOG_SOURCE"),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD"),
			ShippingFee:           getDecimal("SHIPPING_FEE"),
			QuizDiscountRate:      getDecimal("QUIZ_DISCOUNT_RATE"),
		},
		Quiz: QuizConfig{
			PromptDelay: viper.GetDuration("QUIZ_PROMPT_DELAY"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

// getDecimal reads a money value, falling back to the default on a malformed setting
func getDecimal(key string) decimal.Decimal {
	d, err := decimal.NewFromString(viper.GetString(key))
	if err != nil {
		log.Printf("Warning: Invalid %s %q, using default: %v", key, viper.GetString(key), err)
		return decimal.RequireFromString(moneyDefaults[key])
	}
	return d
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
