package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultScopes are requested from the platform on every install.
var DefaultScopes = []string{"read_products", "read_orders", "read_all_orders", "read_analytics"}

// Config is built once at startup and passed to every component.
// Treat it as read-only after Load returns.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	Database Database
	Shopify  Shopify

	AnalyticsURL     string        `validate:"required,url"`
	UpstreamTimeout  time.Duration `validate:"gt=0"`
	RequireShopToken bool

	StateTTL     time.Duration `validate:"gt=0"`
	EnforceState bool
	RedisURL     string

	// APIJWTSecret enables bearer authentication on the question endpoints.
	APIJWTSecret string

	AllowedOrigins  string
	RateLimitMax    int           `validate:"gt=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`
	BodyLimitBytes  int           `validate:"gt=0"`
}

type Database struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	User     string
	Password string
	Name     string `validate:"required"`
	SSLMode  string
	TimeZone string
}

// DSN renders the postgres connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone)
}

type Shopify struct {
	APIKey    string `validate:"required"`
	APISecret string `validate:"required"`
	// HMACSecret signs install callbacks. An empty secret makes every
	// callback fail verification.
	HMACSecret   string   `validate:"required"`
	Scopes       []string `validate:"min=1,dive,required"`
	RedirectURI  string   `validate:"required,url"`
	DomainSuffix string
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	apiSecret := os.Getenv("SHOPIFY_API_SECRET")

	// Fiber's default body limit is 4MB; BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	bodyLimit := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimit <= 0 {
		bodyLimit = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	analyticsURL := envString("ANALYTICS_SERVICE_URL", "")
	if analyticsURL == "" {
		analyticsURL = envString("PYTHON_SERVICE_URL", "http://python-ai-agent:8000")
	}

	cfg := Config{
		Env:      envString("APP_ENV", "development"),
		Port:     envString("PORT", "3000"),
		LogLevel: envString("LOG_LEVEL", "info"),
		Database: Database{
			Host:     envString("DB_HOST", "db"),
			Port:     envString("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envString("DB_NAME", "analytics_gateway"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
			TimeZone: envString("DB_TIMEZONE", "UTC"),
		},
		Shopify: Shopify{
			APIKey:       os.Getenv("SHOPIFY_API_KEY"),
			APISecret:    apiSecret,
			HMACSecret:   envString("SHOPIFY_HMAC_SECRET", apiSecret),
			Scopes:       envList("SHOPIFY_SCOPES", DefaultScopes),
			RedirectURI:  envString("SHOPIFY_REDIRECT_URI", "http://localhost:3000/api/v1/auth/callback"),
			DomainSuffix: strings.TrimPrefix(envString("SHOP_DOMAIN_SUFFIX", "myshopify.com"), "."),
		},
		AnalyticsURL:     strings.TrimRight(analyticsURL, "/"),
		UpstreamTimeout:  envDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		RequireShopToken: envBool("REQUIRE_SHOP_TOKEN", true),
		StateTTL:         envDuration("STATE_TTL", 10*time.Minute),
		EnforceState:     envBool("ENFORCE_STATE", true),
		RedisURL:         os.Getenv("REDIS_URL"),
		APIJWTSecret:     os.Getenv("API_JWT_SECRET"),
		AllowedOrigins:   envString("ALLOWED_ORIGINS", "*"),
		RateLimitMax:     envInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow:  time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		BodyLimitBytes:   bodyLimit,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
