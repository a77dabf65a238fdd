// Package config loads sercha-pulse configuration from the environment, an
// optional .env file and an optional YAML override file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

const (
	defaultJWTSecret       = "development-secret-change-in-production"
	defaultProviderTimeout = 15 * time.Second
	defaultStateTTL        = 10 * time.Minute
	defaultJanitorInterval = 5 * time.Minute
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the process configuration.
type Config struct {
	Port     int
	LogLevel string

	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	AutoMigrate       bool

	RedisURL     string
	AMQPURL      string
	AMQPExchange string

	JWTSecret string
	// MasterKey is the raw key material; MASTER_KEY may be hex encoded.
	MasterKey []byte

	PublicBaseURL string
	FrontendURL   string
	CORSOrigins   []string

	Scan            domain.ScanPolicy
	ProviderTimeout time.Duration
	StateTTL        time.Duration
	JanitorInterval time.Duration

	Providers map[domain.ProviderType]*domain.ProviderConfig
}

// fileConfig is the YAML override file. Unset fields keep the environment value.
type fileConfig struct {
	Scan struct {
		MaxContainers  *int           `yaml:"max_containers"`
		InterCallDelay *time.Duration `yaml:"inter_call_delay"`
	} `yaml:"scan"`
	ProviderTimeout *time.Duration          `yaml:"provider_timeout"`
	Providers       map[string]fileProvider `yaml:"providers"`
}

type fileProvider struct {
	ClientID string   `yaml:"client_id"`
	TenantID string   `yaml:"tenant_id"`
	BaseURL  string   `yaml:"base_url"`
	Scopes   []string `yaml:"scopes"`
}

// Load reads .env (if present), the environment and the YAML file at path.
// An empty path falls back to CONFIG_FILE.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := FromEnv()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() *Config {
	port := getEnvInt("PORT", 8080)
	cfg := &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", time.Minute),
		AutoMigrate:       getEnvBool("DB_AUTO_MIGRATE", true),

		RedisURL:     getEnv("REDIS_URL", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "sercha.integrations"),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		MasterKey: decodeKey(os.Getenv("MASTER_KEY")),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		FrontendURL:   strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		CORSOrigins:   getEnvList("CORS_ORIGINS"),

		Scan: domain.ScanPolicy{
			MaxContainers:  getEnvInt("SCAN_MAX_CONTAINERS", domain.DefaultScanPolicy().MaxContainers),
			InterCallDelay: getEnvDuration("SCAN_INTER_CALL_DELAY", domain.DefaultScanPolicy().InterCallDelay),
		},
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", defaultProviderTimeout),
		StateTTL:        getEnvDuration("OAUTH_STATE_TTL", defaultStateTTL),
		JanitorInterval: getEnvDuration("JANITOR_INTERVAL", defaultJanitorInterval),

		Providers: make(map[domain.ProviderType]*domain.ProviderConfig),
	}

	for _, p := range domain.SupportedProviders() {
		prefix := strings.ToUpper(string(p)) + "_"
		pc := &domain.ProviderConfig{
			ProviderType: p,
			ClientID:     os.Getenv(prefix + "CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "CLIENT_SECRET"),
			TenantID:     os.Getenv(prefix + "TENANT_ID"),
			BaseURL:      strings.TrimRight(os.Getenv(prefix+"BASE_URL"), "/"),
			BotToken:     os.Getenv(prefix + "BOT_TOKEN"),
			Scopes:       getEnvList(prefix + "SCOPES"),
		}
		if pc.ClientID != "" || pc.ClientSecret != "" {
			cfg.Providers[p] = pc
		}
	}
	return cfg
}

// ApplyFile overlays the YAML file at path. Client secrets and bot tokens are
// only read from the environment.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Scan.MaxContainers != nil {
		c.Scan.MaxContainers = *fc.Scan.MaxContainers
	}
	if fc.Scan.InterCallDelay != nil {
		c.Scan.InterCallDelay = *fc.Scan.InterCallDelay
	}
	if fc.ProviderTimeout != nil {
		c.ProviderTimeout = *fc.ProviderTimeout
	}

	for name, fp := range fc.Providers {
		p, err := domain.ParseProviderType(name)
		if err != nil {
			return fmt.Errorf("%w: config file provider %q: %v", ErrInvalidConfig, name, err)
		}
		pc, ok := c.Providers[p]
		if !ok {
			pc = &domain.ProviderConfig{ProviderType: p}
			c.Providers[p] = pc
		}
		if fp.ClientID != "" {
			pc.ClientID = fp.ClientID
		}
		if fp.TenantID != "" {
			pc.TenantID = fp.TenantID
		}
		if fp.BaseURL != "" {
			pc.BaseURL = strings.TrimRight(fp.BaseURL, "/")
		}
		if len(fp.Scopes) > 0 {
			pc.Scopes = fp.Scopes
		}
	}
	return nil
}

// Validate checks required settings and bounds.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if len(c.MasterKey) < 32 {
		errs = append(errs, errors.New("MASTER_KEY must be at least 32 bytes (or 64 hex characters)"))
	}
	if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.PublicBaseURL))
	}
	if c.Scan.MaxContainers <= 0 {
		errs = append(errs, fmt.Errorf("scan max containers must be positive, got %d", c.Scan.MaxContainers))
	}
	if c.Scan.InterCallDelay < 0 {
		errs = append(errs, fmt.Errorf("scan inter-call delay must not be negative, got %s", c.Scan.InterCallDelay))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("provider timeout must be positive, got %s", c.ProviderTimeout))
	}
	if pc, ok := c.Providers[domain.ProviderTypeMattermost]; ok && pc.BaseURL == "" {
		errs = append(errs, errors.New("MATTERMOST_BASE_URL is required when mattermost is configured"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// UsingDefaultJWTSecret reports whether the development JWT secret is in use.
func (c *Config) UsingDefaultJWTSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// decodeKey accepts a 64+ character hex string or raw key material.
func decodeKey(s string) []byte {
	if s == "" {
		return nil
	}
	if len(s) >= 64 && len(s)%2 == 0 {
		if b, err := hex.DecodeString(s); err == nil {
			return b
		}
	}
	return []byte(s)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma or space separated value.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
