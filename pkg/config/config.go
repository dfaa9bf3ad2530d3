package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for inkwell-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Model provider configuration
	Model ModelConfig `yaml:"model"`

	// Billing policy (cost formula and eligibility)
	Billing BillingConfig `yaml:"billing"`

	// Cache validity policy for aggregate analyses
	Cache CacheConfig `yaml:"cache"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"inkwell"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"inkwell_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// ConnectionString builds a PostgreSQL connection string from the config.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// ModelConfig holds generative model provider configuration.
type ModelConfig struct {
	// Endpoint is the OpenAI-compatible base URL, e.g. "https://api.openai.com/v1".
	Endpoint string `yaml:"endpoint" env:"MODEL_ENDPOINT" env-default:"https://api.openai.com/v1"`
	// Name is the model name, e.g. "gpt-4o".
	Name string `yaml:"name" env:"MODEL_NAME" env-default:"gpt-4o"`
	// APIKey authenticates with the provider. Optional for local endpoints.
	APIKey string `yaml:"-" env:"MODEL_API_KEY"` // Secret - not in YAML
	// TimeoutSeconds bounds a single model invocation. The pipeline never
	// retries internally; retry policy belongs to the caller.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"MODEL_TIMEOUT_SECONDS" env-default:"180"`
	// Temperature for pattern analysis completions.
	Temperature float64 `yaml:"temperature" env:"MODEL_TEMPERATURE" env-default:"0.7"`
}

// Timeout returns the model invocation timeout as a duration.
func (c *ModelConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BillingConfig holds the credit cost formula and eligibility policy.
// The same values are used at admission time and at settlement time so the
// two computed costs always match for a given input set.
type BillingConfig struct {
	// MinEligibleEntries is the minimum count of analyzed entries required
	// to run an aggregate analysis.
	MinEligibleEntries int `yaml:"min_eligible_entries" env:"BILLING_MIN_ELIGIBLE_ENTRIES" env-default:"10"`
	// RecentEntryCap limits how many of the newest analyzed entries are
	// serialized into the model request.
	RecentEntryCap int `yaml:"recent_entry_cap" env:"BILLING_RECENT_ENTRY_CAP" env-default:"30"`
	// CharsPerToken is the serialized-characters-to-token heuristic divisor.
	CharsPerToken int `yaml:"chars_per_token" env:"BILLING_CHARS_PER_TOKEN" env-default:"4"`
	// TokensPerCredit is how many estimated tokens one credit buys.
	TokensPerCredit int `yaml:"tokens_per_credit" env:"BILLING_TOKENS_PER_CREDIT" env-default:"15000"`
	// MinCost is the floor credit cost for any generation.
	MinCost int `yaml:"min_cost" env:"BILLING_MIN_COST" env-default:"2"`
}

// CacheConfig holds the validity policy for cached aggregate analyses.
type CacheConfig struct {
	// MaxAgeDays is how long a cached analysis stays fresh.
	MaxAgeDays int `yaml:"max_age_days" env:"CACHE_MAX_AGE_DAYS" env-default:"30"`
	// CoverageFloor is the minimum ratio of covered entries to currently
	// eligible entries for a cached analysis to be reused.
	CoverageFloor float64 `yaml:"coverage_floor" env:"CACHE_COVERAGE_FLOOR" env-default:"0.80"`
	// CurrentSchemaVersion is the output contract version stamped on new
	// analyses. Cached rows on older versions trigger an upgrade offer.
	CurrentSchemaVersion int `yaml:"current_schema_version" env:"CACHE_CURRENT_SCHEMA_VERSION" env-default:"2"`
}

// MaxAge returns the cache age policy as a duration.
func (c *CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeDays) * 24 * time.Hour
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseComplexFields parses fields that cleanenv cannot handle directly.
func (cfg *Config) parseComplexFields() error {
	cfg.Auth.JWKSEndpoints = make(map[string]string)
	if cfg.Auth.JWKSEndpointsStr == "" {
		return nil
	}

	for _, pair := range strings.Split(cfg.Auth.JWKSEndpointsStr, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid jwks_endpoints entry %q: expected issuer=url", pair)
		}
		cfg.Auth.JWKSEndpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return nil
}

// validate rejects configurations that would make the pipeline misbehave.
func (cfg *Config) validate() error {
	if cfg.Auth.EnableVerification && len(cfg.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("auth verification enabled but no JWKS endpoints configured")
	}
	if cfg.Billing.CharsPerToken <= 0 || cfg.Billing.TokensPerCredit <= 0 {
		return fmt.Errorf("billing divisors must be positive")
	}
	if cfg.Cache.CoverageFloor < 0 || cfg.Cache.CoverageFloor > 1 {
		return fmt.Errorf("cache coverage_floor must be in [0,1]")
	}
	return nil
}
