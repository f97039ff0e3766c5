// Package config loads collector settings from the environment, an optional
// .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
)

// MaxWorkers caps parallel fetches against the publisher.
const MaxWorkers = 4

// Config holds collector configuration.
type Config struct {
	DataDir   string `yaml:"data_dir"`
	CacheDir  string `yaml:"cache_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	RequestsPerMinute int           `yaml:"requests_per_minute"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	Workers           int           `yaml:"workers"`
	RateLimitRedis    string        `yaml:"rate_limit_redis_addr"`

	LegislatorsDir    string `yaml:"legislators_dir"`
	VoteOverridesFile string `yaml:"vote_overrides_file"`

	ReceiptsDriver string `yaml:"receipts_driver"`
	ReceiptsDSN    string `yaml:"receipts_dsn"`

	ValidateOutput bool `yaml:"validate_output"`

	OTelEnabled  bool   `yaml:"otel_enabled"`
	OTelEndpoint string `yaml:"otel_endpoint"`

	Replica ReplicaConfig `yaml:"replica"`

	GovinfoBaseURL     string `yaml:"govinfo_base_url"`
	HouseBaseURL       string `yaml:"house_base_url"`
	SenateBaseURL      string `yaml:"senate_base_url"`
	LegislatorsBaseURL string `yaml:"legislators_base_url"`
}

// ReplicaConfig mirrors artifacts.ReplicaConfig with file tags.
type ReplicaConfig struct {
	Type      string `yaml:"type"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (r ReplicaConfig) Artifacts() artifacts.ReplicaConfig {
	return artifacts.ReplicaConfig{
		Type:      artifacts.ReplicaType(r.Type),
		Bucket:    r.Bucket,
		Prefix:    r.Prefix,
		Region:    r.Region,
		Endpoint:  r.Endpoint,
		AccessKey: r.AccessKey,
		SecretKey: r.SecretKey,
		UseSSL:    r.UseSSL,
	}
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		DataDir:            "data",
		CacheDir:           "cache",
		LogLevel:           "INFO",
		LogFormat:          "text",
		RequestsPerMinute:  120,
		RetryAttempts:      3,
		HTTPTimeout:        30 * time.Second,
		Workers:            1,
		LegislatorsDir:     "congress-legislators",
		ReceiptsDriver:     "none",
		OTelEndpoint:       "localhost:4317",
		Replica:            ReplicaConfig{Type: "none"},
		GovinfoBaseURL:     "https://www.govinfo.gov/",
		HouseBaseURL:       "https://clerk.house.gov/",
		SenateBaseURL:      "https://www.senate.gov/",
		LegislatorsBaseURL: "https://unitedstates.github.io/congress-legislators/",
	}
}

// Load reads configuration from environment variables (after loading a
// .env file from the working directory, if present).
func Load() *Config {
	_ = godotenv.Load()
	cfg := Defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile overlays a YAML file on the defaults, then the environment.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	str(&cfg.DataDir, "DATA_DIR")
	str(&cfg.CacheDir, "CACHE_DIR")
	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.LogFormat, "LOG_FORMAT")
	num(&cfg.RequestsPerMinute, "REQUESTS_PER_MINUTE")
	num(&cfg.RetryAttempts, "RETRY_ATTEMPTS")
	dur(&cfg.HTTPTimeout, "HTTP_TIMEOUT")
	str(&cfg.UserAgent, "USER_AGENT")
	num(&cfg.Workers, "WORKERS")
	str(&cfg.RateLimitRedis, "RATE_LIMIT_REDIS_ADDR")
	str(&cfg.LegislatorsDir, "LEGISLATORS_DIR")
	str(&cfg.VoteOverridesFile, "VOTE_OVERRIDES_FILE")
	str(&cfg.ReceiptsDriver, "RECEIPTS_DRIVER")
	str(&cfg.ReceiptsDSN, "RECEIPTS_DSN")
	boolean(&cfg.ValidateOutput, "VALIDATE_OUTPUT")
	boolean(&cfg.OTelEnabled, "OTEL_ENABLED")
	str(&cfg.OTelEndpoint, "OTEL_ENDPOINT")
	str(&cfg.Replica.Type, "OUTPUT_REPLICA_TYPE")
	str(&cfg.Replica.Bucket, "OUTPUT_REPLICA_BUCKET")
	str(&cfg.Replica.Prefix, "OUTPUT_REPLICA_PREFIX")
	str(&cfg.Replica.Region, "OUTPUT_REPLICA_REGION")
	str(&cfg.Replica.Endpoint, "OUTPUT_REPLICA_ENDPOINT")
	str(&cfg.Replica.AccessKey, "OUTPUT_REPLICA_ACCESS_KEY")
	str(&cfg.Replica.SecretKey, "OUTPUT_REPLICA_SECRET_KEY")
	boolean(&cfg.Replica.UseSSL, "OUTPUT_REPLICA_USE_SSL")
	str(&cfg.GovinfoBaseURL, "GOVINFO_BASE_URL")
	str(&cfg.HouseBaseURL, "HOUSE_BASE_URL")
	str(&cfg.SenateBaseURL, "SENATE_BASE_URL")
	str(&cfg.LegislatorsBaseURL, "LEGISLATORS_BASE_URL")
}

func str(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func num(dst *int, key string) {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = v
	}
}

func dur(dst *time.Duration, key string) {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = v
	}
}

func boolean(dst *bool, key string) {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		*dst = v
	}
}

// Validate rejects settings the collector cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache_dir must be set"))
	}
	if c.RequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("requests_per_minute must be positive, got %d", c.RequestsPerMinute))
	}
	if c.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry_attempts must not be negative, got %d", c.RetryAttempts))
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		errs = append(errs, fmt.Errorf("workers must be between 1 and %d, got %d", MaxWorkers, c.Workers))
	}
	switch c.ReceiptsDriver {
	case "none", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown receipts_driver %q", c.ReceiptsDriver))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
