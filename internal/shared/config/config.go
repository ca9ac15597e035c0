package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DateLayout is the ISO calendar date format used for deadlines and reference dates.
const DateLayout = "2006-01-02"

// Config holds application configuration.
type Config struct {
	Port     string `koanf:"port"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`

	DatabaseURL string `koanf:"database_url"`
	SeedCSV     string `koanf:"seed_csv"`

	CORSAllowOrigin    []string `koanf:"-"`
	CORSAllowOriginRaw string   `koanf:"cors_allow_origins"`

	ObjectStoreType string `koanf:"object_store"`
	LocalStoreDir   string `koanf:"local_store_dir"`
	AWSRegion       string `koanf:"aws_region"`
	S3Bucket        string `koanf:"s3_bucket"`
	S3Prefix        string `koanf:"s3_prefix"`
	SSEKMSKeyID     string `koanf:"sse_kms_key_id"`

	RedisURL         string        `koanf:"redis_url"`
	SessionTTL       time.Duration `koanf:"session_ttl"`
	SessionCacheSize int           `koanf:"session_cache_size"`

	InferenceHost         string        `koanf:"inference_host"`
	InferenceModels       string        `koanf:"inference_models"`
	InferenceAPIKey       string        `koanf:"inference_api_key"`
	InferenceTokenURL     string        `koanf:"inference_token_url"`
	InferenceClientID     string        `koanf:"inference_client_id"`
	InferenceClientSecret string        `koanf:"inference_client_secret"`
	InferenceTimeout      time.Duration `koanf:"inference_timeout"`
	InferenceMaxAttempts  int           `koanf:"inference_max_attempts"`
	DefaultModel          string        `koanf:"default_model"`

	// ReferenceDate pins "today" for dashboard summaries (YYYY-MM-DD). Empty means the live clock.
	ReferenceDate string `koanf:"reference_date"`

	JWTSecret      string  `koanf:"jwt_secret"`
	AuthRequired   bool    `koanf:"auth_required"`
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// Defaults returns the configuration used before any file or environment overrides.
func Defaults() Config {
	return Config{
		Port:                 "8080",
		Env:                  "dev",
		LogLevel:             "info",
		SeedCSV:              "mock_data.csv",
		CORSAllowOriginRaw:   "*",
		ObjectStoreType:      "local",
		LocalStoreDir:        "./data",
		SessionTTL:           24 * time.Hour,
		SessionCacheSize:     1024,
		InferenceHost:        "0.0.0.0",
		InferenceModels:      "gemma3:9000,gpt-oss:9500",
		InferenceTimeout:     120 * time.Second,
		InferenceMaxAttempts: 3,
		DefaultModel:         "gemma3",
		RateLimitRPS:         5,
		RateLimitBurst:       20,
	}
}

// Load reads configuration from defaults, an optional YAML file, and environment variables.
// The returned warnings are non-fatal and should be logged once telemetry is configured.
func Load() (Config, []string) {
	path := getEnv("CONFIG_FILE", "config.yaml")
	cfg, err := LoadFrom(path)
	var warnings []string
	if err != nil {
		warnings = append(warnings, "config: "+err.Error()+"; using defaults and environment")
	}
	return cfg, append(warnings, cfg.Warnings()...)
}

// Warnings lists settings that are legal but likely wrong for the environment.
func (c Config) Warnings() []string {
	var out []string
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		out = append(out, "DATABASE_URL is required in production")
	}
	if c.Env == "production" && c.AuthRequired && strings.TrimSpace(c.JWTSecret) == "" {
		out = append(out, "AUTH_REQUIRED is set without JWT_SECRET")
	}
	return out
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	k := koanf.New(".")
	defaults := Defaults()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return finalize(defaults), err
	}

	var loadErr error
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			loadErr = err
		}
	}

	// PORT -> port, DATABASE_URL -> database_url.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return finalize(defaults), err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return finalize(defaults), err
	}
	return finalize(cfg), loadErr
}

func finalize(cfg Config) Config {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = splitAndTrim(cfg.CORSAllowOriginRaw)
	cfg.DefaultModel = strings.TrimSpace(cfg.DefaultModel)
	return cfg
}

// ReferenceTime parses ReferenceDate. It returns nil when no date is pinned.
func (c Config) ReferenceTime() (*time.Time, error) {
	raw := strings.TrimSpace(c.ReferenceDate)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// IsDevLike reports whether env permits in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
