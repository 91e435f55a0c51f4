// Package config loads bookshelf settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/lehigh-university-libraries/bookshelf/internal/affiliate"
	"github.com/lehigh-university-libraries/bookshelf/internal/cosmic"
	"github.com/lehigh-university-libraries/bookshelf/internal/providers"
	"github.com/lehigh-university-libraries/bookshelf/internal/retry"
	"github.com/lehigh-university-libraries/bookshelf/internal/storage"
	"github.com/lehigh-university-libraries/bookshelf/internal/validate"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/bookshelf/config.yaml",
}

// ConfigPathEnvVar overrides the config file location
const ConfigPathEnvVar = "CONFIG_PATH"

// Config is the full application configuration
type Config struct {
	Server       ServerConfig  `koanf:"server"`
	Storage      StorageConfig `koanf:"storage"`
	AI           AIConfig      `koanf:"ai"`
	Cosmic       cosmic.Config `koanf:"cosmic"`
	Retry        retry.Policy  `koanf:"retry"`
	AccessCode   string        `koanf:"access_code"`
	AffiliateTag string        `koanf:"affiliate_tag"`
}

type ServerConfig struct {
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	BaseURL           string        `koanf:"base_url"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend string           `koanf:"backend" validate:"oneof=memory cosmic s3"`
	S3      storage.S3Config `koanf:"s3"`
}

type AIConfig struct {
	Provider     string                    `koanf:"provider" validate:"oneof=cosmic gemini openai ollama"`
	Model        string                    `koanf:"model"`
	Temperature  float64                   `koanf:"temperature" validate:"gte=0,lte=2"`
	GeminiAPIKey string                    `koanf:"gemini_api_key"`
	OpenAIAPIKey string                    `koanf:"openai_api_key"`
	OpenAIURL    string                    `koanf:"openai_url"`
	OllamaURL    string                    `koanf:"ollama_url"`
	Breaker      providers.BreakerSettings `koanf:"breaker"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			BaseURL:           "http://localhost:8080",
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
			ShutdownTimeout:   15 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "cosmic",
			S3: storage.S3Config{
				Region:       "us-east-1",
				UsePathStyle: true,
			},
		},
		AI: AIConfig{
			Provider:    "cosmic",
			Temperature: 0.7,
			Breaker:     providers.DefaultBreakerSettings(),
		},
		Cosmic: cosmic.Config{
			APIURL:     cosmic.DefaultAPIURL,
			WorkersURL: cosmic.DefaultWorkersURL,
		},
		Retry: retry.DefaultPolicy(),
		AffiliateTag: affiliate.FallbackTag,
	}
}

// Load reads configuration. An empty path searches CONFIG_PATH and then
// DefaultConfigPaths; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints and backend-specific requirements
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if (c.Storage.Backend == "cosmic" || c.AI.Provider == "cosmic") && c.Cosmic.BucketSlug == "" {
		return fmt.Errorf("COSMIC_BUCKET_SLUG is required when cosmic is used for storage or AI")
	}
	if c.Storage.Backend == "cosmic" && c.Cosmic.ReadKey == "" {
		return fmt.Errorf("COSMIC_READ_KEY is required for cosmic storage")
	}
	if c.Storage.Backend == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required for s3 storage")
	}
	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// splitCommaList turns an env-provided "a, b" into a slice
func splitCommaList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if err := k.Set(path, values); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

var envMappings = map[string]string{
	"port":                  "server.port",
	"base_url":              "server.base_url",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"shutdown_timeout":      "server.shutdown_timeout",
	"storage_backend":       "storage.backend",
	"s3_endpoint":           "storage.s3.endpoint",
	"s3_region":             "storage.s3.region",
	"s3_bucket":             "storage.s3.bucket",
	"s3_access_key_id":      "storage.s3.access_key_id",
	"s3_secret_access_key":  "storage.s3.secret_access_key",
	"s3_public_url":         "storage.s3.public_url",
	"s3_use_path_style":     "storage.s3.use_path_style",
	"cosmic_bucket_slug":    "cosmic.bucket_slug",
	"cosmic_read_key":       "cosmic.read_key",
	"cosmic_write_key":      "cosmic.write_key",
	"cosmic_api_url":        "cosmic.api_url",
	"cosmic_workers_url":    "cosmic.workers_url",
	"ai_provider":           "ai.provider",
	"ai_model":              "ai.model",
	"ai_temperature":        "ai.temperature",
	"gemini_api_key":        "ai.gemini_api_key",
	"openai_api_key":        "ai.openai_api_key",
	"openai_url":            "ai.openai_url",
	"ollama_url":            "ai.ollama_url",
	"breaker_max_requests":  "ai.breaker.max_requests",
	"breaker_interval":      "ai.breaker.interval",
	"breaker_timeout":       "ai.breaker.timeout",
	"breaker_min_requests":  "ai.breaker.min_requests",
	"breaker_failure_ratio": "ai.breaker.failure_ratio",
	"retry_max_attempts":    "retry.max_attempts",
	"retry_initial_delay":   "retry.initial_delay",
	"retry_max_delay":       "retry.max_delay",
	"retry_multiplier":      "retry.multiplier",
	"access_code":           "access_code",
	"amazon_affiliate_tag":  "affiliate_tag",
}

// envTransformFunc maps known environment variables to config paths and
// drops everything else.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
