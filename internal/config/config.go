// Package config loads the botflow runtime configuration.
//
// Sources are applied in order, later ones winning: built-in defaults, an optional YAML
// file, then BOTFLOW_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BOTFLOW_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config is the complete runtime configuration.
type Config struct {
	LogLevel  string         `mapstructure:"log_level" env:"LOG_LEVEL"`
	BaseState string         `mapstructure:"base_state" env:"BASE_STATE"`
	Store     StoreConfig    `mapstructure:"store" envPrefix:"STORE_"`
	Dispatch  DispatchConfig `mapstructure:"dispatch" envPrefix:"DISPATCH_"`
	HTTP      HTTPConfig     `mapstructure:"http" envPrefix:"HTTP_"`
	Tracing   TracingConfig  `mapstructure:"tracing" envPrefix:"TRACING_"`
}

// StoreConfig selects and configures the conversation state store.
type StoreConfig struct {
	Backend    string           `mapstructure:"backend" env:"BACKEND"`
	Path       string           `mapstructure:"path" env:"PATH"`
	Redis      RedisConfig      `mapstructure:"redis" envPrefix:"REDIS_"`
	Encryption EncryptionConfig `mapstructure:"encryption" envPrefix:"ENCRYPTION_"`
}

// EncryptionConfig enables at-rest encryption of state names. Keys are base64
// encoded 32 byte AES keys; an empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key" env:"KEY"`
	FallbackKeys []string `mapstructure:"fallback_keys" env:"FALLBACK_KEYS" envSeparator:","`
}

// RedisConfig configures the redis backend and the distributed locker.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" env:"ADDR"`
	Password string        `mapstructure:"password" env:"PASSWORD"`
	DB       int           `mapstructure:"db" env:"DB"`
	Prefix   string        `mapstructure:"prefix" env:"PREFIX"`
	TTL      time.Duration `mapstructure:"ttl" env:"TTL"`
}

// DispatchConfig tunes the receive loop and the built-in stages.
type DispatchConfig struct {
	Concurrency        int           `mapstructure:"concurrency" env:"CONCURRENCY"`
	Timeout            time.Duration `mapstructure:"timeout" env:"TIMEOUT"`
	Serialize          bool          `mapstructure:"serialize" env:"SERIALIZE"`
	LockTTL            time.Duration `mapstructure:"lock_ttl" env:"LOCK_TTL"`
	AllowConversations []string      `mapstructure:"allow_conversations" env:"ALLOW_CONVERSATIONS" envSeparator:","`
}

// HTTPConfig configures the webhook server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" env:"ADDR"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" env:"ENABLED"`
	Endpoint string `mapstructure:"endpoint" env:"ENDPOINT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		BaseState: domain.DefaultBaseState,
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "botflow:",
			},
		},
		Dispatch: DispatchConfig{
			Concurrency: 16,
			Timeout:     30 * time.Second,
			LockTTL:     30 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when empty)
// and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseEnv overlays BOTFLOW_* variables onto target. Unset variables leave fields untouched.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.BaseState == "" {
		return fmt.Errorf("base_state is required")
	}
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile, BackendSQLite, BackendBolt:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Encryption.Key == "" && len(c.Store.Encryption.FallbackKeys) > 0 {
		return fmt.Errorf("store.encryption.fallback_keys requires store.encryption.key")
	}
	if c.Dispatch.Concurrency <= 0 {
		return fmt.Errorf("dispatch.concurrency must be positive")
	}
	if c.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch.timeout must not be negative")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	return nil
}
