// Package config loads the settings of the stepper commands.
//
// Values come from three layers, later ones winning: built-in defaults, an optional
// YAML file and STEPPER_* environment variables. The file is decoded into a generic
// map first so unknown keys are reported instead of silently ignored.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/stepper/pkg/persistence/middleware"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Config is the configuration of the stepper commands.
type Config struct {
	// Listen is the address of the HTTP API.
	Listen string `mapstructure:"listen" yaml:"listen"`

	// Locale picks the language of validation messages (en, de, fr).
	Locale string `mapstructure:"locale" yaml:"locale"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Hooks is the path of a hooks file listing commands run on notifications.
	Hooks string `mapstructure:"hooks" yaml:"hooks"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CacheConfig selects the local recovery cache.
type CacheConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Dir is the root of the file cache.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// EncryptionKey is a base64 AES-256 key sealing personal data at rest.
	EncryptionKey string `mapstructure:"encryption_key" yaml:"encryption_key"`
	// FallbackKeys are previous keys, still accepted for reading.
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`

	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// LockTTL bounds how long a replica may hold a session.
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// BackendConfig points at the registration backend. An empty URL runs offline.
type BackendConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Token   string        `mapstructure:"token" yaml:"token"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Addr serves /metrics on its own listener. Empty mounts it on the API.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Locale: "en",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     ".stepper/sessions",
			Redis: RedisConfig{
				Addr:    "localhost:6379",
				Prefix:  "stepper:session:",
				LockTTL: 30 * time.Second,
			},
		},
		Backend: BackendConfig{
			Timeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// env maps STEPPER_* variables to configuration keys.
var env = map[string]string{
	"STEPPER_LISTEN":               "listen",
	"STEPPER_LOCALE":               "locale",
	"STEPPER_LOG_LEVEL":            "log.level",
	"STEPPER_LOG_FORMAT":           "log.format",
	"STEPPER_CACHE_BACKEND":        "cache.backend",
	"STEPPER_CACHE_DIR":            "cache.dir",
	"STEPPER_CACHE_ENCRYPTION_KEY": "cache.encryption_key",
	"STEPPER_CACHE_FALLBACK_KEYS":  "cache.fallback_keys",
	"STEPPER_REDIS_ADDR":           "cache.redis.addr",
	"STEPPER_REDIS_PASSWORD":       "cache.redis.password",
	"STEPPER_REDIS_DB":             "cache.redis.db",
	"STEPPER_REDIS_PREFIX":         "cache.redis.prefix",
	"STEPPER_REDIS_TTL":            "cache.redis.ttl",
	"STEPPER_REDIS_LOCK_TTL":       "cache.redis.lock_ttl",
	"STEPPER_BACKEND_URL":          "backend.url",
	"STEPPER_BACKEND_TOKEN":        "backend.token",
	"STEPPER_BACKEND_TIMEOUT":      "backend.timeout",
	"STEPPER_METRICS_ENABLED":      "metrics.enabled",
	"STEPPER_METRICS_ADDR":         "metrics.addr",
	"STEPPER_HOOKS":                "hooks",
}

// Load reads the configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for name, key := range env {
		if value, ok := lookup(name); ok {
			set(raw, strings.Split(key, "."), value)
		}
	}

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func set(m map[string]any, path []string, value string) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	sub, ok := m[path[0]].(map[string]any)
	if !ok {
		sub = map[string]any{}
		m[path[0]] = sub
	}
	set(sub, path[1:], value)
}

// Validate checks the values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	var errs []error

	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir: required by the file cache"))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if _, _, err := c.Cache.Keys(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	return errors.Join(errs...)
}

// SlogLevel parses the log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (c CacheConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = middleware.ParseKey(c.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for _, s := range c.FallbackKeys {
		key, err := middleware.ParseKey(s)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}
