// Package config loads abacus settings from a YAML or JSON file and ABACUS_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/abacus/pkg/adapters/redis"
	"github.com/aretw0/abacus/pkg/history"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given. A missing default file is not an error.
const DefaultPath = "abacus.yaml"

// EnvPrefix prefixes every environment override, e.g. ABACUS_SERVER_PORT.
const EnvPrefix = "ABACUS_"

// Config holds every tunable of the CLI and its hosts.
type Config struct {
	LogLevel     string        `mapstructure:"log_level"`
	HistoryLimit int           `mapstructure:"history_limit"`
	Server       ServerConfig  `mapstructure:"server"`
	Redis        RedisConfig   `mapstructure:"redis"`
	Metrics      MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port       int           `mapstructure:"port"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// RedisConfig selects the shared session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:     "info",
		HistoryLimit: history.DefaultLimit,
		Server: ServerConfig{
			Port:       8080,
			SessionTTL: redis.DefaultTTL,
		},
		Redis: RedisConfig{
			Prefix: redis.DefaultPrefix,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// envKeys lists the overridable keys in their dotted form.
var envKeys = []string{
	"log_level",
	"history_limit",
	"server.port",
	"server.session_ttl",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.prefix",
	"metrics.enabled",
}

// Load reads path (or DefaultPath when empty), then applies environment overrides
// on top of Default. Values are weakly typed: "8080" and 8080 both decode as a port,
// and durations accept "90s" or "24h".
func Load(path string) (Config, error) {
	raw := map[string]any{}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := readFile(path, raw); err != nil {
		if !os.IsNotExist(err) || explicit {
			return Config{}, err
		}
	}

	applyEnv(raw, os.Environ())

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no host can run with.
func (c Config) Validate() error {
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl must not be negative")
	}
	return nil
}

func readFile(path string, into map[string]any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &into); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	// Default to YAML
	if err := yaml.Unmarshal(data, &into); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv copies ABACUS_SERVER_PORT style variables into the nested map.
func applyEnv(raw map[string]any, environ []string) {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}

	for _, dotted := range envKeys {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(dotted, ".", "_"))
		val, ok := env[name]
		if !ok {
			continue
		}
		section, leaf, nested := strings.Cut(dotted, ".")
		if !nested {
			raw[dotted] = val
			continue
		}
		sub, _ := raw[section].(map[string]any)
		if sub == nil {
			sub = map[string]any{}
			raw[section] = sub
		}
		sub[leaf] = val
	}
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
