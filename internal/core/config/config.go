package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Upstream    UpstreamConfig    `koanf:"upstream"`
	Cache       CacheConfig       `koanf:"cache"`
	Fallback    FallbackConfig    `koanf:"fallback"`
	Commodities CommoditiesConfig `koanf:"commodities"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type UpstreamConfig struct {
	BaseURL        string `koanf:"base_url"`
	ResourceID     string `koanf:"resource_id"`
	APIKey         string `koanf:"api_key"`
	PageSize       int    `koanf:"page_size"`
	PageDelay      string `koanf:"page_delay"`
	RequestTimeout string `koanf:"request_timeout"`
	OverallTimeout string `koanf:"overall_timeout"` // "0" disables the overall deadline
	RetryPolicy    string `koanf:"retry_policy"`    // none | backoff
	RetryAttempts  int    `koanf:"retry_attempts"`
}

type CacheConfig struct {
	Backend      string `koanf:"backend"` // filesystem | memory | postgres | redis
	Dir          string `koanf:"dir"`
	TTLHours     int    `koanf:"ttl_hours"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
	RedisAddr    string `koanf:"redis_addr"`
	RedisDB      int    `koanf:"redis_db"`
}

type FallbackConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type CommoditiesConfig struct {
	Path string `koanf:"path"`
}

// TTL returns the cache time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

func (c UpstreamConfig) PageDelayDuration() time.Duration      { return mustDuration(c.PageDelay) }
func (c UpstreamConfig) RequestTimeoutDuration() time.Duration { return mustDuration(c.RequestTimeout) }
func (c UpstreamConfig) OverallTimeoutDuration() time.Duration { return mustDuration(c.OverallTimeout) }

// mustDuration is safe after Validate has run: every duration field has
// already been parsed once.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if strings.TrimSpace(c.Upstream.ResourceID) == "" {
		return fmt.Errorf("upstream.resource_id is required")
	}
	// Missing credential is a fatal configuration error: every live fetch
	// would fail, so refuse to start instead.
	if strings.TrimSpace(c.Upstream.APIKey) == "" {
		return fmt.Errorf("upstream.api_key is required (set AGROMANDI_UPSTREAM__API_KEY)")
	}
	if c.Upstream.PageSize <= 0 {
		return fmt.Errorf("upstream.page_size must be > 0")
	}
	for field, value := range map[string]string{
		"upstream.page_delay":      c.Upstream.PageDelay,
		"upstream.request_timeout": c.Upstream.RequestTimeout,
		"upstream.overall_timeout": c.Upstream.OverallTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, value, err)
		}
	}
	if c.Upstream.RetryPolicy != "none" && c.Upstream.RetryPolicy != "backoff" {
		return fmt.Errorf("invalid upstream.retry_policy %q (must be none or backoff)", c.Upstream.RetryPolicy)
	}
	if c.Upstream.RetryAttempts <= 0 {
		return fmt.Errorf("upstream.retry_attempts must be > 0")
	}

	switch c.Cache.Backend {
	case "filesystem":
		if strings.TrimSpace(c.Cache.Dir) == "" {
			return fmt.Errorf("cache.dir is required for the filesystem backend")
		}
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Cache.DSN) == "" {
			return fmt.Errorf("cache.dsn is required for the postgres backend")
		}
		if c.Cache.MaxOpenConns <= 0 {
			return fmt.Errorf("cache.max_open_conns must be > 0")
		}
		if c.Cache.MaxIdleConns <= 0 {
			return fmt.Errorf("cache.max_idle_conns must be > 0")
		}
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttl_hours must be > 0")
	}

	if c.Fallback.Enabled && strings.TrimSpace(c.Fallback.Path) == "" {
		return fmt.Errorf("fallback.path is required when fallback.enabled is true")
	}

	return nil
}

// Load parses config from defaults + file + env, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.mode":              "release",
		"upstream.base_url":        "https://api.data.gov.in",
		"upstream.resource_id":     "9ef84268-d588-465a-a308-a864a43d0070",
		"upstream.api_key":         "",
		"upstream.page_size":       1000,
		"upstream.page_delay":      "200ms",
		"upstream.request_timeout": "20s",
		"upstream.overall_timeout": "2m",
		"upstream.retry_policy":    "none",
		"upstream.retry_attempts":  3,
		"cache.backend":            "filesystem",
		"cache.dir":                "./cache",
		"cache.ttl_hours":          24,
		"cache.dsn":                "",
		"cache.max_open_conns":     25,
		"cache.max_idle_conns":     25,
		"cache.auto_migrate":       true,
		"cache.redis_addr":         "localhost:6379",
		"cache.redis_db":           0,
		"fallback.enabled":         false,
		"fallback.path":            "",
		"commodities.path":         "./config/commodities.yaml",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("AGROMANDI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "AGROMANDI_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
