// Package config holds the lainchan client configuration.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/user7210unix/lainchan/cache"
	"github.com/user7210unix/lainchan/fetch"
	"github.com/user7210unix/lainchan/lainchan"
)

// Cache backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendMemcache = "memcache"
)

// Config represents the client config
type Config struct {
	APIBase       string        `yaml:"api_base"`
	PrimaryProxy  string        `yaml:"primary_proxy"`
	FallbackProxy string        `yaml:"fallback_proxy"`
	Origin        string        `yaml:"origin"`
	Retries       int           `yaml:"retries"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	Cache         CacheConfig   `yaml:"cache"`
	LogLevel      string        `yaml:"log_level"`
	// MetricsAddr enables the diagnostics listener when set
	MetricsAddr string `yaml:"metrics_addr"`
}

// CacheConfig represents the cache section of the config
type CacheConfig struct {
	Backend      string        `yaml:"backend"`
	TTL          time.Duration `yaml:"ttl"`
	Prefix       string        `yaml:"prefix"`
	File         string        `yaml:"file"`
	MemcacheAddr string        `yaml:"memcache_addr"`
}

// Default returns the config used when no file is given
func Default() *Config {
	return &Config{
		APIBase:       lainchan.DefaultAPIBase,
		PrimaryProxy:  fetch.DefaultPrimaryProxy,
		FallbackProxy: fetch.DefaultFallbackProxy,
		Retries:       fetch.DefaultRetries,
		Timeout:       fetch.DefaultTimeout,
		RetryDelay:    fetch.DefaultRetryDelay,
		Cache: CacheConfig{
			Backend:      BackendFile,
			TTL:          cache.DefaultTTL,
			Prefix:       cache.DefaultPrefix,
			File:         defaultCacheFile(),
			MemcacheAddr: "127.0.0.1:11211",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	return c, nil
}

// Validate checks the config for values the client cannot work with
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return errors.New("api_base cannot be empty")
	}
	if c.PrimaryProxy == "" || c.FallbackProxy == "" {
		return errors.New("primary_proxy and fallback_proxy are required")
	}
	if c.Retries < 0 {
		return errors.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry_delay must not be negative")
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Cache.File == "" {
			return errors.New("cache.file is required for the file backend")
		}
	case BackendMemcache:
		if c.Cache.MemcacheAddr == "" {
			return errors.New("cache.memcache_addr is required for the memcache backend")
		}
	default:
		return errors.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}

	return nil
}

// Level returns the configured log level, info when unparseable
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Fetch returns the fetch pipeline config
func (c *Config) Fetch() *fetch.Config {
	return &fetch.Config{
		PrimaryProxy:  c.PrimaryProxy,
		FallbackProxy: c.FallbackProxy,
		Origin:        c.Origin,
		Retries:       c.Retries,
		Timeout:       c.Timeout,
		RetryDelay:    c.RetryDelay,
	}
}

// OpenCache creates the configured cache backend and wraps it in a Cache
func (c *Config) OpenCache() (*cache.Cache, error) {
	var b cache.Backend
	var err error
	switch c.Cache.Backend {
	case BackendMemory:
		b = cache.NewMemoryBackend()
	case BackendFile:
		b, err = cache.NewFileBackend(c.Cache.File)
	case BackendMemcache:
		b, err = cache.NewMemcacheBackend(c.Cache.MemcacheAddr, c.Cache.TTL)
	default:
		err = errors.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cache")
	}

	return cache.New(b, c.Cache.TTL, c.Cache.Prefix)
}

func defaultCacheFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "lainchan", "cache.json")
}
