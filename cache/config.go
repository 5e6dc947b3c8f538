package cache

import (
	"strings"
	"time"

	"github.com/goliatone/go-translations/internal/cacheinfra"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// Supported cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendValkey = "valkey"
)

// DefaultTTL is how long an export snapshot stays cached.
const DefaultTTL = time.Hour

// Config selects and configures the cache backend.
//
// Capacity, NumShards, EvictionPercentage and EvictionInterval apply to the
// in-process memory backend only. URL and KeyPrefix apply to the external
// backends. Logger receives backend startup warnings and may be nil.
type Config struct {
	Backend            string
	URL                string
	KeyPrefix          string
	TTL                time.Duration
	Capacity           int
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration
	Logger             interfaces.Logger
}

// DefaultConfig returns an in-process cache with a one hour TTL.
func DefaultConfig() Config {
	mem := cacheinfra.DefaultConfig()
	return Config{
		Backend:            BackendMemory,
		TTL:                DefaultTTL,
		Capacity:           mem.Capacity,
		NumShards:          mem.NumShards,
		EvictionPercentage: mem.EvictionPercentage,
		EvictionInterval:   mem.EvictionInterval,
	}
}

// Validate checks whether the configuration values are valid for the
// selected backend.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &cacheinfra.ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	switch c.backend() {
	case BackendMemory:
		return c.toSturdyc().Validate()
	case BackendRedis, BackendValkey:
		if strings.TrimSpace(c.URL) == "" {
			return &cacheinfra.ConfigError{Field: "URL", Message: "is required for " + c.backend()}
		}
		return nil
	default:
		return &cacheinfra.ConfigError{Field: "Backend", Message: "unsupported backend " + c.Backend}
	}
}

// NewCacheService constructs the backend named by cfg.Backend.
func NewCacheService(cfg Config) (CacheService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.backend() {
	case BackendRedis:
		return cacheinfra.NewRedisService(cacheinfra.RedisConfig{URL: cfg.URL, KeyPrefix: cfg.KeyPrefix, Logger: cfg.Logger})
	case BackendValkey:
		return cacheinfra.NewValkeyService(cacheinfra.ValkeyConfig{URL: cfg.URL, KeyPrefix: cfg.KeyPrefix, Logger: cfg.Logger})
	default:
		return cacheinfra.NewSturdycService(cfg.toSturdyc())
	}
}

func (c Config) backend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return BackendMemory
	}
	return backend
}

func (c Config) toSturdyc() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}
