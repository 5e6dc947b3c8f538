package config

import (
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-translations/cache"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRANSLATIONS_"

// Config is the process configuration.
type Config struct {
	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Cache     CacheConfig     `envPrefix:"CACHE_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Logging   LoggingConfig   `envPrefix:"LOG_"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR"             envDefault:":8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT"     envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	Driver       string `env:"DRIVER"         envDefault:"sqlite"`
	DSN          string `env:"DSN"            envDefault:"file:translations.db?cache=shared&_fk=1"`
	Debug        bool   `env:"DEBUG"          envDefault:"false"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
}

type CacheConfig struct {
	Backend            string        `env:"BACKEND"             envDefault:"memory"`
	URL                string        `env:"URL"`
	KeyPrefix          string        `env:"KEY_PREFIX"`
	TTL                time.Duration `env:"TTL"                 envDefault:"1h"`
	Capacity           int           `env:"CAPACITY"            envDefault:"10000"`
	NumShards          int           `env:"NUM_SHARDS"          envDefault:"256"`
	EvictionPercentage int           `env:"EVICTION_PERCENTAGE" envDefault:"10"`
}

// AuthConfig holds token signing settings and the static user list. Users
// are "email:bcrypt-hash" pairs separated by commas.
type AuthConfig struct {
	Secret   string        `env:"SECRET"`
	Issuer   string        `env:"ISSUER"    envDefault:"go-translations"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	Users    []string      `env:"USERS"     envSeparator:","`
}

type RateLimitConfig struct {
	PerMinute       int `env:"PER_MINUTE"        envDefault:"60"`
	ExportPerMinute int `env:"EXPORT_PER_MINUTE" envDefault:"120"`
}

type LoggingConfig struct {
	Level     string `env:"LEVEL"      envDefault:"info"`
	Format    string `env:"FORMAT"     envDefault:"json"`
	AddSource bool   `env:"ADD_SOURCE" envDefault:"false"`
}

// Load reads the configuration from the process environment and validates
// it.
func Load() (Config, error) {
	return load(env.Options{Prefix: EnvPrefix})
}

// LoadFrom reads the configuration from vars instead of the process
// environment. Keys must carry EnvPrefix.
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func load(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: parse environment").
			WithTextCode("CONFIG_PARSE")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Database),
		validation.Field(&c.Cache),
		validation.Field(&c.Auth),
		validation.Field(&c.RateLimit),
		validation.Field(&c.Logging),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid configuration").WithTextCode("CONFIG_INVALID")
	}
	return nil
}

func (h HTTPConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Addr, validation.Required),
		validation.Field(&h.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&h.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&h.IdleTimeout, validation.Min(time.Duration(0))),
		validation.Field(&h.ShutdownTimeout, validation.Required),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In("sqlite", "postgres")),
		validation.Field(&d.DSN, validation.Required),
		validation.Field(&d.MaxOpenConns, validation.Required, validation.Min(1)),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(cache.BackendMemory, cache.BackendRedis, cache.BackendValkey)),
		validation.Field(&c.URL, validation.When(c.Backend != cache.BackendMemory, validation.Required)),
		validation.Field(&c.TTL, validation.Required),
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// ToCache converts the section into the cache package configuration.
func (c CacheConfig) ToCache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.Backend
	cfg.URL = c.URL
	cfg.KeyPrefix = c.KeyPrefix
	cfg.TTL = c.TTL
	cfg.Capacity = c.Capacity
	cfg.NumShards = c.NumShards
	cfg.EvictionPercentage = c.EvictionPercentage
	return cfg
}

func (a AuthConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Secret, validation.Length(32, 0)),
		validation.Field(&a.Issuer, validation.Required),
		validation.Field(&a.TokenTTL, validation.Required),
		validation.Field(&a.Users, validation.Each(validation.By(validateUserEntry))),
	)
}

func validateUserEntry(value any) error {
	entry, _ := value.(string)
	email, hash, ok := strings.Cut(entry, ":")
	if !ok || strings.TrimSpace(hash) == "" {
		return validation.NewError("config.auth.user_format", "must be email:bcrypt-hash")
	}
	return is.EmailFormat.Validate(strings.TrimSpace(email))
}

func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PerMinute, validation.Required, validation.Min(1)),
		validation.Field(&r.ExportPerMinute, validation.Required, validation.Min(1)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal")),
		validation.Field(&l.Format, validation.In("json", "console", "pretty")),
	)
}
