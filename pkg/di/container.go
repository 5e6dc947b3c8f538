package di

import (
	"context"
	"errors"
	"io"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translations/cache"
	"github.com/goliatone/go-translations/internal/config"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/internal/logging/gologger"
	"github.com/goliatone/go-translations/internal/seeding"
	"github.com/goliatone/go-translations/internal/storage"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/goliatone/go-translations/repositorycache"
	"github.com/goliatone/go-translations/translations"
)

// Container is the composition root of the translation store. It owns the
// process-wide database and cache handles and builds every repository on
// top of them, so all callers share one export cache and one invalidation
// path.
type Container struct {
	db             *bun.DB
	ownsDB         bool
	cacheService   cache.CacheService
	keySerializer  cache.KeySerializer
	cacheConfig    cache.Config
	loggerProvider interfaces.LoggerProvider

	locales      *translations.LocaleRepository
	tags         *translations.TagRepository
	translations *repositorycache.CachedRepository
}

// Option customises a Container before its repositories are built.
type Option func(*Container)

// WithLoggerProvider sets the provider used for every module logger.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCacheService replaces the backend selected by the cache config. Tests
// use it to inject fakes.
func WithCacheService(service cache.CacheService) Option {
	return func(c *Container) {
		c.cacheService = service
	}
}

// WithKeySerializer overrides the default "_" separated key serializer.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(c *Container) {
		c.keySerializer = serializer
	}
}

// NewContainer wires repositories over an already opened database. The
// cache backend is built from cacheConfig unless WithCacheService supplied
// one.
func NewContainer(db *bun.DB, cacheConfig cache.Config, opts ...Option) (*Container, error) {
	if db == nil {
		return nil, errors.New("di: database is required")
	}

	c := &Container{
		db:          db,
		cacheConfig: cacheConfig,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cacheService == nil {
		if cacheConfig.Logger == nil {
			cacheConfig.Logger = logging.CacheLogger(c.loggerProvider)
		}
		service, err := cache.NewCacheService(cacheConfig)
		if err != nil {
			return nil, err
		}
		c.cacheService = service
	}
	if c.keySerializer == nil {
		c.keySerializer = cache.NewDefaultKeySerializer()
	}

	ttl := cacheConfig.TTL
	if ttl <= 0 {
		ttl = repositorycache.ExportTTL
	}

	c.locales = translations.NewLocaleRepository(db)
	c.tags = translations.NewTagRepository(db)
	c.translations = repositorycache.New(
		translations.NewBunRepository(db, translations.WithLogger(logging.RepositoryLogger(c.loggerProvider))),
		c.cacheService,
		c.keySerializer,
		repositorycache.WithLogger(logging.CacheLogger(c.loggerProvider)),
		repositorycache.WithTTL(ttl),
	)

	return c, nil
}

// NewContainerFromConfig builds the logger provider, opens the database and
// wires the container from cfg. The returned container owns the database
// and closes it in Close.
func NewContainerFromConfig(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, storage.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		Debug:        cfg.Database.Debug,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithLoggerProvider(provider)}, opts...)
	c, err := NewContainer(db, cfg.Cache.ToCache(), opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.ownsDB = true
	return c, nil
}

// DB returns the shared database handle.
func (c *Container) DB() *bun.DB {
	return c.db
}

// CacheService returns the shared cache backend.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the key serializer used for export keys.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// CacheConfig returns the cache configuration the container was built with.
func (c *Container) CacheConfig() cache.Config {
	return c.cacheConfig
}

// Logger returns a logger scoped to module.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// LoggerProvider returns the configured provider, or nil.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) Locales() *translations.LocaleRepository {
	return c.locales
}

func (c *Container) Tags() *translations.TagRepository {
	return c.tags
}

// Translations returns the export-caching translation repository.
func (c *Container) Translations() *repositorycache.CachedRepository {
	return c.translations
}

// Generator returns a bulk generator that invalidates exports through the
// shared cached repository.
func (c *Container) Generator() *seeding.Generator {
	return seeding.NewGenerator(c.db,
		seeding.WithInvalidator(c.translations),
		seeding.WithLogger(logging.SeedingLogger(c.loggerProvider)),
	)
}

// Migrate creates the schema on the shared database.
func (c *Container) Migrate(ctx context.Context) error {
	return storage.Migrate(ctx, c.db)
}

// Ping checks the database connection.
func (c *Container) Ping(ctx context.Context) error {
	return storage.Ping(ctx, c.db)
}

// Close releases the cache backend and, when owned, the database.
func (c *Container) Close() error {
	var errs []error
	if closer, ok := c.cacheService.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if c.ownsDB {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}
