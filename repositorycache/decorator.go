package repositorycache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-translations/cache"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/goliatone/go-translations/translations"
)

const (
	// ExportNamespace prefixes every export cache key.
	ExportNamespace = "translations_export"
	// ExportTTL is how long an export snapshot may be served from cache.
	ExportTTL = 3600 * time.Second
)

// Interface assertion to ensure CachedRepository implements translations.Repository
var _ translations.Repository = (*CachedRepository)(nil)

// CachedRepository decorates a translations.Repository with locale-scoped
// export caching. Exports are read through the cache; every successful
// mutation removes the export of the affected locale after the base
// repository has committed. FindByID and Search are never cached.
type CachedRepository struct {
	base          translations.Repository
	exports       cache.ReadThrough[translations.Export]
	keySerializer cache.KeySerializer
	logger        interfaces.Logger
}

// Option customises a CachedRepository.
type Option func(*CachedRepository)

func WithLogger(logger interfaces.Logger) Option {
	return func(c *CachedRepository) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTTL overrides ExportTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachedRepository) {
		if ttl > 0 {
			c.exports.TTL = ttl
		}
	}
}

// New creates a CachedRepository. A nil keySerializer uses the default "_"
// separator, producing keys such as translations_export_en.
func New(base translations.Repository, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedRepository {
	if keySerializer == nil {
		keySerializer = cache.NewDefaultKeySerializer()
	}
	c := &CachedRepository{
		base:          base,
		keySerializer: keySerializer,
		logger:        logging.NoOp(),
		exports: cache.ReadThrough[translations.Export]{
			Service: cacheService,
			TTL:     ExportTTL,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.exports.Logger = c.logger
	return c
}

// ExportKey returns the cache key holding the export of localeCode.
func (c *CachedRepository) ExportKey(localeCode string) string {
	return c.keySerializer.SerializeKey(ExportNamespace, localeCode)
}

// ExportByLocale serves the locale export from cache, computing and storing
// it on a miss.
func (c *CachedRepository) ExportByLocale(ctx context.Context, localeCode string) (translations.Export, error) {
	key := c.ExportKey(localeCode)
	return c.exports.Get(ctx, key, func(ctx context.Context) (translations.Export, error) {
		logging.WithCacheContext(c.logger, localeCode, key).Debug("export cache miss")
		return c.base.ExportByLocale(ctx, localeCode)
	})
}

// Create passes through to the base repository and invalidates the export of
// the new translation's locale.
func (c *CachedRepository) Create(ctx context.Context, in translations.CreateInput) (*translations.Translation, error) {
	record, err := c.base.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidateRecordLocale(ctx, record)
	return record, nil
}

// Update passes through to the base repository and invalidates the export of
// the translation's locale.
func (c *CachedRepository) Update(ctx context.Context, existing *translations.Translation, in translations.UpdateInput) (*translations.Translation, error) {
	record, err := c.base.Update(ctx, existing, in)
	if err != nil {
		return nil, err
	}
	if record != nil && record.Locale == nil && existing != nil {
		record.Locale = existing.Locale
	}
	c.invalidateRecordLocale(ctx, record)
	return record, nil
}

// Delete passes through to the base repository and invalidates the export of
// the translation's locale only when a row was actually deleted.
func (c *CachedRepository) Delete(ctx context.Context, existing *translations.Translation) (bool, error) {
	code := existing.LocaleCode()
	if code == "" && existing != nil {
		// resolve the locale before the row disappears from live reads
		if current, found, err := c.base.FindByID(ctx, existing.ID); err == nil && found {
			code = current.LocaleCode()
		}
	}

	deleted, err := c.base.Delete(ctx, existing)
	if err != nil || !deleted {
		return deleted, err
	}
	if code != "" {
		c.InvalidateLocale(ctx, code)
	}
	return true, nil
}

func (c *CachedRepository) FindByID(ctx context.Context, id uuid.UUID) (*translations.Translation, bool, error) {
	return c.base.FindByID(ctx, id)
}

func (c *CachedRepository) Search(ctx context.Context, filters translations.SearchFilters) (*translations.Page, error) {
	return c.base.Search(ctx, filters)
}

// InvalidateLocale drops the cached export of localeCode. Backend errors are
// logged and swallowed.
func (c *CachedRepository) InvalidateLocale(ctx context.Context, localeCode string) {
	key := c.ExportKey(localeCode)
	if err := c.exports.Invalidate(ctx, key); err != nil {
		return
	}
	logging.WithCacheContext(c.logger, localeCode, key).Debug("export cache invalidated")
}

func (c *CachedRepository) invalidateRecordLocale(ctx context.Context, record *translations.Translation) {
	code := record.LocaleCode()
	if code == "" {
		c.logger.Warn("translation without loaded locale, export cache not invalidated", "translation_id", translationID(record))
		return
	}
	c.InvalidateLocale(ctx, code)
}

func translationID(record *translations.Translation) string {
	if record == nil {
		return ""
	}
	return record.ID.String()
}
