package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-translations/pkg/interfaces"
)

const (
	rootModule         = "translations"
	repositoryModule   = "translations.repository"
	cacheModule        = "translations.cache"
	apiModule          = "translations.api"
	authModule         = "translations.auth"
	seedingModule      = "translations.seeding"
	fieldModule        = "module"
	fieldLocale        = "locale"
	fieldCacheKey      = "cache_key"
	fieldTranslationID = "translation_id"
)

// ModuleLogger returns a logger scoped to module. A nil provider yields a
// no-op logger so callers never have to nil-check.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{fieldModule: module})
}

func RepositoryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, repositoryModule)
}

func CacheLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, cacheModule)
}

func APILogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, apiModule)
}

func AuthLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, authModule)
}

func SeedingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, seedingModule)
}

// WithFields attaches structured fields when the logger supports them.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// WithCacheContext tags entries with the locale and cache key involved in an
// export cache operation. Empty values are skipped.
func WithCacheContext(logger interfaces.Logger, locale, key string) interfaces.Logger {
	fields := map[string]any{}
	if locale != "" {
		fields[fieldLocale] = locale
	}
	if key != "" {
		fields[fieldCacheKey] = key
	}
	return WithFields(logger, fields)
}

// WithTranslation tags entries with a translation id.
func WithTranslation(logger interfaces.Logger, id string) interfaces.Logger {
	if id == "" {
		return logger
	}
	return WithFields(logger, map[string]any{fieldTranslationID: id})
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
