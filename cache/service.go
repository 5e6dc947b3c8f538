package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

// CacheService is the byte-level contract implemented by every cache backend.
// A missing key is reported as found=false with a nil error.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// ReadThrough pairs a cache backend with a TTL and codec for values of type T.
//
// Get and Invalidate are fail-open: backend errors are logged and treated as
// a miss (Get) or ignored (Invalidate) so an unreachable cache never fails
// the caller. Errors returned by the FetchFn are always propagated.
type ReadThrough[T any] struct {
	Service CacheService
	TTL     time.Duration
	Codec   Codec
	Logger  interfaces.Logger
}

// Get returns the cached value for key or loads it with fetchFn and stores
// the result under key for TTL.
func (r ReadThrough[T]) Get(ctx context.Context, key string, fetchFn FetchFn[T]) (T, error) {
	if value, ok := r.lookup(ctx, key); ok {
		return value, nil
	}

	value, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	r.store(ctx, key, value)
	return value, nil
}

// Invalidate removes key from the backend. The error is returned for callers
// that want it but has already been logged.
func (r ReadThrough[T]) Invalidate(ctx context.Context, key string) error {
	if r.Service == nil {
		return nil
	}
	if err := r.Service.Delete(ctx, key); err != nil {
		r.logger().Warn("cache invalidate failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (r ReadThrough[T]) lookup(ctx context.Context, key string) (T, bool) {
	var value T
	if r.Service == nil {
		return value, false
	}

	data, found, err := r.Service.Get(ctx, key)
	if err != nil {
		r.logger().Warn("cache read failed, loading from source", "key", key, "error", err)
		return value, false
	}
	if !found {
		return value, false
	}

	if err := r.codec().Unmarshal(data, &value); err != nil {
		r.logger().Warn("cache entry undecodable, loading from source", "key", key, "error", err)
		var zero T
		return zero, false
	}
	return value, true
}

func (r ReadThrough[T]) store(ctx context.Context, key string, value T) {
	if r.Service == nil {
		return
	}

	data, err := r.codec().Marshal(value)
	if err != nil {
		r.logger().Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.Service.Set(ctx, key, data, r.TTL); err != nil {
		r.logger().Warn("cache write failed", "key", key, "error", err)
	}
}

func (r ReadThrough[T]) codec() Codec {
	if r.Codec == nil {
		return MsgpackCodec()
	}
	return r.Codec
}

func (r ReadThrough[T]) logger() interfaces.Logger {
	if r.Logger == nil {
		return logging.NoOp()
	}
	return r.Logger
}

// GetOrFetch is the one-shot form of ReadThrough.Get using the default codec.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	return ReadThrough[T]{Service: service, TTL: ttl}.Get(ctx, key, fetchFn)
}
