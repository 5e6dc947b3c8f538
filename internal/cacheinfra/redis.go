package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
)

const connectionTimeout = 5 * time.Second

// RedisConfig holds the connection settings for the redis backend.
type RedisConfig struct {
	URL       string // e.g. redis://localhost:6379/0
	KeyPrefix string // prepended to every key, may be empty
	Logger    interfaces.Logger
}

// RedisService is a byte cache backed by a go-redis client.
type RedisService struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisService parses cfg.URL and pings the server. Only a malformed
// URL is an error: an unreachable server is logged and the client is kept,
// so cache reads miss until it comes back.
func NewRedisService(cfg RedisConfig) (*RedisService, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		loggerOrNoOp(cfg.Logger).Warn("redis unreachable at startup, continuing without cache",
			"addr", opts.Addr, "error", err)
	}

	return NewRedisServiceFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisServiceFromClient wraps an existing client.
func NewRedisServiceFromClient(client *redis.Client, keyPrefix string) *RedisService {
	return &RedisService{client: client, keyPrefix: keyPrefix}
}

func (s *RedisService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value under key. A non-positive ttl stores without expiry.
func (s *RedisService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err()
}

func (s *RedisService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}

// Close releases the underlying connection pool.
func (s *RedisService) Close() error {
	return s.client.Close()
}

func loggerOrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
