package cacheinfra

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/goliatone/go-translations/pkg/interfaces"
)

// ValkeyConfig holds the connection settings for the valkey backend.
type ValkeyConfig struct {
	URL       string // e.g. redis://localhost:6379/0
	KeyPrefix string
	Logger    interfaces.Logger
}

// ValkeyService is a byte cache backed by the valkey-go client.
type ValkeyService struct {
	client    valkey.Client
	keyPrefix string
}

// NewValkeyService parses cfg.URL, connects and pings the server.
// valkey-go dials inside NewClient, so a server that refuses the
// connection is still an error. A failed ping on an established client is
// logged and the client is kept.
func NewValkeyService(cfg ValkeyConfig) (*ValkeyService, error) {
	opts, err := valkey.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		loggerOrNoOp(cfg.Logger).Warn("valkey ping failed at startup, continuing without cache",
			"addrs", opts.InitAddress, "error", err)
	}

	return &ValkeyService{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

func (s *ValkeyService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.keyPrefix+key).Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	val, err := resp.AsBytes()
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores value under key. Sub-second TTLs round up to one second and a
// non-positive ttl stores without expiry.
func (s *ValkeyService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.client.B().Set().Key(s.keyPrefix + key).Value(valkey.BinaryString(value))
	if ttl <= 0 {
		return s.client.Do(ctx, set.Build()).Error()
	}

	seconds := int64(ttl.Seconds())
	if seconds == 0 {
		seconds = 1
	}
	return s.client.Do(ctx, set.ExSeconds(seconds).Build()).Error()
}

func (s *ValkeyService) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.keyPrefix+key).Build()).Error()
}

// Close releases the client.
func (s *ValkeyService) Close() error {
	s.client.Close()
	return nil
}
