package cacheinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycService is an in-process byte cache backed by a sturdyc client.
// Entries expire after the client-wide TTL; the ttl passed to Set is ignored.
type SturdycService struct {
	client *sturdyc.Client[[]byte]
}

// NewSturdycService validates cfg and builds the sturdyc client.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		options...,
	)
	return &SturdycService{client: client}, nil
}

func (s *SturdycService) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	return value, ok, nil
}

func (s *SturdycService) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.client.Set(key, value)
	return nil
}

func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// Size reports the number of live entries.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
