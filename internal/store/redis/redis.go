// Package redis is a Store on a Redis server. Logs are Redis lists fed with
// LPUSH so LRANGE returns them newest first; values are plain string keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

// Config selects the server and an optional key prefix.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store wraps a go-redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to the server and verifies it answers.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := &Store{client: client, prefix: cfg.Prefix}
	if err := s.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) Append(ctx context.Context, key string, value []byte) error {
	if err := s.client.LPush(ctx, s.key(key), value).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", key, err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context, key string) ([][]byte, error) {
	vals, err := s.client.LRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", key, err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.client.Close() }
