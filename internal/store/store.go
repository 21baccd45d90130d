// Package store is the local persistence seam: append-only record logs and a
// small key/value area for caches, addressed by string keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = errors.New("store: not found")

// Store persists opaque payloads. Appends are atomic: a concurrent reader
// sees the log either with or without the new entry, never a partial one.
type Store interface {
	// Append adds value to the log at key.
	Append(ctx context.Context, key string, value []byte) error
	// ListAll returns every entry of the log at key, newest first. An unknown
	// key yields an empty list.
	ListAll(ctx context.Context, key string) ([][]byte, error)
	// Get returns the value at key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put overwrites the value at key.
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Pinger is implemented by backends that can report their liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AppendJSON marshals v and appends it to the log at key.
func AppendJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s entry: %w", key, err)
	}
	return s.Append(ctx, key, b)
}

// ListJSON decodes every entry of the log at key, newest first.
func ListJSON[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.ListAll(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, b := range raw {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decoding %s entry %d: %w", key, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetJSON decodes the value at key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// PutJSON marshals v and stores it at key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return s.Put(ctx, key, b)
}
