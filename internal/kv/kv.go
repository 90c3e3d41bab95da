// Package kv provides the small key/value stores the client persists its
// state in: a durable scope that survives logout and a session scope that is
// wiped whenever a new session starts.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("key not found")

// Scopes opened by the client
const (
	ScopeDurable = "local"
	ScopeSession = "session"
)

// Store is a string key/value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key in the store's scope.
	Clear(ctx context.Context) error
}

// Options selects and configures a backend
type Options struct {
	Backend    string // "file" (default), "memory" or "redis"
	Directory  string
	RedisURL   string
	SessionTTL time.Duration
}

// Open returns the store for scope using the configured backend.
func Open(opts Options, scope string) (Store, error) {
	switch opts.Backend {
	case "", "file":
		if opts.Directory == "" {
			return nil, errors.New("storage directory is required for the file backend")
		}
		return NewFileStore(filepath.Join(opts.Directory, scope+".json")), nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		var ttl time.Duration
		if scope == ScopeSession {
			ttl = opts.SessionTTL
		}
		return NewRedisStoreFromURL(opts.RedisURL, scope, ttl)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}

// GetJSON decodes the value stored under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v under key as JSON.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
