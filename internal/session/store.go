// Package session holds the signed-in user and bearer token, the auth flows
// that establish them, and the guard that validates a restored session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/keychain"
	"github.com/Gyana491/contentflow/internal/kv"
	"github.com/Gyana491/contentflow/internal/logging"
)

// SnapshotKey is the durable key holding the serialized session
const SnapshotKey = "auth-storage"

// snapshot is the persisted session shape. The token itself lives in the keychain.
type snapshot struct {
	State struct {
		User            *api.User `json:"user"`
		IsAuthenticated bool      `json:"isAuthenticated"`
	} `json:"state"`
	Version int `json:"version"`
}

// Store is the session state shared by every component of one process.
type Store struct {
	kc      keychain.Keychain
	durable kv.Store
	scope   kv.Store
	logger  *slog.Logger

	mu     sync.RWMutex
	user   *api.User
	token  string
	errMsg string
}

// Option configures a Store
type Option func(*Store)

// WithSessionScope sets the store that is wiped whenever a session starts or ends
func WithSessionScope(s kv.Store) Option {
	return func(st *Store) { st.scope = s }
}

// NewStore creates an empty store; call Restore to load persisted state.
func NewStore(kc keychain.Keychain, durable kv.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kc:      kc,
		durable: durable,
		logger:  logging.OrDiscard(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the token from the keychain and the user from the snapshot.
// A missing token or snapshot is not an error.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.kc.Get(keychain.KeyAuthToken)
	if err != nil && !errors.Is(err, keychain.ErrNotFound) {
		return fmt.Errorf("failed to read auth token: %w", err)
	}

	user, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("ignoring unreadable session snapshot", "error", err)
		user = nil
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Login records a new session: user and token in memory, token in the
// keychain, user in the snapshot. The session scope starts empty.
func (s *Store) Login(ctx context.Context, user api.User, token string) error {
	if token == "" {
		return errors.New("cannot log in with an empty token")
	}

	if err := s.kc.Set(keychain.KeyAuthToken, token); err != nil {
		return fmt.Errorf("failed to store auth token: %w", err)
	}
	if err := s.writeSnapshot(ctx, &user); err != nil {
		return err
	}
	if s.scope != nil {
		if err := s.scope.Clear(ctx); err != nil {
			s.logger.Warn("failed to reset session scope", "error", err)
		}
	}

	s.mu.Lock()
	s.user = &user
	s.token = token
	s.errMsg = ""
	s.mu.Unlock()
	return nil
}

// SetUser replaces the in-memory and persisted user without touching the token.
func (s *Store) SetUser(ctx context.Context, user api.User) error {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return s.writeSnapshot(ctx, &user)
}

func (s *Store) writeSnapshot(ctx context.Context, user *api.User) error {
	var snap snapshot
	snap.State.User = user
	snap.State.IsAuthenticated = user != nil
	if err := kv.SetJSON(ctx, s.durable, SnapshotKey, snap); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Logout calls revoke (best effort, may be nil) and then always clears local
// state. Local clearing failures are logged; Logout never fails.
func (s *Store) Logout(ctx context.Context, revoke func(context.Context) error) {
	if revoke != nil && s.IsAuthenticated() {
		if err := revoke(ctx); err != nil {
			s.logger.Warn("server logout failed, clearing local session anyway", "error", err)
		}
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.kc.Delete(keychain.KeyAuthToken); err != nil && !errors.Is(err, keychain.ErrNotFound) {
		s.logger.Error("failed to delete auth token", "error", err)
	}
	if err := s.durable.Delete(ctx, SnapshotKey); err != nil {
		s.logger.Error("failed to delete session snapshot", "error", err)
	}
	if s.scope != nil {
		if err := s.scope.Clear(ctx); err != nil {
			s.logger.Error("failed to clear session scope", "error", err)
		}
	}
}

// IsAuthenticated is exactly Token() != ""
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Token returns the bearer token; it satisfies api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the in-memory user id, or ""
func (s *Store) UserID() string {
	if u := s.User(); u != nil {
		return u.ID
	}
	return ""
}

// Snapshot reads the persisted user straight from storage, bypassing memory.
func (s *Store) Snapshot(ctx context.Context) (*api.User, error) {
	raw, err := s.durable.Get(ctx, SnapshotKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to parse session snapshot: %w", err)
	}
	return snap.State.User, nil
}

// SetError records the user-visible error message
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

// ClearError removes the error message
func (s *Store) ClearError() {
	s.SetError("")
}

// Error returns the current error message, or ""
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// TokenExpiry reads the exp claim of a JWT bearer token without verifying
// it. Opaque tokens and tokens without exp yield the zero time.
func TokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
