package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/logging"
)

// GuardState is the validation state of a restored session
type GuardState int

const (
	StateValidating GuardState = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// UserFetcher returns the user owning the current token
type UserFetcher interface {
	Me(ctx context.Context) (*api.User, error)
}

// Guard validates the stored token once before protected work runs.
type Guard struct {
	api    UserFetcher
	store  *Store
	logger *slog.Logger

	mu    sync.Mutex
	state GuardState
}

func NewGuard(client UserFetcher, store *Store, logger *slog.Logger) *Guard {
	return &Guard{api: client, store: store, logger: logging.OrDiscard(logger)}
}

// State returns the current guard state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) set(s GuardState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Check resolves the guard. Without a token it makes no call. With a token it
// calls the current-user endpoint exactly once; any failure clears the local
// session.
func (g *Guard) Check(ctx context.Context) GuardState {
	g.set(StateValidating)

	if !g.store.IsAuthenticated() {
		g.set(StateUnauthenticated)
		return StateUnauthenticated
	}

	user, err := g.api.Me(ctx)
	if err != nil {
		g.logger.Warn("stored session rejected", "error", err)
		g.store.Logout(ctx, nil)
		g.set(StateUnauthenticated)
		return StateUnauthenticated
	}

	if err := g.store.SetUser(ctx, *user); err != nil {
		g.logger.Warn("failed to persist refreshed user", "error", err)
	}
	g.set(StateAuthenticated)
	return StateAuthenticated
}
