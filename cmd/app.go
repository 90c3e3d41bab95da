package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/config"
	"github.com/Gyana491/contentflow/internal/editor"
	"github.com/Gyana491/contentflow/internal/handoff"
	"github.com/Gyana491/contentflow/internal/kv"
	"github.com/Gyana491/contentflow/internal/linkedin"
	"github.com/Gyana491/contentflow/internal/logging"
	"github.com/Gyana491/contentflow/internal/posts"
	"github.com/Gyana491/contentflow/internal/session"
	"github.com/Gyana491/contentflow/internal/tracing"
)

// sessionTTL bounds the session scope on shared backends
const sessionTTL = 7 * 24 * time.Hour

var errNotLoggedIn = errors.New("not logged in: please run 'contentflow login' first")

// app is the per-invocation wiring shared by every command
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	durable kv.Store
	scope   kv.Store
	session *session.Store
	client  *api.Client

	shutdown func(context.Context) error
}

// newApp loads configuration and restores the persisted session.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	if cfg.IsInsecure() {
		logger.Warn("server URL uses plain http on a non-local host", "url", cfg.Server.URL)
	}

	shutdown, err := tracing.Init(tracing.Config{
		ServiceName:    "contentflow",
		ServiceVersion: version,
		Enabled:        cfg.Tracing.Enabled,
		Exporter:       cfg.Tracing.Exporter,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	opts := kv.Options{
		Backend:    cfg.Storage.Backend,
		Directory:  cfg.Storage.Directory,
		RedisURL:   cfg.Storage.RedisURL,
		SessionTTL: sessionTTL,
	}
	durable, err := kv.Open(opts, kv.ScopeDurable)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	scope, err := kv.Open(opts, kv.ScopeSession)
	if err != nil {
		closeStore(durable)
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store := session.NewStore(keychainFactory(), durable, logger, session.WithSessionScope(scope))
	if err := store.Restore(cmd.Context()); err != nil {
		closeStore(durable)
		closeStore(scope)
		return nil, err
	}

	client := api.NewClient(cfg.Server.URL,
		api.WithTimeout(cfg.Server.Timeout),
		api.WithTokenSource(store),
		api.WithLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		durable:  durable,
		scope:    scope,
		session:  store,
		client:   client,
		shutdown: shutdown,
	}, nil
}

func closeStore(s kv.Store) {
	if c, ok := s.(io.Closer); ok {
		_ = c.Close()
	}
}

// Close flushes traces and releases storage connections
func (a *app) Close() {
	if err := a.shutdown(context.Background()); err != nil {
		a.logger.Warn("failed to flush traces", "error", err)
	}
	closeStore(a.durable)
	closeStore(a.scope)
}

// requireAuth validates the restored session against the server.
func (a *app) requireAuth(ctx context.Context) error {
	guard := session.NewGuard(a.client, a.session, a.logger)
	if guard.Check(ctx) != session.StateAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) auth() *session.Auth {
	return session.NewAuth(a.client, a.session)
}

func (a *app) linkedIn() *linkedin.Manager {
	return linkedin.NewManager(a.client, a.scope, a.session, a.logger,
		linkedin.WithRefreshInterval(a.cfg.LinkedIn.RefreshInterval),
		linkedin.WithRefreshWindow(a.cfg.LinkedIn.RefreshWindow),
	)
}

func (a *app) repository() *posts.Repository {
	return posts.NewRepository(a.client, a.session, a.logger)
}

func (a *app) handoff() *handoff.Store {
	return handoff.NewStore(a.durable, a.logger)
}

func (a *app) publisher(repo *posts.Repository) *editor.Publisher {
	return editor.NewPublisher(a.client, repo, a.cfg.TimezoneName(), a.logger)
}

// identity loads the LinkedIn connection and pairs it with the signed-in user.
func (a *app) identity(ctx context.Context, m *linkedin.Manager) editor.Identity {
	id := editor.Identity{UserID: a.session.UserID()}
	if m.CheckConnectionStatus(ctx) {
		id.LinkedInAuthID = m.Connection().LinkedInAuthID
	}
	return id
}
