// Package linkedin tracks the LinkedIn connection of the signed-in user and
// keeps its provider token fresh.
package linkedin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gyana491/contentflow/internal/api"
	"github.com/Gyana491/contentflow/internal/callback"
	"github.com/Gyana491/contentflow/internal/kv"
	"github.com/Gyana491/contentflow/internal/logging"
)

// Session-scope keys
const (
	KeyLinkedInAuthID = "linkedin_auth_id"
	KeyUserID         = "user_id"
)

const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultRefreshWindow   = 5 * time.Minute
	DefaultExpiresIn       = time.Hour
)

var (
	// ErrAuthRequired is returned when a callback arrives without a signed-in user
	ErrAuthRequired         = api.ValidationError("User authentication required. Please log in first.")
	// ErrNotConnected is returned by operations that need a connection record
	ErrNotConnected         = errors.New("LinkedIn account is not connected")
	// ErrProfileFetchInFlight is returned by a forced profile fetch while another one runs
	ErrProfileFetchInFlight = errors.New("a LinkedIn profile fetch is already in progress")
)

// API is the subset of the REST client used by the manager
type API interface {
	AuthorizationURL(ctx context.Context) (string, error)
	ExchangeCode(ctx context.Context, code, state string) (*api.LinkedInToken, error)
	RefreshToken(ctx context.Context, linkedInAuthID string) (*api.LinkedInToken, error)
	FetchProfile(ctx context.Context, accessToken, linkedInAuthID string) (*api.LinkedInProfile, error)
	CompleteOAuth(ctx context.Context, req api.CompleteOAuthRequest) (*api.CompleteOAuthResponse, []byte, error)
	ConnectionStatus(ctx context.Context, linkedInAuthID string) (*api.ConnectionStatus, error)
}

// UserSource resolves the signed-in user id, in memory first and then from
// persisted state.
type UserSource interface {
	UserID() string
	Snapshot(ctx context.Context) (*api.User, error)
}

// Connection is the client-side record of a LinkedIn connection
type Connection struct {
	LinkedInAuthID   string
	UserID           string
	AccessToken      string
	ExpiresIn        time.Duration
	ConnectedAt      time.Time
	ProfileFetchedAt time.Time
	Profile          api.LinkedInProfile
}

// Expiry is ConnectedAt + ExpiresIn
func (c Connection) Expiry() time.Time {
	return c.ConnectedAt.Add(c.ExpiresIn)
}

// Manager owns the connection record. It is safe for concurrent use by the
// command goroutine and the refresh loop.
type Manager struct {
	api    API
	scope  kv.Store
	users  UserSource
	logger *slog.Logger

	now           func() time.Time
	interval      time.Duration
	window        time.Duration
	defaultExpiry time.Duration

	mu   sync.RWMutex
	conn *Connection

	refreshing atomic.Bool
	fetching   atomic.Bool

	loopMu   sync.Mutex
	stopLoop context.CancelFunc
}

// Option configures a Manager
type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithRefreshWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.window = d
		}
	}
}

// WithDefaultExpiry sets the lifetime assumed when the server omits expiresIn.
func WithDefaultExpiry(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.defaultExpiry = d
		}
	}
}

// NewManager creates a manager with no connection; call CheckConnectionStatus
// to load one.
func NewManager(client API, scope kv.Store, users UserSource, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		api:           client,
		scope:         scope,
		users:         users,
		logger:        logging.OrDiscard(logger),
		now:           time.Now,
		interval:      DefaultRefreshInterval,
		window:        DefaultRefreshWindow,
		defaultExpiry: DefaultExpiresIn,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connection returns a copy of the current record, or nil
func (m *Manager) Connection() *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.conn == nil {
		return nil
	}
	c := *m.conn
	return &c
}

// IsConnected reports whether a connection record is loaded
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn != nil
}

func (m *Manager) set(c *Connection) {
	m.mu.Lock()
	m.conn = c
	m.mu.Unlock()
}

// update applies fn to the record if it still belongs to linkedInAuthID.
func (m *Manager) update(linkedInAuthID string, fn func(c *Connection)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil || m.conn.LinkedInAuthID != linkedInAuthID {
		return false
	}
	fn(m.conn)
	return true
}

func (m *Manager) clear() {
	m.set(nil)
	m.stopRefresh()
}

func (m *Manager) expiresIn(seconds int64) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return m.defaultExpiry
}

// CheckConnectionStatus loads the record for the connection id kept in the
// session scope. Any failure leaves the manager disconnected.
func (m *Manager) CheckConnectionStatus(ctx context.Context) bool {
	id, err := m.scope.Get(ctx, KeyLinkedInAuthID)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			m.logger.Warn("failed to read linkedin connection id", "error", err)
		}
		m.clear()
		return false
	}

	status, err := m.api.ConnectionStatus(ctx, id)
	if err != nil {
		m.logger.Warn("linkedin connection status check failed", "linkedin_auth_id", id, "error", err)
		m.clear()
		return false
	}
	if !status.IsConnected {
		m.logger.Info("linkedin connection expired", "linkedin_auth_id", id)
		m.clear()
		return false
	}

	conn := &Connection{
		LinkedInAuthID: id,
		ExpiresIn:      m.expiresIn(status.ExpiresIn),
		ConnectedAt:    m.now(),
		Profile:        status.Profile,
	}
	if la := status.LinkedInAuth; la != nil {
		if la.ID != "" {
			conn.LinkedInAuthID = la.ID
		}
		if la.ConnectedAt != nil {
			conn.ConnectedAt = *la.ConnectedAt
		}
		if la.ProfileFetchedAt != nil {
			conn.ProfileFetchedAt = *la.ProfileFetchedAt
		}
		if status.ExpiresIn == 0 && la.ExpiresIn > 0 {
			conn.ExpiresIn = m.expiresIn(la.ExpiresIn)
		}
	}
	if status.User != nil {
		conn.UserID = status.User.ID
	} else if uid, err := m.scope.Get(ctx, KeyUserID); err == nil {
		conn.UserID = uid
	}

	m.set(conn)
	return true
}

// Connect returns the provider authorization URL the user must open.
func (m *Manager) Connect(ctx context.Context) (string, error) {
	return m.api.AuthorizationURL(ctx)
}

// Disconnect forgets the connection locally and ends the refresh loop.
func (m *Manager) Disconnect(ctx context.Context) {
	for _, key := range []string{KeyLinkedInAuthID, KeyUserID} {
		if err := m.scope.Delete(ctx, key); err != nil {
			m.logger.Warn("failed to remove session key", "key", key, "error", err)
		}
	}
	m.clear()
}

// RefreshAccessToken asks the backend for a fresh provider token. Only one
// refresh runs at a time; a concurrent call returns immediately with an empty
// token. A 400 means the refresh token is no longer valid and disconnects.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	conn := m.Connection()
	if conn == nil {
		return "", ErrNotConnected
	}
	if !m.refreshing.CompareAndSwap(false, true) {
		m.logger.Debug("token refresh already in flight")
		return "", nil
	}
	defer m.refreshing.Store(false)

	m.logger.Info("refreshing linkedin access token", "linkedin_auth_id", conn.LinkedInAuthID)
	tok, err := m.api.RefreshToken(ctx, conn.LinkedInAuthID)
	if err != nil {
		if api.StatusCode(err) == http.StatusBadRequest {
			m.logger.Warn("linkedin refresh token rejected, disconnecting", "error", err)
			m.Disconnect(ctx)
			return "", err
		}
		m.logger.Error("failed to refresh linkedin access token", "error", err)
		return "", err
	}

	now := m.now()
	m.update(conn.LinkedInAuthID, func(c *Connection) {
		c.AccessToken = tok.AccessToken
		c.ExpiresIn = tok.ExpiresInDuration(m.defaultExpiry)
		c.ConnectedAt = now
	})
	return tok.AccessToken, nil
}

// CheckTokenExpiry refreshes the token when it expires within the refresh window.
func (m *Manager) CheckTokenExpiry(ctx context.Context) {
	conn := m.Connection()
	if conn == nil {
		return
	}
	if m.now().Before(conn.Expiry().Add(-m.window)) {
		return
	}
	m.logger.Debug("linkedin token expires soon", "expiry", conn.Expiry())
	_, _ = m.RefreshAccessToken(ctx)
}

// StartAutoRefresh checks the token now and then on every interval until
// stop is called, ctx is cancelled, or the connection is dropped. Starting
// again replaces the previous loop.
func (m *Manager) StartAutoRefresh(ctx context.Context) (stop func()) {
	loopCtx, cancel := context.WithCancel(ctx)

	m.loopMu.Lock()
	if m.stopLoop != nil {
		m.stopLoop()
	}
	m.stopLoop = cancel
	m.loopMu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)

		m.CheckTokenExpiry(loopCtx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				m.CheckTokenExpiry(loopCtx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// stopRefresh cancels the loop without waiting; it may run on the loop goroutine.
func (m *Manager) stopRefresh() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.stopLoop != nil {
		m.stopLoop()
		m.stopLoop = nil
	}
}

// FetchCompleteProfile loads the full profile once when the cached one lacks
// a picture or a name. Failures keep the cached profile and are only logged.
func (m *Manager) FetchCompleteProfile(ctx context.Context) {
	conn := m.Connection()
	if conn == nil || conn.Profile.Complete() {
		return
	}
	if !m.fetching.CompareAndSwap(false, true) {
		return
	}
	defer m.fetching.Store(false)

	profile, err := m.api.FetchProfile(ctx, conn.AccessToken, conn.LinkedInAuthID)
	if errors.Is(err, api.ErrRateLimited) {
		m.logger.Warn("linkedin API rate limited, using cached profile data")
		return
	}
	if err != nil {
		m.logger.Error("failed to fetch complete profile", "error", err)
		return
	}

	now := m.now()
	m.update(conn.LinkedInAuthID, func(c *Connection) {
		c.Profile = *profile
		c.ProfileFetchedAt = now
	})
}

// RefreshProfileData fetches the profile even when the cached one is
// complete, merging the result over the cached fields.
func (m *Manager) RefreshProfileData(ctx context.Context) error {
	conn := m.Connection()
	if conn == nil {
		return ErrNotConnected
	}
	if !m.fetching.CompareAndSwap(false, true) {
		return ErrProfileFetchInFlight
	}
	defer m.fetching.Store(false)

	profile, err := m.api.FetchProfile(ctx, conn.AccessToken, conn.LinkedInAuthID)
	if err != nil {
		m.logger.Error("failed to refresh profile data", "error", err)
		return err
	}

	now := m.now()
	m.update(conn.LinkedInAuthID, func(c *Connection) {
		c.Profile = c.Profile.Merge(*profile)
		c.ProfileFetchedAt = now
	})
	return nil
}

// CompleteCallback finishes the OAuth flow for the redirect parameters and
// returns the connected profile.
func (m *Manager) CompleteCallback(ctx context.Context, params callback.Params) (*api.LinkedInProfile, error) {
	f := &callbackFlow{params: params}
	steps := []func(context.Context, *callbackFlow) error{
		m.checkParams,
		m.resolveUser,
		m.exchangeCode,
		m.fetchProfile,
		m.completeOAuth,
		m.validateCompletion,
		m.persistConnection,
	}
	for _, step := range steps {
		if err := step(ctx, f); err != nil {
			return nil, err
		}
	}
	return f.profile, nil
}
