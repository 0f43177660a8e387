package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/scrumwise/scrumwise-cli/internal/api"
	"github.com/scrumwise/scrumwise-cli/internal/credentials"
)

// Config holds manager construction options.
type Config struct {
	// ServerURL is the Account API origin.
	ServerURL string

	// Store is the two-scope credential store the manager owns.
	Store credentials.Store

	// Base optionally overrides the transport performing the actual round
	// trips, e.g. api.NewCachingTransport or a test double.
	Base http.RoundTripper

	// OnSignOut fires after the session has been torn down, explicitly or
	// because the server rejected the token. UI wiring navigates to the
	// login surface here.
	OnSignOut func()

	// Timeout bounds each Account API request.
	Timeout time.Duration

	// RefreshInterval is the scheduler cadence. Defaults to one minute.
	RefreshInterval time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Manager owns the one live session per process. All state transitions happen
// under its lock together with the matching storage writes, so storage and
// memory never disagree after an operation settles. Network calls are made
// without the lock held.
type Manager struct {
	client          *api.Client
	store           credentials.Store
	onSignOut       func()
	now             func() time.Time
	refreshInterval time.Duration

	mu          sync.Mutex
	state       State
	user        *api.User
	accessToken string
	tokenScope  credentials.Scope
	expiresAt   time.Time
	generation  uint64
	refresher   *refresher
}

// NewManager creates a session manager and its Account API client. The
// client's transport pulls the bearer token from the manager and reports
// server-confirmed token rejection back into it.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("server URL is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("credential store is required")
	}

	m := &Manager{
		store:           cfg.Store,
		onSignOut:       cfg.OnSignOut,
		now:             cfg.Now,
		refreshInterval: cfg.RefreshInterval,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.refreshInterval == 0 {
		m.refreshInterval = checkInterval
	}

	m.client = api.NewClient(api.Config{
		ServerURL: cfg.ServerURL,
		Timeout:   cfg.Timeout,
		Transport: &api.Transport{
			Base:              cfg.Base,
			Tokens:            m,
			OnUnauthenticated: m.SignOutLocally,
		},
	})

	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the cached profile, nil until fetched.
func (m *Manager) CurrentUser() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// AccessToken implements api.TokenSource.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken, m.accessToken != ""
}

// TokenScope returns the scope currently holding the access token.
func (m *Manager) TokenScope() credentials.Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenScope
}

// ExpiresAt returns the access token's absolute expiry; ok is false when the
// expiry is unknown.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt, !m.expiresAt.IsZero()
}

// Login authenticates with an email and password. rememberMe selects the
// durable scope for the access token; the refresh token and expiry are always
// durable so a session-only login can still renew silently. On failure the
// error is returned unmodified and nothing is stored.
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (*api.User, error) {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.mu.Lock()
		if m.state == StateAuthenticating {
			m.state = StateUnauthenticated
		}
		m.mu.Unlock()
		return nil, err
	}

	scope := credentials.ScopeSession
	if rememberMe {
		scope = credentials.ScopeDurable
	}
	return m.establish(resp, scope)
}

// Signup creates an account and signs in. The access token is always stored
// durably; signup has no remember-me choice.
func (m *Manager) Signup(ctx context.Context, params api.SignupParams) (*api.User, error) {
	m.mu.Lock()
	m.state = StateAuthenticating
	m.mu.Unlock()

	resp, err := m.client.Signup(ctx, params)
	if err != nil {
		m.mu.Lock()
		if m.state == StateAuthenticating {
			m.state = StateUnauthenticated
		}
		m.mu.Unlock()
		return nil, err
	}

	return m.establish(resp, credentials.ScopeDurable)
}

// LoadUser restores the session at process start. With no stored access token
// it returns (nil, nil) without touching the network. A server rejection
// wipes both scopes and leaves the session unauthenticated; a stale token is
// never retried.
func (m *Manager) LoadUser(ctx context.Context) (*api.User, error) {
	m.mu.Lock()
	token, scope, ok := m.storedAccessTokenLocked()
	if !ok {
		m.mu.Unlock()
		log.Debug().Msg("no stored access token")
		return nil, nil
	}

	m.accessToken = token
	m.tokenScope = scope
	if raw, err := m.store.Get(credentials.ScopeDurable, credentials.KeyTokenExpiry); err == nil {
		if unix, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			m.expiresAt = time.Unix(unix, 0)
		}
	}
	gen := m.generation
	m.mu.Unlock()

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stored token rejected, clearing session")
		m.SignOutLocally()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		// Signed out while the call was in flight.
		return nil, nil
	}
	m.user = user
	m.state = StateAuthenticated
	m.startRefresherLocked()

	log.Debug().Str("scope", string(scope)).Int64("user_id", user.ID).Msg("session restored")
	return user, nil
}

// Logout ends the session. The server call is best effort: its failure is
// logged and local cleanup runs regardless. Safe to call repeatedly.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.accessToken == "" {
		// Fresh process: pick up the persisted token so the server-side
		// session can be ended too.
		if token, scope, ok := m.storedAccessTokenLocked(); ok {
			m.accessToken = token
			m.tokenScope = scope
		}
	}
	hasToken := m.accessToken != ""
	m.mu.Unlock()

	if hasToken {
		if err := m.client.Logout(ctx); err != nil {
			log.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	}

	m.SignOutLocally()
}

// SignOutLocally wipes both credential scopes and resets the in-memory
// session without calling the server. It is the landing path for every
// irrecoverable auth failure and is registered as the transport's
// unauthenticated hook. Refresh results that settle after this call are
// discarded via the generation counter.
func (m *Manager) SignOutLocally() {
	m.mu.Lock()
	wasActive := m.state != StateUnauthenticated || m.accessToken != ""

	m.generation++
	m.state = StateUnauthenticated
	m.user = nil
	m.accessToken = ""
	m.tokenScope = ""
	m.expiresAt = time.Time{}
	m.stopRefresherLocked()

	if err := m.store.Clear(credentials.ScopeDurable); err != nil {
		log.Error().Err(err).Msg("failed to clear durable credentials")
	}
	if err := m.store.Clear(credentials.ScopeSession); err != nil {
		log.Error().Err(err).Msg("failed to clear session credentials")
	}

	onSignOut := m.onSignOut
	m.mu.Unlock()

	if wasActive {
		log.Debug().Msg("session cleared")
		if onSignOut != nil {
			onSignOut()
		}
	}
}

// Close stops the background refresh scheduler without touching the stored
// session.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopRefresherLocked()
	m.mu.Unlock()
}

// establish applies a successful login or signup response: persists the
// credentials into their scopes and moves to Authenticated in one step.
func (m *Manager) establish(resp *api.TokenResponse, scope credentials.Scope) (*api.User, error) {
	expiresAt := deriveExpiry(resp, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.persistLocked(resp, scope, expiresAt); err != nil {
		// Half-written storage must not outlive a failed login.
		m.wipeLocked()
		return nil, err
	}

	m.accessToken = resp.AccessToken
	m.tokenScope = scope
	m.expiresAt = expiresAt
	m.user = resp.User
	m.state = StateAuthenticated
	m.startRefresherLocked()

	evt := log.Info().Str("scope", string(scope))
	if resp.User != nil {
		evt = evt.Int64("user_id", resp.User.ID)
	}
	evt.Msg("session established")

	return m.user, nil
}

func (m *Manager) persistLocked(resp *api.TokenResponse, scope credentials.Scope, expiresAt time.Time) error {
	other := credentials.ScopeSession
	if scope == credentials.ScopeSession {
		other = credentials.ScopeDurable
	}

	if err := m.store.Set(scope, credentials.KeyAccessToken, resp.AccessToken); err != nil {
		return err
	}
	// Exactly one scope holds the access token.
	if err := m.store.Delete(other, credentials.KeyAccessToken); err != nil {
		return err
	}
	if resp.RefreshToken != "" {
		if err := m.store.Set(credentials.ScopeDurable, credentials.KeyRefreshToken, resp.RefreshToken); err != nil {
			return err
		}
	}
	if !expiresAt.IsZero() {
		if err := m.store.Set(credentials.ScopeDurable, credentials.KeyTokenExpiry, strconv.FormatInt(expiresAt.Unix(), 10)); err != nil {
			return err
		}
	} else if err := m.store.Delete(credentials.ScopeDurable, credentials.KeyTokenExpiry); err != nil {
		return err
	}
	return nil
}

// wipeLocked clears storage and memory. Caller holds the lock.
func (m *Manager) wipeLocked() {
	m.generation++
	m.state = StateUnauthenticated
	m.user = nil
	m.accessToken = ""
	m.tokenScope = ""
	m.expiresAt = time.Time{}
	m.stopRefresherLocked()
	if err := m.store.Clear(credentials.ScopeDurable); err != nil {
		log.Error().Err(err).Msg("failed to clear durable credentials")
	}
	if err := m.store.Clear(credentials.ScopeSession); err != nil {
		log.Error().Err(err).Msg("failed to clear session credentials")
	}
}

// storedAccessTokenLocked reads the persisted access token, durable scope
// first. Caller holds the lock.
func (m *Manager) storedAccessTokenLocked() (string, credentials.Scope, bool) {
	for _, scope := range []credentials.Scope{credentials.ScopeDurable, credentials.ScopeSession} {
		token, err := m.store.Get(scope, credentials.KeyAccessToken)
		if err == nil && token != "" {
			return token, scope, true
		}
		if err != nil && !errors.Is(err, credentials.ErrNotFound) {
			log.Error().Err(err).Str("scope", string(scope)).Msg("failed to read stored access token")
		}
	}
	return "", "", false
}

// refreshNow exchanges the stored refresh token for a new access token. It is
// invoked only by the scheduler, never by user action. Without a stored
// refresh token it is a silent no-op; on failure it escalates to a full
// logout.
func (m *Manager) refreshNow(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	refreshToken, err := m.store.Get(credentials.ScopeDurable, credentials.KeyRefreshToken)
	if err != nil {
		m.mu.Unlock()
		if !errors.Is(err, credentials.ErrNotFound) {
			log.Error().Err(err).Msg("failed to read refresh token")
		}
		return
	}
	gen := m.generation
	scope := m.tokenScope
	m.state = StateRefreshing
	m.mu.Unlock()

	resp, err := m.client.Refresh(ctx, refreshToken)

	m.mu.Lock()
	if m.generation != gen {
		// Signed out while the refresh was in flight; the result must not
		// resurrect credentials.
		m.mu.Unlock()
		log.Debug().Msg("discarding refresh result, session already ended")
		return
	}
	if err != nil {
		m.mu.Unlock()
		log.Warn().Err(err).Msg("token refresh failed, signing out")
		m.Logout(ctx)
		return
	}

	expiresAt := deriveExpiry(resp, m.now())
	if err := m.store.Set(scope, credentials.KeyAccessToken, resp.AccessToken); err != nil {
		m.mu.Unlock()
		log.Error().Err(err).Msg("failed to store refreshed access token, signing out")
		m.Logout(ctx)
		return
	}
	if !expiresAt.IsZero() {
		if err := m.store.Set(credentials.ScopeDurable, credentials.KeyTokenExpiry, strconv.FormatInt(expiresAt.Unix(), 10)); err != nil {
			log.Error().Err(err).Msg("failed to store refreshed token expiry")
		}
	} else {
		// A stale expiry must not drive next start's scheduler.
		if err := m.store.Delete(credentials.ScopeDurable, credentials.KeyTokenExpiry); err != nil {
			log.Error().Err(err).Msg("failed to clear stale token expiry")
		}
	}
	m.accessToken = resp.AccessToken
	m.expiresAt = expiresAt
	m.state = StateAuthenticated
	m.mu.Unlock()

	log.Debug().Time("expires_at", expiresAt).Msg("access token refreshed")
}
