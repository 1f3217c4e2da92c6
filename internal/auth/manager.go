package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/logging"
)

// Manager owns the single in-memory OAuth credential. The process supports
// exactly one authenticated identity; the slot is never persisted, so a
// restart always requires re-authentication.
//
// The mutex only makes the read-refresh-replace of the slot atomic. A caller
// already holding a token while a concurrent refresh replaces it is accepted:
// the blast radius is one extra re-authentication, not data corruption.
type Manager struct {
	conf    *oauth2.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu    sync.Mutex
	token *oauth2.Token
}

// NewManager creates a token manager for the given OAuth client
// configuration.
func NewManager(conf *oauth2.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		conf:   conf,
		logger: logger.With(logging.Service("auth")),
	}
}

// SetMetrics attaches a metrics recorder. May be nil.
func (m *Manager) SetMetrics(metrics *instrumentation.Metrics) {
	m.metrics = metrics
}

// AuthURL returns the Google consent URL. Offline access and prompt=consent
// are always requested: Google only reissues a refresh token under
// prompt=consent, so omitting it would silently lose refresh capability on
// repeat authorizations.
func (m *Manager) AuthURL() string {
	return m.conf.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// RedirectURL returns the redirect URI the client configuration was loaded
// with. The exchange uses the same URI, which Google requires.
func (m *Manager) RedirectURL() string {
	return m.conf.RedirectURL
}

// Exchange converts an authorization code into a credential and stores it.
// The slot is left untouched on failure.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	token, err := m.conf.Exchange(ctx, code)
	if err != nil {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		m.logger.Error("authorization code exchange failed", logging.Err(err))
		return fmt.Errorf("%w: %v", ErrExchange, err)
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	m.logger.Info("authorization code exchanged",
		slog.Time("expiry", token.Expiry),
		slog.Bool("has_refresh_token", token.RefreshToken != ""),
	)
	return nil
}

// Token returns a valid credential. With no credential stored it fails with
// ErrNotAuthenticated. With an expired credential it attempts a refresh: on
// success the slot is replaced, on failure the slot is cleared and the call
// fails with ErrTokenExpired, so every subsequent caller has to
// re-authenticate instead of retrying a dead session.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return nil, ErrNotAuthenticated
	}
	if m.token.Valid() {
		return m.token, nil
	}

	refreshed, err := m.conf.TokenSource(ctx, m.token).Token()
	if err != nil {
		m.token = nil
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		m.logger.Warn("token refresh failed, credential cleared", logging.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}

	// Google omits the refresh token from refresh responses; carry it over.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = m.token.RefreshToken
	}
	m.token = refreshed

	m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	m.logger.Info("access token refreshed", slog.Time("expiry", refreshed.Expiry))
	return m.token, nil
}

// Status reports the authentication state without touching the network.
type Status struct {
	Authenticated bool      `json:"authenticated"`
	Expired       bool      `json:"expired,omitempty"`
	Expiry        time.Time `json:"expiry,omitzero"`
}

// Status returns the current authentication state. A pure read: no refresh
// is attempted and the slot is not modified.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return Status{}
	}
	return Status{
		Authenticated: true,
		Expired:       !m.token.Valid(),
		Expiry:        m.token.Expiry,
	}
}

// TokenSource adapts the manager to oauth2.TokenSource so API clients always
// send the currently valid access token, going through the manager's
// refresh-or-clear semantics.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, m: m}
}

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	return s.m.Token(s.ctx)
}
