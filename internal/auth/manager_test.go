package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newTokenServer fakes the OAuth2 token endpoint. Each response is consumed
// in order; the last one repeats.
func newTokenServer(t *testing.T, responses ...func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		h := responses[i]
		if i < len(responses)-1 {
			i++
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tokenOK(accessToken string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`))
	}
}

func tokenError(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
}

func newTestManager(tokenURL string) *Manager {
	return NewManager(&oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: tokenURL,
		},
	}, nil)
}

func TestAuthURL(t *testing.T) {
	m := newTestManager("https://oauth2.googleapis.com/token")

	raw := m.AuthURL()
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "test-client", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/auth/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/calendar")

	// Deterministic for a fixed client configuration.
	assert.Equal(t, raw, m.AuthURL())
}

func TestToken_NotAuthenticated(t *testing.T) {
	m := newTestManager("https://oauth2.googleapis.com/token")

	_, err := m.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestExchange_StoresCredential(t *testing.T) {
	srv := newTokenServer(t, tokenOK("access-1"))
	m := newTestManager(srv.URL)

	require.NoError(t, m.Exchange(context.Background(), "auth-code"))

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)

	st := m.Status()
	assert.True(t, st.Authenticated)
	assert.False(t, st.Expired)
}

func TestExchange_BadCode(t *testing.T) {
	srv := newTokenServer(t, tokenError)
	m := newTestManager(srv.URL)

	err := m.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExchange)

	// Slot untouched; still unauthenticated.
	_, err = m.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestToken_RefreshOnExpiry(t *testing.T) {
	srv := newTokenServer(t, tokenOK("access-2"))
	m := newTestManager(srv.URL)

	m.token = &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(-time.Minute),
	}

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)

	// The refreshed credential replaced the slot.
	st := m.Status()
	assert.True(t, st.Authenticated)
	assert.False(t, st.Expired)
}

func TestToken_RefreshKeepsRefreshToken(t *testing.T) {
	// Google omits refresh_token from refresh responses.
	srv := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","expires_in":3600}`))
	})
	m := newTestManager(srv.URL)

	m.token = &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(-time.Minute),
	}

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-0", tok.RefreshToken)
}

func TestToken_RefreshFailureClearsCredential(t *testing.T) {
	srv := newTokenServer(t, tokenError)
	m := newTestManager(srv.URL)

	m.token = &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-0",
		Expiry:       time.Now().Add(-time.Minute),
	}

	_, err := m.Token(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// The session is invalidated, not retried: the next call reports the
	// cleared slot, not the stale credential.
	_, err = m.Token(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.False(t, m.Status().Authenticated)
}

func TestTokenSource(t *testing.T) {
	srv := newTokenServer(t, tokenOK("access-1"))
	m := newTestManager(srv.URL)
	require.NoError(t, m.Exchange(context.Background(), "auth-code"))

	ts := m.TokenSource(context.Background())
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
}
