package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal stand-in for the server side of the session
// lifecycle: login issues token #1 plus a refresh cookie, every refresh
// rotates both, and the protected endpoint accepts only the latest token.
type fakeAPI struct {
	mu           sync.Mutex
	tokenSeq     int
	currentToken string
	refreshValue string
	refreshCalls atomic.Int64
	refreshDelay time.Duration
	rejectLogin  bool
	failRefresh  bool
}

func (f *fakeAPI) issue() (token, refresh string) {
	f.tokenSeq++
	f.currentToken = fmt.Sprintf("access-%d", f.tokenSeq)
	f.refreshValue = fmt.Sprintf("refresh-%d", f.tokenSeq)
	return f.currentToken, f.refreshValue
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	writeSession := func(w http.ResponseWriter, token string) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"user":         map[string]string{"id": "u-1", "username": "alice"},
				"access_token": token,
				"expires_in":   900,
			},
		})
	}
	writeUnauthorized := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "UNAUTHORIZED", "message": "unauthorized"},
		})
	}
	setCookie := func(w http.ResponseWriter, value string) {
		http.SetCookie(w, &http.Cookie{
			Name:     "refresh_token",
			Value:    value,
			Path:     "/api/v1/session",
			HttpOnly: true,
		})
	}

	mux.HandleFunc("POST /api/v1/session/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.rejectLogin {
			writeUnauthorized(w)
			return
		}
		token, refresh := f.issue()
		setCookie(w, refresh)
		writeSession(w, token)
	})

	mux.HandleFunc("POST /api/v1/session/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		cookie, err := r.Cookie("refresh_token")
		if f.failRefresh || err != nil || cookie.Value != f.refreshValue {
			writeUnauthorized(w)
			return
		}
		token, refresh := f.issue()
		setCookie(w, refresh)
		writeSession(w, token)
	})

	mux.HandleFunc("POST /api/v1/session/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.currentToken = ""
		f.refreshValue = ""
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"status": "logged_out"}})
	})

	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := f.currentToken != "" && r.Header.Get("Authorization") == "Bearer "+f.currentToken
		f.mu.Unlock()
		if !ok {
			writeUnauthorized(w)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "u-1", "username": "alice"},
		})
	})

	return mux
}

func newClientFixture(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, api
}

func TestLogin_CachesSessionAndIdentity(t *testing.T) {
	c, _ := newClientFixture(t)

	id, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, StateAuthenticated, c.State())
	assert.Equal(t, "u-1", c.Identity().ID)
}

func TestLogin_RejectedLeavesAnonymous(t *testing.T) {
	c, api := newClientFixture(t)
	api.rejectLogin = true

	_, err := c.Login(context.Background(), "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, StateAnonymous, c.State())
	assert.Nil(t, c.Identity())
}

func TestDo_AuthenticatedRequest(t *testing.T) {
	c, _ := newClientFixture(t)
	_, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/v1/users/me", nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDo_RefreshesAndRetriesOnceOn401(t *testing.T) {
	c, api := newClientFixture(t)
	_, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)

	// Invalidate the cached access token server-side; the refresh cookie
	// in the jar is still good.
	api.mu.Lock()
	api.currentToken = "rotated-away"
	api.mu.Unlock()

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/v1/users/me", nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), api.refreshCalls.Load())
}

func TestDo_ConcurrentRequestsShareOneRefresh(t *testing.T) {
	c, api := newClientFixture(t)
	_, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)

	// Slow the refresh round trip so every goroutine's 401 lands while the
	// single refresh is still in flight.
	api.mu.Lock()
	api.currentToken = "rotated-away"
	api.refreshDelay = 200 * time.Millisecond
	api.mu.Unlock()

	const n = 8
	errCh := make(chan error, n)
	var start sync.WaitGroup
	start.Add(1)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start.Wait()
			req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/v1/users/me", nil)
			if err != nil {
				errCh <- err
				return
			}
			resp, err := c.Do(req)
			if err != nil {
				errCh <- err
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errCh <- fmt.Errorf("unexpected status %d", resp.StatusCode)
				return
			}
			errCh <- nil
		}()
	}
	start.Done()
	wg.Wait()
	close(errCh)

	for err := range errCh {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), api.refreshCalls.Load(),
		"concurrent 401s must collapse into a single refresh round trip")
}

func TestDo_DeadRefreshCredentialReturnsSessionExpired(t *testing.T) {
	c, api := newClientFixture(t)
	_, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)

	api.mu.Lock()
	api.currentToken = "rotated-away"
	api.failRefresh = true
	api.mu.Unlock()

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/v1/users/me", nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, StateAnonymous, c.State())
	assert.Empty(t, c.session.token())
}

func TestSessionCache_ExpiredTokenTreatedAsAbsent(t *testing.T) {
	var cache sessionCache

	cache.set("tok", time.Minute, &Identity{ID: "u-1"})
	assert.Equal(t, "tok", cache.token())

	cache.set("tok", -time.Second, &Identity{ID: "u-1"})
	assert.Empty(t, cache.token())

	// Exactly at the expiry instant counts as expired.
	cache.set("tok", 0, &Identity{ID: "u-1"})
	assert.Empty(t, cache.token())
}

func TestDo_ExpiredCachedTokenNotAttached(t *testing.T) {
	c, api := newClientFixture(t)
	_, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)

	// Re-cache the token as already expired; the next request must not
	// attach it and must recover via a single cookie refresh.
	c.session.set("stale", -time.Second, c.Identity())

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/v1/users/me", nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), api.refreshCalls.Load())
}

func TestLogout_ClearsLocalSession(t *testing.T) {
	c, _ := newClientFixture(t)
	_, err := c.Login(context.Background(), "alice@example.com", "SecurePass123")
	require.NoError(t, err)

	require.NoError(t, c.Logout(context.Background()))
	assert.Equal(t, StateAnonymous, c.State())
	assert.Nil(t, c.Identity())

	// Logging out again is a no-op, not an error.
	require.NoError(t, c.Logout(context.Background()))
}
