package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vikaskumar2611/streamly-sub001/internal/auth"
	"github.com/vikaskumar2611/streamly-sub001/internal/domain"
	"github.com/vikaskumar2611/streamly-sub001/internal/service"
	apperrors "github.com/vikaskumar2611/streamly-sub001/pkg/errors"
	"github.com/vikaskumar2611/streamly-sub001/pkg/health"
)

// --- In-memory fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // by id
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return apperrors.AlreadyExists("user", "email or username", u.Email)
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", id)
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", email)
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", username)
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
	return nil
}

type fakeSessionStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{tokens: make(map[string]string)}
}

func (s *fakeSessionStore) Upsert(_ context.Context, userID, tokenID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = tokenID
	return nil
}

func (s *fakeSessionStore) Current(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[userID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return id, nil
}

func (s *fakeSessionStore) Rotate(_ context.Context, userID, oldTokenID, newTokenID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[userID] != oldTokenID {
		return apperrors.Unauthorized("refresh credential superseded")
	}
	s.tokens[userID] = newTokenID
	return nil
}

func (s *fakeSessionStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

// --- Fixture ---

type apiFixture struct {
	server *httptest.Server
	store  *fakeSessionStore
	jwt    *auth.JWTManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	jwtManager := auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 7*24*time.Hour)

	hash, err := bcrypt.GenerateFromPassword([]byte("SecurePass123"), 4)
	require.NoError(t, err)
	user := &domain.User{
		ID:           "u-1234",
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: string(hash),
		FullName:     "Alice Smith",
	}

	userRepo := newFakeUserRepo(user)
	store := newFakeSessionStore()
	sessionSvc := service.NewSessionService(userRepo, store, jwtManager, logger)
	userSvc := service.NewUserService(userRepo, sessionSvc, nil, logger)

	router := NewRouter(
		Services{Session: sessionSvc, User: userSvc},
		jwtManager,
		health.NewHandler(),
		logger,
		RouterConfig{CookieSecure: false, CORS: CORSConfig{Environment: "development"}},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &apiFixture{server: srv, store: store, jwt: jwtManager}
}

func (f *apiFixture) login(t *testing.T) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(
		f.server.URL+"/api/v1/session/login",
		"application/json",
		strings.NewReader(`{"email":"alice@example.com","password":"SecurePass123"}`),
	)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	cookie := refreshCookieFrom(resp)
	return resp, cookie
}

func (f *apiFixture) post(t *testing.T, path, refreshCookie string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, nil)
	require.NoError(t, err)
	if refreshCookie != "" {
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: refreshCookie})
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func refreshCookieFrom(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			return c.Value
		}
	}
	return ""
}

func decodeSession(t *testing.T, resp *http.Response) SessionResponse {
	t.Helper()
	var envelope struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

// --- Tests ---

func TestSessionLogin_SetsCookieAndReturnsAccessToken(t *testing.T) {
	f := newAPIFixture(t)

	resp, cookie := f.login(t)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, cookie, "refresh cookie must be set")

	data := decodeSession(t, resp)
	assert.NotEmpty(t, data.AccessToken)
	assert.Equal(t, int64(900), data.ExpiresIn)

	// Cookie attributes: HttpOnly and scoped to the session endpoints.
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieName {
			assert.True(t, c.HttpOnly)
			assert.Equal(t, refreshCookiePath, c.Path)
			assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		}
	}

	// The access token verifies and carries the identity.
	claims, err := f.jwt.VerifyAccessToken(data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1234", claims.UserID)
}

func TestSessionLogin_BadPassword(t *testing.T) {
	f := newAPIFixture(t)

	resp, err := http.Post(
		f.server.URL+"/api/v1/session/login",
		"application/json",
		strings.NewReader(`{"email":"alice@example.com","password":"WrongPass999"}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, refreshCookieFrom(resp))
}

// Scenario: sign in, refresh, then replay the pre-refresh cookie. The replay
// must fail and clear the cookie; the rotated cookie keeps working.
func TestSessionRefresh_RotationInvalidatesPriorCookie(t *testing.T) {
	f := newAPIFixture(t)

	_, cookie1 := f.login(t)

	resp2 := f.post(t, "/api/v1/session/refresh", cookie1)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	cookie2 := refreshCookieFrom(resp2)
	assert.NotEmpty(t, cookie2)
	assert.NotEqual(t, cookie1, cookie2)

	// Replay the superseded cookie.
	resp3 := f.post(t, "/api/v1/session/refresh", cookie1)
	assert.Equal(t, http.StatusUnauthorized, resp3.StatusCode)

	// The 401 clears the cookie.
	for _, c := range resp3.Cookies() {
		if c.Name == refreshCookieName {
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0)
		}
	}

	// The current cookie still works.
	resp4 := f.post(t, "/api/v1/session/refresh", cookie2)
	assert.Equal(t, http.StatusOK, resp4.StatusCode)
}

func TestSessionRefresh_NoCookie(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.post(t, "/api/v1/session/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionRefresh_GarbageCookie(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.post(t, "/api/v1/session/refresh", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Scenario: logging out twice answers 200 both times.
func TestSessionLogout_Idempotent(t *testing.T) {
	f := newAPIFixture(t)

	_, cookie := f.login(t)

	resp1 := f.post(t, "/api/v1/session/logout", cookie)
	assert.Equal(t, http.StatusOK, resp1.StatusCode)

	resp2 := f.post(t, "/api/v1/session/logout", cookie)
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	// The session row is gone; refreshing fails.
	resp3 := f.post(t, "/api/v1/session/refresh", cookie)
	assert.Equal(t, http.StatusUnauthorized, resp3.StatusCode)
}

func TestSessionLogout_WithoutCookie(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.post(t, "/api/v1/session/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Protected endpoints accept only a live access token; the refresh cookie by
// itself grants nothing.
func TestProtectedEndpoint_RequiresAccessToken(t *testing.T) {
	f := newAPIFixture(t)

	resp, cookie := f.login(t)
	data := decodeSession(t, resp)

	// No bearer token: 401 even with the refresh cookie attached.
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/users/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: cookie})
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// With the bearer token: 200.
	req2, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/users/me", nil)
	require.NoError(t, err)
	req2.Header.Set("Authorization", "Bearer "+data.AccessToken)
	res2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusOK, res2.StatusCode)
}

func TestProtectedEndpoint_ExpiredAccessToken(t *testing.T) {
	f := newAPIFixture(t)

	expired := auth.NewJWTManager("test-secret-key-for-testing", 0, 7*24*time.Hour)
	token, err := expired.GenerateAccessToken("u-1234", "alice")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/users/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
