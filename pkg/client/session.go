package client

import (
	"sync"
	"time"
)

// Identity describes the authenticated user as reported by the server.
type Identity struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// sessionCache holds the in-memory half of the session: the short-lived
// access token and the identity it belongs to. The refresh credential never
// passes through here; it lives in the HTTP cookie jar.
type sessionCache struct {
	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	identity    *Identity
}

func (c *sessionCache) set(token string, expiresIn time.Duration, id *Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.expiresAt = time.Now().Add(expiresIn)
	c.identity = id
}

func (c *sessionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = ""
	c.expiresAt = time.Time{}
	c.identity = nil
}

// token returns the cached access token, or "" when none is held. A token
// at or past its expiry instant is already dead server-side, so it is
// reported as absent; the caller then refreshes instead of spending a round
// trip on a guaranteed 401.
func (c *sessionCache) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken == "" || !time.Now().Before(c.expiresAt) {
		return ""
	}
	return c.accessToken
}

func (c *sessionCache) currentIdentity() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}
