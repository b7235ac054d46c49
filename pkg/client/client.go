// Package client is a Go SDK for the streamly API. It manages the session
// lifecycle on behalf of the caller: the access token is cached in memory,
// the refresh token rides in the HTTP cookie jar, refreshes are deduplicated
// across goroutines, and a request that hits 401 is transparently retried
// once after a successful refresh.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const sessionBasePath = "/api/v1/session"

// Client is a streamly API client. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session sessionCache
	refresh singleflight.Group
	gate    gate
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is
// attached if the given client has none; without one the refresh cookie
// would be lost between requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the API at baseURL (e.g. "https://api.example.com").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// sessionEnvelope mirrors the server's session response body.
type sessionEnvelope struct {
	Data *struct {
		User        *Identity `json:"user"`
		AccessToken string    `json:"access_token"`
		ExpiresIn   int64     `json:"expires_in"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Login authenticates with email and password. On success the access token
// is cached and the refresh cookie is stored in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	resp, err := c.postSession(ctx, "/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env, err := decodeSessionBody(resp)
	if err != nil {
		c.session.clear()
		c.gate.setState(StateAnonymous)
		return nil, err
	}

	c.session.set(env.Data.AccessToken, time.Duration(env.Data.ExpiresIn)*time.Second, env.Data.User)
	c.gate.setState(StateAuthenticated)
	return env.Data.User, nil
}

// Logout ends the session on the server and drops all local state. It is
// idempotent; logging out without a session is not an error.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.postSession(ctx, "/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.session.clear()
	c.gate.setState(StateAnonymous)
	return nil
}

// Identity returns the cached identity, or nil when not authenticated.
func (c *Client) Identity() *Identity {
	return c.session.currentIdentity()
}

// Do sends an authenticated request to the API path (e.g. "/api/v1/users/me").
// On a 401 response it refreshes the session once, deduplicated across
// goroutines, and retries the request exactly once. A second 401 clears the
// session and returns ErrSessionExpired.
//
// The request body, when present, must be rewindable; pass it via
// NewRequestWithContext with a bytes.Reader or similar (GetBody set).
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if tok := c.session.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := c.ensureFresh(req.Context()); err != nil {
		return nil, err
	}

	retry, err := rewindRequest(req)
	if err != nil {
		return nil, err
	}
	retry.Header.Set("Authorization", "Bearer "+c.session.token())

	resp, err = c.http.Do(retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.session.clear()
		c.gate.setState(StateAnonymous)
		return nil, ErrSessionExpired
	}
	return resp, nil
}

// NewRequest builds a request against the client's base URL with a JSON body.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ensureFresh obtains a fresh access token via the refresh endpoint. All
// concurrent callers share a single refresh round trip; everyone waiting on
// it observes the same outcome.
func (c *Client) ensureFresh(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

// doRefresh performs the actual refresh round trip. A 401 from the refresh
// endpoint means the refresh credential is dead (expired, replayed, or
// revoked); the session is cleared and ErrSessionExpired reported.
func (c *Client) doRefresh(ctx context.Context) error {
	resp, err := c.postSession(ctx, "/refresh", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.session.clear()
		c.gate.setState(StateAnonymous)
		return ErrSessionExpired
	}

	env, err := decodeSessionBody(resp)
	if err != nil {
		return err
	}

	c.session.set(env.Data.AccessToken, time.Duration(env.Data.ExpiresIn)*time.Second, env.Data.User)
	c.gate.setState(StateAuthenticated)
	return nil
}

func (c *Client) postSession(ctx context.Context, suffix string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String()+sessionBasePath+suffix, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func decodeSessionBody(resp *http.Response) (*sessionEnvelope, error) {
	var env sessionEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || env.Data == nil {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error())
		}
		return nil, apiErr
	}
	return &env, nil
}

// rewindRequest clones a request for the post-refresh retry, rewinding the
// body via GetBody when one is present.
func rewindRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot retry request with non-rewindable body")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	retry.Body = body
	return retry, nil
}
