package client

import (
	"context"
	"errors"
	"sync"
)

// State is the authentication state of the client as seen by callers that
// gate their UI or startup flow on it.
type State int

const (
	// StateVerifying means the client has not yet determined whether a
	// usable session exists. Callers should hold rendering of both the
	// authenticated and the anonymous surface until this resolves.
	StateVerifying State = iota

	// StateAuthenticated means an access token is held and requests will be
	// sent authenticated.
	StateAuthenticated

	// StateAnonymous means no session exists; the user must log in.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type gate struct {
	mu    sync.RWMutex
	state State
}

func (g *gate) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

func (g *gate) current() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// State returns the current authentication state.
func (c *Client) State() State {
	return c.gate.current()
}

// GuardProtected reports whether a protected view may be shown. It resolves
// a still-verifying state via Bootstrap first, so callers can use it as the
// single entry check for protected surfaces.
func (c *Client) GuardProtected(ctx context.Context) (bool, error) {
	state := c.gate.current()
	if state == StateVerifying {
		var err error
		state, err = c.Bootstrap(ctx)
		if err != nil {
			return false, err
		}
	}
	return state == StateAuthenticated, nil
}

// GuardAnonymous is the inverse guard, for login and register views: it
// reports whether the caller is (still) unauthenticated.
func (c *Client) GuardAnonymous(ctx context.Context) (bool, error) {
	ok, err := c.GuardProtected(ctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Bootstrap resolves the initial authentication state. When no access token
// is cached it attempts one refresh using whatever cookie the jar holds.
// Success lands in StateAuthenticated; every failure — a rejected or absent
// refresh credential as well as a transport error — lands in StateAnonymous.
// Both outcomes are terminal until the next login or refresh. The underlying
// error is still returned so transport failures can be surfaced.
func (c *Client) Bootstrap(ctx context.Context) (State, error) {
	if c.session.token() != "" {
		c.gate.setState(StateAuthenticated)
		return StateAuthenticated, nil
	}

	err := c.ensureFresh(ctx)
	switch {
	case err == nil:
		return StateAuthenticated, nil
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrUnauthorized):
		c.gate.setState(StateAnonymous)
		return StateAnonymous, nil
	default:
		c.gate.setState(StateAnonymous)
		return StateAnonymous, err
	}
}
