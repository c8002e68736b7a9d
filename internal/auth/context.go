// Package auth composes the session store and the HTTP client into the
// per-role authentication state machine that gates dashboard access.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zenxianie/parkctl/internal/api"
	"github.com/zenxianie/parkctl/internal/session"
)

// ErrRoleMismatch is returned when a fetched identity's role does not
// match the context's scope. A user-role token must never grant
// admin-scoped access, or vice versa.
var ErrRoleMismatch = errors.New("identity role does not match context")

// Status is the context's lifecycle state.
type Status int

const (
	StatusUninitialized Status = iota
	StatusChecking
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Navigator receives route changes (role home on login, role login on
// logout or session invalidation). The CLI plugs a printer in here; a UI
// would plug its router.
type Navigator func(route string)

// Context holds the authenticated identity for one role.
type Context struct {
	role     session.Role
	store    *session.Store
	client   *api.Client
	navigate Navigator
	logger   zerolog.Logger

	mu       sync.RWMutex
	status   Status
	identity *api.User
}

// NewContext creates a context and registers it as the client's
// invalid-session handler, so a failed refresh forces the anonymous state.
func NewContext(role session.Role, store *session.Store, client *api.Client, navigate Navigator, logger zerolog.Logger) *Context {
	if navigate == nil {
		navigate = func(string) {}
	}

	c := &Context{
		role:     role,
		store:    store,
		client:   client,
		navigate: navigate,
		logger:   logger,
		status:   StatusUninitialized,
	}

	client.OnSessionInvalid(func() {
		c.setAnonymous()
		c.navigate(c.loginRoute())
	})

	return c
}

// Status returns the current lifecycle state.
func (c *Context) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// IsAuthenticated reports whether an identity with the expected role is
// loaded.
func (c *Context) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status == StatusAuthenticated && c.identity != nil
}

// CurrentUser returns the loaded identity, nil when anonymous.
func (c *Context) CurrentUser() *api.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// Initialize loads a stored session and validates it against the profile
// endpoint. Absent or invalid sessions leave the context anonymous.
func (c *Context) Initialize(ctx context.Context) error {
	c.setStatus(StatusChecking)

	if _, err := c.store.Get(c.role); err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.logger.Error().Err(err).Msg("failed to load stored session")
		}
		c.setAnonymous()
		return nil
	}

	user, err := c.fetchIdentity(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("role", string(c.role)).Msg("stored session invalid")
		c.clearSession()
		c.setAnonymous()
		return nil
	}

	c.setAuthenticated(user)
	return nil
}

// Login exchanges credentials for a session, stores it, and validates the
// identity's role. On a role mismatch the session is cleared and an
// authorization error is returned.
func (c *Context) Login(ctx context.Context, email, password string) (*api.User, error) {
	c.setStatus(StatusChecking)

	tokens, err := c.client.Login(ctx, email, password)
	if err != nil {
		c.setAnonymous()
		return nil, err
	}

	if err := c.store.Set(c.role, session.Session{
		Access:  tokens.Access,
		Refresh: tokens.Refresh,
		Role:    c.role,
	}); err != nil {
		c.setAnonymous()
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	user, err := c.fetchIdentity(ctx)
	if err != nil {
		c.clearSession()
		c.setAnonymous()
		return nil, err
	}

	c.setAuthenticated(user)
	c.logger.Info().Str("role", string(c.role)).Str("username", user.Username).Msg("logged in")
	c.navigate(c.homeRoute())

	return user, nil
}

// Logout calls the logout endpoint best-effort, then always clears the
// session and navigates to the role's login route.
func (c *Context) Logout(ctx context.Context) {
	if err := c.client.Logout(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("logout call failed")
	}

	c.clearSession()
	c.setAnonymous()
	c.logger.Info().Str("role", string(c.role)).Msg("logged out")
	c.navigate(c.loginRoute())
}

func (c *Context) fetchIdentity(ctx context.Context) (*api.User, error) {
	user, err := c.client.Profile(ctx)
	if err != nil {
		return nil, err
	}

	if user.Role != string(c.role) {
		return nil, &api.Error{
			Kind:    api.KindForbidden,
			Message: fmt.Sprintf("expected role %q, got %q", c.role, user.Role),
			Err:     ErrRoleMismatch,
		}
	}

	return user, nil
}

func (c *Context) clearSession() {
	if err := c.store.Clear(c.role); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear session")
	}
}

func (c *Context) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Context) setAnonymous() {
	c.mu.Lock()
	c.status = StatusAnonymous
	c.identity = nil
	c.mu.Unlock()
}

func (c *Context) setAuthenticated(user *api.User) {
	c.mu.Lock()
	c.status = StatusAuthenticated
	c.identity = user
	c.mu.Unlock()
}

func (c *Context) homeRoute() string {
	if c.role == session.RoleAdmin {
		return "/admin"
	}
	return "/user"
}

func (c *Context) loginRoute() string {
	if c.role == session.RoleAdmin {
		return "/admin/login"
	}
	return "/login"
}
