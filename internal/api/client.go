// Package api is the HTTP session client for the parking service. It
// attaches the current access token to every request, transparently
// refreshes it once per failing request on 401, and maps every failure to
// a tagged Error at the boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zenxianie/parkctl/internal/notify"
	"github.com/zenxianie/parkctl/internal/session"
)

// Config holds common client configuration.
type Config struct {
	BaseURL  string
	Role     session.Role
	Timeout  time.Duration
	CacheDir string
	Logger   zerolog.Logger
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Role:    session.RoleUser,
		Timeout: 30 * time.Second,
	}
}

// Client issues REST calls scoped to one role's session.
type Client struct {
	baseURL string
	role    session.Role
	store   *session.Store
	http    *http.Client
	logger  zerolog.Logger

	// refreshMu gates the token refresh exchange so concurrent 401s
	// coalesce into one in-flight refresh.
	refreshMu sync.Mutex

	handlerMu      sync.RWMutex
	invalidHandler func()
}

// New creates a client for the given role backed by the session store.
func New(cfg Config, store *session.Store) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		role:    cfg.Role,
		store:   store,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: NewCachingTransport(cfg.Logger, cfg.CacheDir),
		},
		logger: cfg.Logger,
	}
}

// Role returns the session scope this client operates under.
func (c *Client) Role() session.Role {
	return c.role
}

// OnSessionInvalid registers the callback invoked when the session becomes
// unrecoverable (refresh token absent or rejected). The auth context uses
// it to force the anonymous state and navigate to login.
func (c *Client) OnSessionInvalid(fn func()) {
	c.handlerMu.Lock()
	c.invalidHandler = fn
	c.handlerMu.Unlock()
}

// Login exchanges credentials for a token pair. It does not persist the
// session; that is the auth context's job.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.public(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.public(ctx, http.MethodPost, "/auth/register", req, nil)
}

// Logout asks the server to blacklist the current token.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Profile fetches the identity record for the current session.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChannelToken mints the short-lived credential for the realtime
// connection. Distinct from the access token; never reused across
// connections.
func (c *Client) ChannelToken(ctx context.Context) (string, error) {
	var out channelTokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/token/ws", nil, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", &Error{Kind: KindServerError, Message: "empty channel token"}
	}
	return out.Access, nil
}

// MarkNotificationRead acknowledges a notification server-side.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/user/notifications/%d/mark-read", id), nil, nil)
}

// ListNotifications returns the caller's notification history, most recent
// first.
func (c *Client) ListNotifications(ctx context.Context) ([]notify.Notification, error) {
	var out Page[notify.Notification]
	if err := c.do(ctx, http.MethodGet, "/user/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ListReservations returns the caller's reservations.
func (c *Client) ListReservations(ctx context.Context) ([]Reservation, error) {
	var out Page[Reservation]
	if err := c.do(ctx, http.MethodGet, "/user/reservations", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CreateReservation books a space.
func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) (*Reservation, error) {
	var out Reservation
	if err := c.do(ctx, http.MethodPost, "/user/reservations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelReservation cancels a reservation by ID.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/reservations/%d/cancel", id), nil, nil)
}

// ListParkingLots returns the lot catalogue.
func (c *Client) ListParkingLots(ctx context.Context) ([]ParkingLot, error) {
	var out Page[ParkingLot]
	if err := c.do(ctx, http.MethodGet, "/user/parking-lots", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetParkingLot returns one lot including its spaces.
func (c *Client) GetParkingLot(ctx context.Context, id int64) (*ParkingLotDetail, error) {
	var out ParkingLotDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/user/parking-lots/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns all accounts. Admin scope.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out Page[User]
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// SetUserStatus activates or deactivates an account. Admin scope.
func (c *Client) SetUserStatus(ctx context.Context, id int64, status string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/users/%d/status", id), map[string]string{"status": status}, nil)
}

// DailySummary returns the dashboard overview report. Admin scope.
func (c *Client) DailySummary(ctx context.Context) (*DailySummary, error) {
	var out DailySummary
	if err := c.do(ctx, http.MethodGet, "/admin/reports/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do issues an authenticated request. On a 401 it performs at most one
// refresh exchange, resends the original request with the new token, and
// surfaces whatever comes back; no second refresh is ever attempted for
// the same originating request.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}

	token := ""
	if sess, err := c.store.Get(c.role); err == nil {
		token = sess.Access
	}

	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		newToken, err := c.refreshAccess(ctx, token)
		if err != nil {
			return err
		}

		resp, err = c.send(ctx, method, path, payload, newToken)
		if err != nil {
			return &Error{Kind: KindNetwork, Message: "retry failed", Err: err}
		}
	}

	return decodeResponse(resp, out)
}

// public issues a request without a bearer token and without the refresh
// path (login, register).
func (c *Client) public(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, payload, "")
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
	}

	return decodeResponse(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if deviceID := c.store.DeviceID(); deviceID != "" {
		req.Header.Set("X-Device-Id", deviceID)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.http.Do(req)
}

// refreshAccess exchanges the refresh token for a new access token.
// failedToken is the access token the originating request used; when the
// store already holds a different one, another request refreshed first and
// the exchange is skipped.
func (c *Client) refreshAccess(ctx context.Context, failedToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	sess, err := c.store.Get(c.role)
	if err != nil {
		return "", c.invalidate(&Error{Kind: KindUnauthorized, Message: "no stored session", Err: err})
	}

	if sess.Access != "" && sess.Access != failedToken {
		// Coalesced: a concurrent request already replaced the token.
		return sess.Access, nil
	}

	if sess.Refresh == "" {
		return "", c.invalidate(&Error{Kind: KindUnauthorized, Message: "no refresh token"})
	}

	c.logger.Debug().Str("role", string(c.role)).Msg("refreshing access token")

	payload, err := marshalBody(refreshRequest{Refresh: sess.Refresh})
	if err != nil {
		return "", err
	}

	// Any failure here propagates as the originating request's 401.
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh-token", payload, "")
	if err != nil {
		return "", c.invalidate(&Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "token refresh failed", Err: err})
	}

	var out refreshResponse
	if err := decodeResponse(resp, &out); err != nil {
		return "", c.invalidate(&Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: "token refresh rejected", Err: err})
	}

	sess.Access = out.Access
	if err := c.store.Set(c.role, *sess); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	c.logger.Debug().Str("role", string(c.role)).Msg("access token refreshed")

	return out.Access, nil
}

// invalidate clears the session and notifies the registered handler, then
// returns err unchanged so the caller can propagate it.
func (c *Client) invalidate(err error) error {
	if clearErr := c.store.Clear(c.role); clearErr != nil {
		c.logger.Error().Err(clearErr).Str("role", string(c.role)).Msg("failed to clear session")
	}

	c.logger.Warn().Err(err).Str("role", string(c.role)).Msg("session invalidated")

	c.handlerMu.RLock()
	handler := c.invalidHandler
	c.handlerMu.RUnlock()

	if handler != nil {
		handler()
	}

	return err
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return payload, nil
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, context.Canceled) {
		return &Error{Kind: KindServerError, Message: "malformed response body", Err: err}
	}

	return nil
}
