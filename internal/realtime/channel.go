// Package realtime maintains the push notification connection: it mints
// channel tokens through the HTTP session client, keeps the connection
// alive across failures with backoff, proactively replaces it before the
// token expires, and delivers decoded events to subscribers in wire order.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/zenxianie/parkctl/internal/notify"
)

const (
	// DefaultReconnectDelay is the first retry delay after an unexpected
	// close.
	DefaultReconnectDelay = 5 * time.Second

	// DefaultTokenTTL is the channel token validity window assumed when
	// the token carries no readable expiry.
	DefaultTokenTTL = 25 * time.Minute

	// refreshSlack is how long before expiry the token is replaced.
	refreshSlack = 5 * time.Minute

	dialTimeout = 30 * time.Second
)

// SessionClient is the authenticated HTTP surface the channel depends on.
type SessionClient interface {
	ChannelToken(ctx context.Context) (string, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Config holds channel configuration.
type Config struct {
	URL            string
	Client         SessionClient
	Dialer         Dialer
	Logger         zerolog.Logger
	ReconnectDelay time.Duration
	TokenTTL       time.Duration
}

// scheduleFunc schedules f after d and returns a cancel func reporting
// whether the timer was stopped before firing.
type scheduleFunc func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Channel owns at most one live connection. Every timer callback and read
// loop carries the generation it was created under and does nothing when
// the generation has moved on, so stale timers can never resurrect a
// connection after teardown.
type Channel struct {
	url      string
	client   SessionClient
	dialer   Dialer
	logger   zerolog.Logger
	tokenTTL time.Duration
	schedule scheduleFunc
	policy   *backoff.ExponentialBackOff

	mu            sync.Mutex
	gen           uint64
	conn          Conn
	open          bool
	connecting    bool
	closed        bool
	stopReconnect func() bool
	stopRefresh   func() bool

	subMu     sync.RWMutex
	nextSub   int
	msgSubs   []subscriber[notify.Notification]
	stateSubs []subscriber[bool]

	// deliverMu serializes delivery to message subscribers across a
	// generation swap.
	deliverMu sync.Mutex
}

// New creates a channel. It does not connect.
func New(cfg Config) *Channel {
	if cfg.Dialer == nil {
		cfg.Dialer = NewWebsocketDialer()
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.ReconnectDelay
	policy.RandomizationFactor = 0
	policy.Multiplier = 1.5
	policy.MaxInterval = time.Minute

	return &Channel{
		url:      cfg.URL,
		client:   cfg.Client,
		dialer:   cfg.Dialer,
		logger:   cfg.Logger,
		tokenTTL: cfg.TokenTTL,
		schedule: afterFunc,
		policy:   policy,
	}
}

// SubscribeMessages registers a callback invoked once per decoded event,
// in arrival order. Returns an unsubscribe func.
func (c *Channel) SubscribeMessages(fn func(notify.Notification)) func() {
	c.subMu.Lock()
	c.nextSub++
	id := c.nextSub
	c.msgSubs = append(c.msgSubs, subscriber[notify.Notification]{id: id, fn: fn})
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		for i := range c.msgSubs {
			if c.msgSubs[i].id == id {
				c.msgSubs = append(c.msgSubs[:i], c.msgSubs[i+1:]...)
				break
			}
		}
		c.subMu.Unlock()
	}
}

// SubscribeState registers a callback invoked on every connected /
// disconnected transition. Returns an unsubscribe func.
func (c *Channel) SubscribeState(fn func(connected bool)) func() {
	c.subMu.Lock()
	c.nextSub++
	id := c.nextSub
	c.stateSubs = append(c.stateSubs, subscriber[bool]{id: id, fn: fn})
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		for i := range c.stateSubs {
			if c.stateSubs[i].id == id {
				c.stateSubs = append(c.stateSubs[:i], c.stateSubs[i+1:]...)
				break
			}
		}
		c.subMu.Unlock()
	}
}

// IsConnected reports whether a connection is currently open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Connect mints a channel token and opens the connection. No-op when one
// is already open. A failure here does not schedule a retry; the caller
// may call Connect again later.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.open || c.connecting {
		c.mu.Unlock()
		return nil
	}
	c.connecting = true
	c.closed = false
	c.mu.Unlock()

	err := c.dial(ctx)

	c.mu.Lock()
	c.connecting = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Msg("realtime connect failed")
	}
	return err
}

// Disconnect tears the channel down: cancels all timers, closes the
// connection, and suppresses automatic reconnection. The only path that
// prevents reconnection.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.cancelTimersLocked()
	conn := c.conn
	c.conn = nil
	c.open = false
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.notifyState(false)
	c.logger.Debug().Msg("realtime channel disconnected")
}

// MarkAsRead acknowledges a notification over HTTP. Callers update local
// state optimistically; on failure local state is left alone and the error
// surfaces for UI feedback.
func (c *Channel) MarkAsRead(ctx context.Context, id int64) error {
	return c.client.MarkNotificationRead(ctx, id)
}

// dial mints a token and opens a connection for it.
func (c *Channel) dial(ctx context.Context) error {
	token, err := c.client.ChannelToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to mint channel token: %w", err)
	}

	conn, err := c.dialer.Dial(ctx, c.url, []string{"Bearer", token})
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	c.install(conn, token)
	return nil
}

// install swaps the new connection in under a fresh generation. The old
// connection's read loop sees a stale generation and goes quiet, so no
// frame is ever delivered by two generations.
func (c *Channel) install(conn Conn, token string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}

	c.gen++
	gen := c.gen
	old := c.conn
	c.conn = conn
	c.open = true
	c.cancelTimersLocked()
	c.stopRefresh = c.schedule(c.refreshDelay(token), func() { c.refreshToken(gen) })
	c.policy.Reset()
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}

	c.logger.Info().Uint64("gen", gen).Msg("realtime channel connected")
	c.notifyState(true)

	go c.readLoop(conn, gen)
}

// refreshDelay derives the proactive refresh point from the token's exp
// claim when it is a readable JWT, falling back to the configured TTL.
// The claim is not verified; only the server can do that, and the value is
// merely a scheduling hint.
func (c *Channel) refreshDelay(token string) time.Duration {
	ttl := c.tokenTTL

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			until := time.Until(exp.Time) - refreshSlack
			if until > 0 && until < ttl {
				ttl = until
			}
		}
	}

	return ttl
}

func (c *Channel) readLoop(conn Conn, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}

		var n notify.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		c.mu.Lock()
		stale := gen != c.gen
		c.mu.Unlock()
		if stale {
			// Connection was replaced while this frame was in flight.
			return
		}

		c.deliverMu.Lock()
		c.notifyMessage(n)
		c.deliverMu.Unlock()
	}
}

// handleClose runs when a read loop's connection dies. Explicit teardown
// bumps the generation first, so only the current generation ever gets
// here.
func (c *Channel) handleClose(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	c.open = false
	c.conn = nil
	if c.stopRefresh != nil {
		c.stopRefresh()
		c.stopRefresh = nil
	}

	var delay time.Duration
	if !c.closed {
		delay = c.policy.NextBackOff()
		c.stopReconnect = c.schedule(delay, func() { c.reconnect(gen) })
	}
	c.mu.Unlock()

	c.notifyState(false)

	if delay > 0 {
		c.logger.Info().Err(cause).Dur("delay", delay).Msg("realtime connection closed, reconnect scheduled")
	}
}

// reconnect is the timer callback for the standard recovery path.
func (c *Channel) reconnect(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.open || c.connecting {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	err := c.dial(ctx)
	cancel()

	c.mu.Lock()
	c.connecting = false
	if err != nil && !c.closed && gen == c.gen {
		delay := c.policy.NextBackOff()
		c.stopReconnect = c.schedule(delay, func() { c.reconnect(gen) })
		c.logger.Warn().Err(err).Dur("delay", delay).Msg("reconnect failed, retrying")
	}
	c.mu.Unlock()
}

// refreshToken is the proactive replacement path: mint a new token, open a
// new connection, swap. A deliberate reconnect, not a failure — the
// backoff policy is untouched. On any failure the current connection is
// closed so the standard reconnect path takes over.
func (c *Channel) refreshToken(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	token, err := c.client.ChannelToken(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("proactive channel token refresh failed")
		c.closeCurrent(gen)
		return
	}

	conn, err := c.dialer.Dial(ctx, c.url, []string{"Bearer", token})
	if err != nil {
		c.logger.Warn().Err(err).Msg("proactive reconnect dial failed")
		c.closeCurrent(gen)
		return
	}

	c.logger.Debug().Msg("replacing connection with refreshed channel token")
	c.install(conn, token)
}

// closeCurrent closes the connection for gen so its read loop falls into
// the standard reconnect-after-delay path.
func (c *Channel) closeCurrent(gen uint64) {
	c.mu.Lock()
	conn := c.conn
	if gen != c.gen {
		conn = nil
	}
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (c *Channel) cancelTimersLocked() {
	if c.stopReconnect != nil {
		c.stopReconnect()
		c.stopReconnect = nil
	}
	if c.stopRefresh != nil {
		c.stopRefresh()
		c.stopRefresh = nil
	}
}

func (c *Channel) notifyMessage(n notify.Notification) {
	c.subMu.RLock()
	subs := make([]subscriber[notify.Notification], len(c.msgSubs))
	copy(subs, c.msgSubs)
	c.subMu.RUnlock()

	for _, s := range subs {
		s.fn(n)
	}
}

func (c *Channel) notifyState(connected bool) {
	c.subMu.RLock()
	subs := make([]subscriber[bool], len(c.stateSubs))
	copy(subs, c.stateSubs)
	c.subMu.RUnlock()

	for _, s := range subs {
		s.fn(connected)
	}
}
