package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the minimal surface the channel needs from a live connection.
// The channel is receive-only; acknowledgments go over HTTP.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens a connection authenticated by a channel token. The token is
// presented as a connection-level credential via the subprotocol list, not
// a request header.
type Dialer interface {
	Dial(ctx context.Context, url string, subprotocols []string) (Conn, error)
}

// WebsocketDialer dials over a real websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
}

func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{HandshakeTimeout: 15 * time.Second}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string, subprotocols []string) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		Subprotocols:     subprotocols,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
