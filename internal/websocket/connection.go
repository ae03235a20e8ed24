package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrSendBufferFull is returned when a connection's outbound buffer
// is full; the event is dropped rather than blocking the sender.
var ErrSendBufferFull = errors.New("connection send buffer full")

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection is one live duplex transport link. Ephemeral and
// process-local: created on upgrade, destroyed on close, error or
// heartbeat timeout. Identity fields are bound after a successful
// authenticate handshake.
type Connection struct {
	ID   string
	conn *websocket.Conn

	send chan []byte
	ping chan struct{}
	done chan struct{}

	mu     sync.RWMutex
	userID string
	role   string
	alive  bool
	closed bool
}

// NewConnection wraps an upgraded websocket connection.
func NewConnection(conn *websocket.Conn, sendBufferSize int) *Connection {
	return &Connection{
		ID:    uuid.NewString(),
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		ping:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		alive: true,
	}
}

// Bind attaches the verified identity to the connection.
func (c *Connection) Bind(userID, role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.role = role
}

// UserID returns the bound user identity, or "" before authentication.
func (c *Connection) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Role returns the bound role, or "" before authentication.
func (c *Connection) Role() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// Authenticated reports whether the connection completed the
// authenticate handshake.
func (c *Connection) Authenticated() bool {
	return c.UserID() != ""
}

// Send queues a payload for the write pump without blocking. A slow
// or dead receiver loses the event; it never stalls the caller.
func (c *Connection) Send(payload []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}
	c.mu.RUnlock()

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Outbound returns the channel the write pump drains.
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

// RequestPing asks the write pump to emit a ping frame. Coalesces if
// one is already pending.
func (c *Connection) RequestPing() {
	select {
	case c.ping <- struct{}{}:
	default:
	}
}

// PingRequests returns the channel carrying heartbeat probe requests.
func (c *Connection) PingRequests() <-chan struct{} {
	return c.ping
}

// Done is closed when the connection is torn down; the write pump
// uses it to exit.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// MarkAlive records a heartbeat answer (pong) or other activity.
func (c *Connection) MarkAlive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = true
}

// TakeAlive clears the liveness flag and returns its previous value.
// The heartbeat monitor calls this once per interval: a false return
// means the previous probe went unanswered.
func (c *Connection) TakeAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.alive
	c.alive = false
	return was
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close tears down the transport. Safe to call more than once.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.done)

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
