package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeDeadline  = 5 * time.Second
	pingInterval   = 30 * time.Second
	pongDeadline   = 60 * time.Second
	maxMessageSize = 4096
)

var ErrClosed = errors.New("connection closed")

// Conn adapts a gorilla WebSocket to the broadcast connection contract.
// Writes are serialized by writeMu since gorilla allows a single concurrent writer.
type Conn struct {
	id         uuid.UUID
	connection *websocket.Conn
	clock      clockwork.Clock

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewConn wraps connection and starts its keepalive pinger.
func NewConn(connection *websocket.Conn, clock clockwork.Clock) *Conn {
	c := &Conn{
		id:         uuid.New(),
		connection: connection,
		clock:      clock,
		done:       make(chan struct{}),
	}
	c.configureReadLimits()
	c.wg.Add(1)
	go c.keepalive()
	return c
}

func (c *Conn) ID() uuid.UUID { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.connection.RemoteAddr().String()
}

// Send writes data as one text frame. The write is bounded by the earlier of ctx's
// deadline and writeDeadline.
func (c *Conn) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.connection.SetWriteDeadline(c.deadline(ctx))
	if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// ReadLoop consumes inbound frames until the peer goes away or the connection is closed.
// Viewers are not expected to send anything; text frames are logged and discarded.
func (c *Conn) ReadLoop(ctx context.Context) error {
	for {
		_, msg, err := c.connection.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		slog.DebugContext(ctx, "Received viewer message", "conn_id", c.id.String(), "bytes", len(msg))
	}
}

// Close sends a close frame carrying reason and closes the socket. Only the first call has an effect.
func (c *Conn) Close(reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()

		c.writeMu.Lock()
		defer c.writeMu.Unlock()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		_ = c.connection.SetWriteDeadline(c.clock.Now().Add(writeDeadline))
		_ = c.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		err = c.connection.Close()
	})
	return err
}

func (c *Conn) keepalive() {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := c.ping(); err != nil {
				slog.Debug("Ping failed", "conn_id", c.id.String(), "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.connection.SetWriteDeadline(c.clock.Now().Add(writeDeadline))
	if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}
	return nil
}

func (c *Conn) configureReadLimits() {
	c.connection.SetReadLimit(maxMessageSize)
	c.extendReadDeadline()
	c.connection.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})
}

func (c *Conn) extendReadDeadline() {
	_ = c.connection.SetReadDeadline(c.clock.Now().Add(pongDeadline))
}

func (c *Conn) deadline(ctx context.Context) time.Time {
	deadline := c.clock.Now().Add(writeDeadline)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
