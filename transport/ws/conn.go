// Package ws is the WebSocket transport of the relay: it owns connection
// lifecycle, decodes inbound wire frames into envelopes and encodes routed
// envelopes back onto the wire.
package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chat-relay/domain"
	"chat-relay/errors"
)

const writeDeadline = 5 * time.Second

// Conn wraps one gorilla connection behind a buffered send channel so the
// routing path never blocks on a slow socket. It satisfies
// contract.Connection.
type Conn struct {
	id   string
	sock *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(sock *websocket.Conn, bufferSize int) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		sock: sock,
		send: make(chan []byte, bufferSize),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// TrySend encodes the envelope and queues it without blocking. A closed
// connection or a full buffer yields an error the fanout path swallows.
func (c *Conn) TrySend(env domain.Envelope) error {
	data, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Conn) enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.ErrBackpressure
	}
}

// Close is idempotent; after it returns no further sends are accepted.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.sock.Close()
}

// writePump drains the send channel onto the socket. It exits when the
// channel closes or a write fails; the read side notices the broken socket
// and runs the close path.
func (c *Conn) writePump(ctx context.Context, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Debug("set write deadline failed", "conn", c.id, "error", err)
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("socket write failed", "conn", c.id, "error", err)
				return
			}
		}
	}
}
