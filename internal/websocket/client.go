package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Send pings to peer with this period
	pingPeriod = 30 * time.Second

	// Whole file sets travel in one frame
	maxMessageSize = 1 << 20

	sendBufferSize = 256
)

// Client is one participant connection. The socket may be nil, in which
// case frames are only queued on send.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	log  *logger.Logger

	mu     sync.Mutex
	closed bool
	room   *room.Room
	hub    *Hub
}

func newClient(id string, conn *websocket.Conn, log *logger.Logger) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		log:  log.With("client_id", id),
	}
}

func (c *Client) ID() string { return c.id }

// session returns the room and hub the client has joined, if any
func (c *Client) session() (*room.Room, *Hub) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.hub
}

func (c *Client) attach(rm *room.Room, hub *Hub) {
	c.mu.Lock()
	c.room, c.hub = rm, hub
	c.mu.Unlock()
}

func (c *Client) detach() (*room.Room, *Hub) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rm, hub := c.room, c.hub
	c.room, c.hub = nil, nil
	return rm, hub
}

// enqueue queues an encoded frame without blocking. A client whose
// buffer is full is closed.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.log.Warn("client buffer full, disconnecting")
		c.closeLocked()
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	c.closeLocked()
	c.mu.Unlock()
}

func (c *Client) closeLocked() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump hands every inbound frame to the engine in receipt order. It
// returns when the connection fails or ctx is done.
func (c *Client) readPump(ctx context.Context, e *Engine) {
	defer e.Disconnect(c)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.log.Debug("client disconnected normally")
			default:
				if ctx.Err() == nil {
					c.log.Warn("websocket read error", "error", err)
				}
			}
			return
		}
		e.Handle(ctx, c, data)
	}
}

// writePump drains send onto the socket and pings the peer.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.CloseNow()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusPolicyViolation, "connection closed by server")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()

			if err != nil {
				c.log.Warn("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(writeCtx)
			cancel()

			if err != nil {
				c.log.Warn("failed to send ping", "error", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func encode(msg ServerMessage, now time.Time) ([]byte, error) {
	msg.Timestamp = now.UnixMilli()
	return json.Marshal(msg)
}
