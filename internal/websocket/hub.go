package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

// Hub fans frames out to the connections of one room. All membership
// changes and deliveries happen on the hub goroutine.
type Hub struct {
	room *room.Room

	// Registered clients (only accessed by hub goroutine)
	clients map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}

	metrics HubMetrics
	clock   clock.Clock
	log     *logger.Logger
}

type envelope struct {
	data   []byte
	except *Client
}

// HubMetrics is safe to read from any goroutine
type HubMetrics struct {
	ConnectedClients atomic.Int64
	MessagesSent     atomic.Int64
	MessagesDropped  atomic.Int64
}

type HubStats struct {
	ConnectedClients int64 `json:"connectedClients"`
	MessagesSent     int64 `json:"messagesSent"`
	MessagesDropped  int64 `json:"messagesDropped"`
}

func newHub(rm *room.Room, clk clock.Clock, log *logger.Logger) *Hub {
	return &Hub{
		room:       rm,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		clock:      clk,
		log:        log.With("room_id", rm.ID()),
	}
}

// Run is the main event loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case env := <-h.broadcast:
			h.handleBroadcast(env)

		case <-h.quit:
			h.handleShutdown()
			return
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.clients[client] = true
	h.metrics.ConnectedClients.Store(int64(len(h.clients)))

	h.log.Debug("client registered",
		"client_id", client.id,
		"total_clients", len(h.clients),
	)
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		h.metrics.ConnectedClients.Store(int64(len(h.clients)))

		h.log.Debug("client unregistered",
			"client_id", client.id,
			"remaining_clients", len(h.clients),
		)
	}
}

func (h *Hub) handleBroadcast(env envelope) {
	for client := range h.clients {
		if client == env.except {
			continue
		}
		if client.enqueue(env.data) {
			h.metrics.MessagesSent.Add(1)
			continue
		}
		// Too slow or already gone
		h.metrics.MessagesDropped.Add(1)
		h.handleUnregister(client)
	}
}

func (h *Hub) handleShutdown() {
	h.log.Debug("shutting down hub", "clients", len(h.clients))
	for client := range h.clients {
		client.close()
	}
	h.clients = nil
	h.metrics.ConnectedClients.Store(0)
}

// Register adds a client and returns once the hub has accepted it, so
// frames published afterwards reach it. Returns false if the hub is
// shut down.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish delivers msg to every registered client except the given one
// (nil for everyone). It never blocks; frames are dropped when the hub is
// saturated or stopped.
func (h *Hub) Publish(msg ServerMessage, except *Client) {
	select {
	case <-h.done:
		return
	default:
	}

	data, err := encode(msg, h.clock.Now())
	if err != nil {
		h.log.Error("failed to marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case h.broadcast <- envelope{data: data, except: except}:
	default:
		h.log.Error("hub broadcast channel full", "type", msg.Type)
		h.metrics.MessagesDropped.Add(1)
	}
}

// Shutdown stops the event loop and closes every registered client.
func (h *Hub) Shutdown() {
	h.quitOnce.Do(func() { close(h.quit) })
	<-h.done
}

func (h *Hub) Stats() HubStats {
	return HubStats{
		ConnectedClients: h.metrics.ConnectedClients.Load(),
		MessagesSent:     h.metrics.MessagesSent.Load(),
		MessagesDropped:  h.metrics.MessagesDropped.Load(),
	}
}
