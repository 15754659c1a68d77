package websocket

import (
	"sync"

	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

// Manager maps room ids to hubs. A hub lives exactly as long as the
// *room.Room it was created for: a room recreated under the same id gets
// a fresh hub.
type Manager struct {
	hubs  sync.Map // roomID -> *Hub
	clock clock.Clock
	log   *logger.Logger
}

func NewManager(clk clock.Clock, log *logger.Logger) *Manager {
	return &Manager{
		clock: clk,
		log:   log,
	}
}

// Hub returns the running hub for rm, starting one if needed.
func (m *Manager) Hub(rm *room.Room) *Hub {
	id := rm.ID()
	for {
		if v, ok := m.hubs.Load(id); ok {
			h := v.(*Hub)
			if h.room == rm {
				return h
			}
			// Left over from a removed room with the same id
			if m.hubs.CompareAndDelete(id, h) {
				h.Shutdown()
			}
			continue
		}

		h := newHub(rm, m.clock, m.log)
		if _, loaded := m.hubs.LoadOrStore(id, h); loaded {
			continue
		}
		go h.Run()

		m.log.Debug("hub started", "room_id", id)
		return h
	}
}

// Lookup returns the hub of a live room id
func (m *Manager) Lookup(roomID string) (*Hub, bool) {
	v, ok := m.hubs.Load(roomID)
	if !ok {
		return nil, false
	}
	return v.(*Hub), true
}

// RemoveHub stops the hub created for rm. A newer hub under the same id
// is left alone.
func (m *Manager) RemoveHub(rm *room.Room) {
	v, ok := m.hubs.Load(rm.ID())
	if !ok {
		return
	}
	h := v.(*Hub)
	if h.room != rm || !m.hubs.CompareAndDelete(rm.ID(), h) {
		return
	}
	h.Shutdown()
	m.log.Debug("hub stopped", "room_id", rm.ID())
}

// FilesReplaced broadcasts a replaced file set to every participant of
// the room, the requester included.
func (m *Manager) FilesReplaced(roomID string, files map[string]room.File, activeFile string) {
	h, ok := m.Lookup(roomID)
	if !ok {
		return
	}
	h.Publish(ServerMessage{
		Type: TypeFilesState,
		Data: FilesStateData{Files: files, ActiveFile: activeFile},
	}, nil)
}

// Stats sums the metrics of every running hub
func (m *Manager) Stats() (hubs int, stats HubStats) {
	m.hubs.Range(func(_, v any) bool {
		s := v.(*Hub).Stats()
		hubs++
		stats.ConnectedClients += s.ConnectedClients
		stats.MessagesSent += s.MessagesSent
		stats.MessagesDropped += s.MessagesDropped
		return true
	})
	return hubs, stats
}

// Shutdown stops every hub and closes their connections
func (m *Manager) Shutdown() {
	m.hubs.Range(func(k, v any) bool {
		m.hubs.Delete(k)
		v.(*Hub).Shutdown()
		return true
	})
	m.log.Info("all hubs stopped")
}
