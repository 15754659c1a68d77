package room

import (
	"sort"
	"sync"
	"time"

	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

// Registry owns every live room in the process. Rooms are created on
// first join and removed once they have stayed empty for the grace
// period.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*entry

	clock clock.Clock
	grace time.Duration
	log   *logger.Logger

	onCreate []func(r *Room)
	onRemove []func(r *Room)
}

type entry struct {
	room    *Room
	pending *clock.Timer
}

func NewRegistry(clk clock.Clock, grace time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*entry),
		clock: clk,
		grace: grace,
		log:   log,
	}
}

// OnCreate registers fn to run after a room is created. Must be called
// before the registry is shared.
func (r *Registry) OnCreate(fn func(rm *Room)) {
	r.onCreate = append(r.onCreate, fn)
}

// OnRemove registers fn to run after a room is removed.
func (r *Registry) OnRemove(fn func(rm *Room)) {
	r.onRemove = append(r.onRemove, fn)
}

// GetOrCreate returns the room, creating it with the default file set if
// absent. A pending removal is cancelled.
func (r *Registry) GetOrCreate(id string) (*Room, bool) {
	r.mu.Lock()
	e, created := r.getOrCreateLocked(id)
	r.mu.Unlock()

	if created {
		r.log.Info("room created", "room_id", id)
		for _, fn := range r.onCreate {
			fn(e.room)
		}
	}
	return e.room, created
}

func (r *Registry) getOrCreateLocked(id string) (*entry, bool) {
	if e, ok := r.rooms[id]; ok {
		if e.pending != nil {
			e.pending.Stop()
			e.pending = nil
			r.log.Debug("pending room removal cancelled", "room_id", id)
		}
		return e, false
	}

	e := &entry{room: New(id, r.clock.Now())}
	r.rooms[id] = e
	return e, true
}

// Join attaches a participant to the room, creating the room if needed.
// The join happens under the registry lock so a removal timer firing at
// the same moment cannot drop the room from under the new participant.
func (r *Registry) Join(roomID, participantID, username string) (*Room, Participant, bool) {
	r.mu.Lock()
	e, created := r.getOrCreateLocked(roomID)
	p := e.room.Join(participantID, username, r.clock.Now())
	r.mu.Unlock()

	if created {
		r.log.Info("room created", "room_id", roomID)
		for _, fn := range r.onCreate {
			fn(e.room)
		}
	}
	return e.room, p, created
}

// Leave detaches a participant. When the room becomes empty its removal
// is scheduled after the grace period.
func (r *Registry) Leave(roomID, participantID string) (Participant, bool) {
	r.mu.Lock()
	e, ok := r.rooms[roomID]
	r.mu.Unlock()
	if !ok {
		return Participant{}, false
	}

	p, remaining, ok := e.room.Leave(participantID)
	if !ok {
		return Participant{}, false
	}
	if remaining == 0 {
		r.scheduleRemoval(roomID, e)
	}
	return p, true
}

func (r *Registry) scheduleRemoval(id string, e *entry) {
	r.log.Debug("room empty, removal scheduled", "room_id", id, "grace", r.grace)

	timer := r.clock.AfterFunc(r.grace, func() { r.removeIfIdle(id, e) })

	r.mu.Lock()
	if e.pending != nil {
		e.pending.Stop()
	}
	e.pending = timer
	r.mu.Unlock()
}

func (r *Registry) removeIfIdle(id string, e *entry) {
	r.mu.Lock()
	cur, ok := r.rooms[id]
	if !ok || cur != e || e.room.ParticipantCount() > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.rooms, id)
	r.mu.Unlock()

	r.log.Info("room removed", "room_id", id)
	for _, fn := range r.onRemove {
		fn(e.room)
	}
}

func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[id]
	if !ok {
		return nil, false
	}
	return e.room, true
}

// Remove drops a room immediately.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.rooms[id]
	if ok {
		if e.pending != nil {
			e.pending.Stop()
		}
		delete(r.rooms, id)
	}
	r.mu.Unlock()

	if ok {
		r.log.Info("room removed", "room_id", id)
		for _, fn := range r.onRemove {
			fn(e.room)
		}
	}
	return ok
}

// Rooms returns the live rooms ordered by id.
func (r *Registry) Rooms() []*Room {
	r.mu.Lock()
	out := make([]*Room, 0, len(r.rooms))
	for _, e := range r.rooms {
		out = append(out, e.room)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
