package room

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/codetogether/pkg/httputil"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

type Handler struct {
	rooms  *Registry
	log    *logger.Logger
	nested []func(chi.Router)
}

func NewHandler(rooms *Registry, log *logger.Logger) *Handler {
	return &Handler{rooms: rooms, log: log}
}

// Nest registers fn to add routes under /{roomID}. Call before
// RegisterRoutes.
func (h *Handler) Nest(fn func(chi.Router)) *Handler {
	h.nested = append(h.nested, fn)
	return h
}

// RegisterRoutes mounts under /api/rooms
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", httputil.Handler(h.HandleListRooms, h.log))
	r.Route("/{roomID}", func(r chi.Router) {
		r.Get("/", httputil.Handler(h.HandleGetRoom, h.log))
		for _, fn := range h.nested {
			fn(r)
		}
	})
}

type RoomSummary struct {
	ID           string `json:"id"`
	Language     string `json:"language"`
	Participants int    `json:"participants"`
	Files        int    `json:"files"`
}

type ListRoomsResponse struct {
	Rooms []RoomSummary `json:"rooms"`
	Count int           `json:"count"`
}

// HandleGetRoom returns a snapshot of a live room
func (h *Handler) HandleGetRoom(w http.ResponseWriter, r *http.Request) error {
	roomID, err := httputil.URLParam(r, "roomID")
	if err != nil {
		return err
	}

	rm, ok := h.rooms.Get(roomID)
	if !ok {
		h.log.Debug("room snapshot requested for unknown room", "room_id", roomID)
		return httputil.NotFound("Room not found")
	}

	return httputil.RespondJSON(w, http.StatusOK, rm.Snapshot())
}

// HandleListRooms lists live rooms without their file contents
func (h *Handler) HandleListRooms(w http.ResponseWriter, r *http.Request) error {
	rooms := h.rooms.Rooms()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, rm := range rooms {
		files, _ := rm.Files()
		summaries = append(summaries, RoomSummary{
			ID:           rm.ID(),
			Language:     rm.Language(),
			Participants: rm.ParticipantCount(),
			Files:        len(files),
		})
	}

	return httputil.RespondJSON(w, http.StatusOK, ListRoomsResponse{
		Rooms: summaries,
		Count: len(summaries),
	})
}
