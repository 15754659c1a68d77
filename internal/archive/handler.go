package archive

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/pkg/httputil"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

const urlExpiry = 24 * time.Hour

// Notifier tells connected participants that a room's files were
// replaced.
type Notifier interface {
	FilesReplaced(roomID string, files map[string]room.File, activeFile string)
}

type Handler struct {
	store    Store
	rooms    *room.Registry
	notifier Notifier
	clock    clock.Clock
	log      *logger.Logger
	timeout  time.Duration
}

func NewHandler(store Store, rooms *room.Registry, notifier Notifier, clk clock.Clock, log *logger.Logger) *Handler {
	return &Handler{
		store:    store,
		rooms:    rooms,
		notifier: notifier,
		clock:    clk,
		log:      log,
		timeout:  10 * time.Second,
	}
}

// RegisterRoutes mounts under /api/rooms/{roomID}
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/export", httputil.Handler(h.HandleExport, h.log))
	r.Post("/import", httputil.Handler(h.HandleImport, h.log))
}

type ExportResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ImportRequest struct {
	Key string `json:"key"`
}

type ImportResponse struct {
	Files      map[string]room.File `json:"files"`
	ActiveFile string               `json:"activeFile"`
}

func (h *Handler) opCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

// HandleExport stores the room's files and returns a download link
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) error {
	roomID, err := httputil.URLParam(r, "roomID")
	if err != nil {
		return err
	}

	rm, ok := h.rooms.Get(roomID)
	if !ok {
		return httputil.NotFound("Room not found")
	}

	files := rm.Project().Files

	ctx, cancel := h.opCtx(r)
	defer cancel()

	key, err := h.store.Put(ctx, Archive{
		RoomID:     roomID,
		ExportedAt: h.clock.Now().UTC(),
		Files:      files,
	})
	if err != nil {
		h.log.Error("failed to store archive",
			"room_id", roomID,
			"error", err)
		return httputil.BadGateway("Failed to store archive", err)
	}

	url, err := h.store.PresignedURL(ctx, key, urlExpiry)
	if err != nil {
		h.log.Warn("failed to presign archive url",
			"room_id", roomID,
			"key", key,
			"error", err)
		url = ""
	}

	h.log.Info("room exported",
		"room_id", roomID,
		"key", key,
		"files", len(files))

	return httputil.RespondJSON(w, http.StatusCreated, ExportResponse{Key: key, URL: url})
}

// HandleImport replaces the room's files with an archived set
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) error {
	roomID, err := httputil.URLParam(r, "roomID")
	if err != nil {
		return err
	}

	var req ImportRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Key) == "" {
		return httputil.BadRequest("key is required")
	}

	rm, ok := h.rooms.Get(roomID)
	if !ok {
		return httputil.NotFound("Room not found")
	}

	ctx, cancel := h.opCtx(r)
	defer cancel()

	a, err := h.store.Get(ctx, req.Key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httputil.NotFound("Archive not found")
		}
		h.log.Error("failed to load archive",
			"room_id", roomID,
			"key", req.Key,
			"error", err)
		return httputil.BadGateway("Failed to load archive", err)
	}

	files, active, err := rm.ReplaceFiles(a.Files)
	if err != nil {
		return httputil.BadRequest("Archive cannot be imported").WithDetails(err.Error())
	}

	h.notifier.FilesReplaced(roomID, files, active)

	h.log.Info("room imported",
		"room_id", roomID,
		"key", req.Key,
		"files", len(files))

	return httputil.RespondJSON(w, http.StatusOK, ImportResponse{Files: files, ActiveFile: active})
}
