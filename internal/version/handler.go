package version

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/codetogether/pkg/httputil"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

type Handler struct {
	service   *Service
	log       *logger.Logger
	dbTimeout time.Duration
}

func NewHandler(service *Service, log *logger.Logger, dbTimeout time.Duration) *Handler {
	if dbTimeout == 0 {
		dbTimeout = time.Second * 5
	}
	return &Handler{service: service, log: log, dbTimeout: dbTimeout}
}

// RegisterRoutes mounts under /api/rooms/{roomID}/versions
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", httputil.Handler(h.HandleListVersions, h.log))
}

func (h *Handler) dbCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.dbTimeout)
}

// HandleListVersions returns the newest versions of a room
func (h *Handler) HandleListVersions(w http.ResponseWriter, r *http.Request) error {
	roomID, err := httputil.URLParam(r, "roomID")
	if err != nil {
		return err
	}

	limit := httputil.QueryInt(r, "limit", h.service.PageSize(), h.service.PageSize())

	ctx, cancel := h.dbCtx(r)
	defer cancel()

	versions, err := h.service.List(ctx, roomID, limit)
	if err != nil {
		h.log.Error("failed to list versions",
			"room_id", roomID,
			"error", err)
		return httputil.Internal(err)
	}

	h.log.Debug("versions listed",
		"room_id", roomID,
		"count", len(versions))

	return httputil.RespondJSON(w, http.StatusOK, ListVersionsResponse{
		Versions: versions,
		Count:    len(versions),
	})
}
