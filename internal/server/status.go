package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/internal/websocket"
	"github.com/rx3lixir/codetogether/pkg/httputil"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

const serviceName = "codetogether"

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type StatusHandler struct {
	rooms   *room.Registry
	hubs    *websocket.Manager
	db      Pinger
	clock   clock.Clock
	started time.Time
	log     *logger.Logger
}

func NewStatusHandler(rooms *room.Registry, hubs *websocket.Manager, db Pinger, clk clock.Clock, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		rooms:   rooms,
		hubs:    hubs,
		db:      db,
		clock:   clk,
		started: clk.Now(),
		log:     log,
	}
}

type InfoResponse struct {
	Service     string `json:"service"`
	Status      string `json:"status"`
	ActiveRooms int    `json:"activeRooms"`
	Connections int64  `json:"connections"`
}

type HealthResponse struct {
	Status   string  `json:"status"`
	Uptime   float64 `json:"uptime"`
	Database string  `json:"database"`
}

// HandleInfo describes the service and its current load
func (h *StatusHandler) HandleInfo(w http.ResponseWriter, r *http.Request) error {
	_, stats := h.hubs.Stats()
	return httputil.RespondJSON(w, http.StatusOK, InfoResponse{
		Service:     serviceName,
		Status:      "running",
		ActiveRooms: h.rooms.Len(),
		Connections: stats.ConnectedClients,
	})
}

// HandleHealth reports uptime and database reachability
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) error {
	resp := HealthResponse{
		Status:   "ok",
		Uptime:   h.clock.Now().Sub(h.started).Seconds(),
		Database: "ok",
	}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("health check: database unreachable", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	return httputil.RespondJSON(w, status, resp)
}
