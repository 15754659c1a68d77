package websocket

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

type Handler struct {
	engine  *Engine
	origins []string
	log     *logger.Logger
}

// NewHandler accepts connections whose Origin host matches one of
// origins. An empty list only allows same-host origins.
func NewHandler(engine *Engine, origins []string, log *logger.Logger) *Handler {
	return &Handler{
		engine:  engine,
		origins: origins,
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleConnection)
}

// HandleConnection upgrades the request and serves the session until
// either side goes away. The participant picks a room with a join frame.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.log.Warn("websocket upgrade failed",
			"remote_addr", r.RemoteAddr,
			"error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := newClient(uuid.NewString(), conn, h.log)
	h.log.Debug("websocket connection established",
		"client_id", c.id,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		c.writePump(ctx)
		cancel()
	}()
	c.readPump(ctx, h.engine)
}
