package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rx3lixir/codetogether/internal/archive"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/internal/version"
	"github.com/rx3lixir/codetogether/internal/websocket"
	"github.com/rx3lixir/codetogether/pkg/httputil"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

type RouterConfig struct {
	RoomHandler      *room.Handler
	VersionHandler   *version.Handler
	ArchiveHandler   *archive.Handler
	WebSocketHandler *websocket.Handler
	StatusHandler    *StatusHandler
	AllowedOrigins   []string
	Log              *logger.Logger
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(config.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", httputil.Handler(config.StatusHandler.HandleInfo, config.Log))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/health", httputil.Handler(config.StatusHandler.HandleHealth, config.Log))

		config.RoomHandler.
			Nest(func(r chi.Router) { r.Route("/versions", config.VersionHandler.RegisterRoutes) }).
			Nest(config.ArchiveHandler.RegisterRoutes)
		r.Route("/rooms", config.RoomHandler.RegisterRoutes)
	})

	// Session protocol
	r.Route("/ws", config.WebSocketHandler.RegisterRoutes)

	return r
}
