package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avickers/runwaysim/internal/config"
	"github.com/avickers/runwaysim/internal/storage/sqlite"
	"github.com/avickers/runwaysim/internal/websocket"
	"github.com/avickers/runwaysim/pkg/logger"
)

// Router wraps the HTTP routes
type Router struct {
	handler  *Handler
	wsServer *websocket.Server
	logger   *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(storage *sqlite.RunStorage, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler:  NewHandler(storage, cfg, log, wsServer),
		wsServer: wsServer,
		logger:   log.Named("api-router"),
	}
}

// Routes returns the HTTP handler with all routes configured
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/runs", r.handler.CreateRun)
		api.Get("/runs", r.handler.ListRuns)
		api.Get("/runs/{id}", r.handler.GetRun)
		api.Get("/runs/{id}/events", r.handler.GetRunEvents)
		api.Post("/sweep", r.handler.CreateSweep)
	})

	router.Get("/ws", r.wsServer.HandleConnection)

	return router
}
