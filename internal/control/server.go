// Package control exposes a small go-chi HTTP surface for operating a
// running reactor: liveness and a point-in-time stats snapshot. It
// replaces the teacher's gRPC control surface (internal/handler/grpc,
// infra/server/grpc), which required protobuf-generated stubs this
// exercise has no safe way to produce — see DESIGN.md.
package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/webitel/go-reactor/internal/reactor"
)

// StatsSource is satisfied by *reactor.Reactor; kept as an interface
// so this package's tests don't need a live Reactor.
type StatsSource interface {
	Stats() reactor.Stats
}

// Server is the control-plane HTTP server. Grounded on the chi
// route/handler shape of the teacher's (now superseded)
// internal/handler/lp/delivery.go long-polling handler, retargeted at
// JSON introspection endpoints instead of message delivery.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger
}

// NewServer builds a Server bound to addr, exposing /healthz and
// /stats for src.
func NewServer(addr string, src StatsSource, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		stats := src.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsDTO{
			Selectables:  stats.Selectables,
			TimerTasks:   stats.TimerTasks,
			QueueLength:  stats.QueueLength,
			LastEvent:    stats.LastEvent.String(),
			YieldPending: stats.YieldPending,
		})
	})

	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: r},
		router:     r,
		logger:     logger,
	}
}

// Mount attaches an additional handler (the websocket upgrade
// endpoint, typically) under pattern on the same listener as
// /healthz and /stats, so the service exposes a single HTTP port.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Handle(pattern, h)
}

// statsDTO is the wire shape of GET /stats; kept separate from
// reactor.Stats so the reactor package never needs a JSON tag.
type statsDTO struct {
	Selectables  int    `json:"selectables"`
	TimerTasks   int    `json:"timer_tasks"`
	QueueLength  int    `json:"queue_length"`
	LastEvent    string `json:"last_event"`
	YieldPending bool   `json:"yield_pending"`
}

// Start runs the server in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("control server exited", "err", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
