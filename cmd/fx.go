package cmd

import (
	"context"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/webitel/go-reactor/config"
	"github.com/webitel/go-reactor/internal/control"
	"github.com/webitel/go-reactor/internal/reactor"
	"github.com/webitel/go-reactor/internal/registry"
	"github.com/webitel/go-reactor/internal/telemetry"
	amqptransport "github.com/webitel/go-reactor/internal/transport/amqp"
	"github.com/webitel/go-reactor/internal/transport/ws"
)

// NewApp assembles the fx dependency graph for a running reactor
// instance: telemetry, the reactor core, the connection registry, the
// AMQP and websocket transports, and the HTTP control plane. Mirrors
// the teacher's NewApp shape (fx.New plus a handful of fx.Module
// blocks) retargeted from the im-delivery-service dependency graph
// onto the reactor's.
func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(func() *config.Config { return cfg }),
		telemetry.Module,
		fx.Provide(newReactor),
		registry.Module,
		amqptransport.Module,
		ws.Module,
		control.Module,
		fx.Invoke(wireWebsocketRoute),
		fx.Invoke(runReactorLoop),
	)
}

func newReactor(logger *slog.Logger, tp *sdktrace.TracerProvider) *reactor.Reactor {
	return reactor.NewReactor(
		reactor.WithLogger(logger),
		reactor.WithTracer(tp.Tracer("github.com/webitel/go-reactor")),
	)
}

// wireWebsocketRoute mounts the websocket upgrade endpoint on the
// control server's mux, so the service listens on a single HTTP port
// for both operator introspection and client connections.
func wireWebsocketRoute(srv *control.Server, up *ws.Upgrader, r *reactor.Reactor, logger *slog.Logger) {
	srv.Mount("/ws", up.Handler(r))
	logger.Info("websocket endpoint mounted", "path", "/ws")
}

// runReactorLoop drives the reactor's start/work/stop cycle (Run) on a
// background goroutine for the lifetime of the fx app. Run calls
// Start itself, so OnStart must not call it again — reactor.go's
// Start allocates a fresh internal timer selectable on every call,
// and RegisterSelectable's idempotency check only dedupes a given
// selectable instance against itself. OnStop uses RequestStop rather
// than Stop directly: fx's shutdown hook runs on its own goroutine,
// and Stop mutates loop state that is only safe to touch from the
// goroutine running Run.
func runReactorLoop(lc fx.Lifecycle, r *reactor.Reactor) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go r.Run()
			return nil
		},
		OnStop: func(context.Context) error {
			r.RequestStop()
			return nil
		},
	})
}
