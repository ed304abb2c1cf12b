package control

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/webitel/go-reactor/config"
	"github.com/webitel/go-reactor/internal/reactor"
)

// Module provides the control Server and starts/stops it with the fx
// lifecycle.
var Module = fx.Module("control",
	fx.Provide(func(cfg *config.Config, r *reactor.Reactor, logger *slog.Logger) *Server {
		return NewServer(cfg.Control.ListenAddr, r, logger)
	}),
	fx.Invoke(func(lc fx.Lifecycle, s *Server) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error { s.Start(); return nil },
			OnStop:  func(ctx context.Context) error { return s.Stop(ctx) },
		})
	}),
)
