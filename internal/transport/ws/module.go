package ws

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/webitel/go-reactor/internal/registry"
)

// Module provides the websocket Upgrader for injection into the HTTP
// mux that serves the control/transport surface.
var Module = fx.Module("ws-transport",
	fx.Provide(func(hub *registry.Hub, logger *slog.Logger) *Upgrader {
		return NewUpgrader(hub, logger)
	}),
)
