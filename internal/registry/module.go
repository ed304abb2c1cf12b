package registry

import (
	"go.uber.org/fx"

	"github.com/webitel/go-reactor/config"
	"github.com/webitel/go-reactor/internal/reactor"
)

// Module provides the registry Hub to the fx graph, the same shape as
// the teacher's registry.Module (`registry/module.go`). Wrapped in a
// closure rather than passing NewHub directly: dig (fx's container)
// resolves constructor parameters by type and cannot fill NewHub's
// variadic Option slice on its own, so the closure builds the options
// from the registry section of the configuration.
var Module = fx.Module("registry",
	fx.Provide(func(r *reactor.Reactor, cfg *config.Config) *Hub {
		return NewHub(r.Collector(),
			WithEvictionInterval(cfg.Registry.EvictionInterval),
			WithIdleTimeout(cfg.Registry.IdleTimeout),
		)
	}),
)
