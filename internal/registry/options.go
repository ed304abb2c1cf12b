package registry

import (
	"log/slog"
	"time"
)

// Option configures a Hub at construction time, the same functional-
// options shape as the teacher's registry Option (`registry/options.go`).
type Option func(*Hub)

// WithEvictionInterval configures how often the idle-connection
// janitor runs.
func WithEvictionInterval(d time.Duration) Option {
	return func(h *Hub) { h.evictionInterval = d }
}

// WithIdleTimeout sets how long a connection with no open sessions may
// sit idle before the janitor reaps it.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

// WithLogger overrides the hub's structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}
