// Package registry models the connection/session/link entity graph
// that reactor handler resolution and the CONNECTION_INIT/FINAL
// lifecycle hooks walk (spec.md §4.2, §4.3).
package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/webitel/go-reactor/internal/event"
	"github.com/webitel/go-reactor/internal/reactor"
)

// Connector is the external API a transport-layer connection exposes
// to the registry, grounded on the teacher's Connector interface
// (`registry/connect.go`) but stripped of its event/priority payload
// concerns — a Connection in this domain carries no business events of
// its own, only the entity-graph bookkeeping the reactor needs.
type Connector interface {
	ID() uuid.UUID
	Attachments() *reactor.Attachments
	Close()
}

// Connection is the root of the connection/session/link graph (spec.md
// §4.3's outermost entity). It satisfies event.Context (ClassConnection)
// directly, reactor.Attaching via Attachments, and has no Nesting
// implementation: the walk up the graph stops here if nothing more
// specific carries a handler.
//
// Grounded on the teacher's connect.go `connect` struct: an atomic
// activity timestamp for lock-free idle checks and sync.Once-guarded
// teardown, retargeted to own an Attachments record and a collector
// reference instead of an event send channel. Instances are not pooled
// (see NewConnection).
type Connection struct {
	id       uuid.UUID
	metadata ConnectMetadata

	ctx      context.Context
	cancelFn context.CancelFunc

	attachments *reactor.Attachments
	collector   *reactor.Collector

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	closeOnce sync.Once

	lastActivityUnixNano int64
}

// ConnectMetadata carries transport-identifying detail (SPEC_FULL §4),
// mirroring the teacher's ConnectMetadata shape.
type ConnectMetadata struct {
	Platform  string
	RemoteIP  string
	UserAgent string
}

// NewConnection constructs a Connection bound to collector, publishes
// CONNECTION_INIT for it, and returns it. The reactor's pre-dispatch
// hook attaches the weak owning-reactor reference the first time that
// event is dispatched (dispatch.go's preDispatch).
//
// Unlike the teacher's connect.go, this does not reuse instances via
// sync.Pool: a Connection is itself the Context carried by its pending
// CONNECTION_INIT/FINAL events, so recycling it back into a pool the
// moment Close() runs — before the dispatch loop has drained the
// CONNECTION_FINAL event still referencing it — would let a fresh
// NewConnection call overwrite an in-flight event's payload out from
// under the reactor.
func NewConnection(ctx context.Context, collector *reactor.Collector, meta ConnectMetadata) *Connection {
	childCtx, cancel := context.WithCancel(ctx)

	c := &Connection{
		id:                   uuid.New(),
		metadata:             meta,
		ctx:                  childCtx,
		cancelFn:             cancel,
		attachments:          reactor.NewAttachments(),
		collector:            collector,
		sessions:             make(map[uuid.UUID]*Session),
		lastActivityUnixNano: time.Now().UnixNano(),
	}

	collector.Put(event.ConnectionInit, event.ClassConnection, c)
	return c
}

// ID returns the connection's identifier.
func (c *Connection) ID() uuid.UUID { return c.id }

// EntityClass reports ClassConnection.
func (c *Connection) EntityClass() event.EntityClass { return event.ClassConnection }

// Attachments returns the connection's attachments record, satisfying
// reactor.Attaching.
func (c *Connection) Attachments() *reactor.Attachments { return c.attachments }

// Context returns the connection's lifetime context, cancelled on
// Close.
func (c *Connection) Context() context.Context { return c.ctx }

// Collector returns the reactor event queue this connection and its
// descendants publish to, so transport packages can enqueue events
// nested under a Link without reaching into unexported fields.
func (c *Connection) Collector() *reactor.Collector { return c.collector }

func (c *Connection) touch() {
	atomic.StoreInt64(&c.lastActivityUnixNano, time.Now().UnixNano())
}

// IsIdle reports whether the connection has no open sessions and has
// been inactive for longer than timeout — the same shape as the
// teacher's Cell.IsIdle, now scoped to a single connection rather than
// an actor mailbox.
func (c *Connection) IsIdle(timeout time.Duration) bool {
	c.mu.RLock()
	hasSessions := len(c.sessions) > 0
	c.mu.RUnlock()
	if hasSessions {
		return false
	}
	last := time.Unix(0, atomic.LoadInt64(&c.lastActivityUnixNano))
	return time.Since(last) > timeout
}

// OpenSession creates and attaches a new Session under this
// connection.
func (c *Connection) OpenSession() *Session {
	s := newSession(c)
	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()
	c.touch()
	return s
}

// CloseSession detaches a session by ID.
func (c *Connection) CloseSession(id uuid.UUID) {
	c.mu.Lock()
	delete(c.sessions, id)
	c.mu.Unlock()
	c.touch()
}

// Sessions returns a snapshot of currently open sessions.
func (c *Connection) Sessions() []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s)
	}
	return out
}

// Close tears the connection down exactly once: cancels its context,
// publishes CONNECTION_FINAL (whose post-dispatch hook in dispatch.go
// invokes the application's finalizer), and drops its session map.
// Safe to call from any goroutine, including the hub's
// idle-eviction janitor — Collector.Put is the one cross-thread-safe
// entry point into the reactor (SPEC_FULL §4).
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancelFn()
		c.collector.Put(event.ConnectionFinal, event.ClassConnection, c)

		c.mu.Lock()
		c.sessions = nil
		c.mu.Unlock()
	})
}
