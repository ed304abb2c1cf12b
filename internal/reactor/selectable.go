package reactor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/webitel/go-reactor/internal/event"
)

// Selectable is a registered I/O-capable resource (spec.md §3, §6). It
// satisfies event.Context (EntityClass always reports ClassSelectable)
// so a Selectable can be used directly as the context of its own
// SELECTABLE_INIT/UPDATED/FINAL events.
type Selectable interface {
	event.Context

	SetDeadline(time.Time)
	Deadline() (time.Time, bool)
	IsTerminal() bool
	Terminate()

	OnExpired(func())
	OnRelease(func())
	FireExpired()
	// Release runs the release callback exactly once, idempotent on
	// repeat calls (spec.md §4.4 invariant).
	Release()

	Attachments() *Attachments

	// SetOwner/Owner model the selectable's weak back-reference to its
	// registering reactor (spec.md §3 ownership rules: "selectable's
	// back-pointer to reactor is weak").
	SetOwner(WeakRef[*Reactor])
	Owner() WeakRef[*Reactor]
}

// BaseSelectable implements the bookkeeping every concrete Selectable
// (timer selectable, AMQP subscriber, websocket connection) needs, so
// each of those only has to provide its own readable/writable
// semantics. Mirrors the teacher's connect.go: idempotent teardown via
// sync.Once, atomic terminal flag so IsTerminal is lock-free.
type BaseSelectable struct {
	mu          sync.Mutex
	deadline    time.Time
	hasDeadline bool

	terminal atomic.Bool

	expiredCb func()
	releaseCb func()
	releaseOnce sync.Once

	attachments *Attachments
	owner       WeakRef[*Reactor]
}

// NewBaseSelectable returns a BaseSelectable with a fresh Attachments
// record.
func NewBaseSelectable() *BaseSelectable {
	return &BaseSelectable{attachments: NewAttachments()}
}

// EntityClass reports ClassSelectable.
func (b *BaseSelectable) EntityClass() event.EntityClass { return event.ClassSelectable }

// SetDeadline sets the selectable's next expiry.
func (b *BaseSelectable) SetDeadline(d time.Time) {
	b.mu.Lock()
	b.deadline = d
	b.hasDeadline = true
	b.mu.Unlock()
}

// Deadline reports the selectable's expiry, if any.
func (b *BaseSelectable) Deadline() (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deadline, b.hasDeadline
}

// IsTerminal reports whether Terminate has been called.
func (b *BaseSelectable) IsTerminal() bool { return b.terminal.Load() }

// Terminate marks the selectable as done; the next Update call will
// publish SELECTABLE_FINAL for it.
func (b *BaseSelectable) Terminate() { b.terminal.Store(true) }

// OnExpired installs the expiry callback.
func (b *BaseSelectable) OnExpired(f func()) { b.expiredCb = f }

// OnRelease installs the release callback.
func (b *BaseSelectable) OnRelease(f func()) { b.releaseCb = f }

// FireExpired invokes the expiry callback, if any.
func (b *BaseSelectable) FireExpired() {
	if b.expiredCb != nil {
		b.expiredCb()
	}
}

// Release invokes the release callback exactly once.
func (b *BaseSelectable) Release() {
	b.releaseOnce.Do(func() {
		if b.releaseCb != nil {
			b.releaseCb()
		}
	})
}

// Attachments returns the selectable's attachments record.
func (b *BaseSelectable) Attachments() *Attachments { return b.attachments }

// SetOwner records the weak back-reference to the registering reactor.
func (b *BaseSelectable) SetOwner(w WeakRef[*Reactor]) { b.owner = w }

// Owner returns the weak back-reference to the registering reactor.
func (b *BaseSelectable) Owner() WeakRef[*Reactor] { return b.owner }
