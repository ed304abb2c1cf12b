// Package reactor implements the single-threaded event reactor of
// spec.md: a collector-driven dispatch loop over selectables, a timer
// wheel, and handler resolution across the connection/session/link/
// delivery/task/selectable entity graph.
package reactor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/webitel/go-reactor/internal/event"
)

// Reactor is the root aggregate described in spec.md §3. It owns the
// collector, the timer, the children (selectable) list, the global and
// root handlers, and the mutable loop state. There is no internal
// locking: a Reactor is owned by exactly one goroutine for the
// duration of a Process() call (spec.md §5).
type Reactor struct {
	logger *slog.Logger
	tracer trace.Tracer
	clock  func() time.Time

	collector *Collector
	timer     *Timer

	children         []Selectable
	selectablesCount int

	globalHandler Handler
	rootHandler   Handler
	attachments   *Attachments

	onConnectionFinal func(event.Context)

	// loop state (spec.md §3)
	now             time.Time
	previous        event.Type
	timeoutMS       int
	yield           bool
	timerSelectable Selectable
	quiesced        bool

	// lifecycle bookkeeping
	processing    int
	stopped       bool
	pendingRelease bool
	stopRequested atomic.Bool

	selfArena  *Arena[*Reactor]
	selfHandle Handle
}

// Option configures a Reactor at construction time, the same
// functional-options shape registry.NewHub uses.
type Option func(*Reactor)

// WithLogger sets the structured logger used for internal diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reactor) { r.logger = l }
}

// WithTracer overrides the OpenTelemetry tracer used to span each
// dispatched event ("reactor.dispatch"). Process() calls themselves are
// not spanned.
func WithTracer(t trace.Tracer) Option {
	return func(r *Reactor) { r.tracer = t }
}

// WithGlobalHandler sets the handler invoked after the resolved
// handler for every event (spec.md §3 "Global handler").
func WithGlobalHandler(h Handler) Option {
	return func(r *Reactor) { r.globalHandler = h }
}

// WithRootHandler sets the handler used when no more specific entity
// in the graph carries one (spec.md §4.3 step 6).
func WithRootHandler(h Handler) Option {
	return func(r *Reactor) { r.rootHandler = h }
}

// WithConnectionFinalizer installs the externally-defined routine the
// post-dispatch hook for CONNECTION_FINAL invokes (spec.md §4.2).
func WithConnectionFinalizer(fn func(event.Context)) Option {
	return func(r *Reactor) { r.onConnectionFinal = fn }
}

// WithClock overrides the monotonic clock source; used by tests to
// drive deterministic timer scenarios (spec.md §8 S2).
func WithClock(c func() time.Time) Option {
	return func(r *Reactor) { r.clock = c }
}

// NewReactor constructs a Reactor. The caller owns calling Start/Run
// and eventually Free to release the reactor's own weak-reference
// arena slot.
func NewReactor(opts ...Option) *Reactor {
	r := &Reactor{
		collector:     NewCollector(),
		timer:         NewTimer(),
		globalHandler: noopHandler{},
		rootHandler:   noopHandler{},
		attachments:   NewAttachments(),
		clock:         time.Now,
		logger:        slog.Default(),
		tracer:        otel.Tracer("github.com/webitel/go-reactor/internal/reactor"),
		selfArena:     NewArena[*Reactor](),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.selfHandle = r.selfArena.Put(r)
	r.now = r.clock()
	return r
}

// EntityClass reports that a Reactor is itself a REACTOR-class
// context, so it can be used directly as the context of
// REACTOR_INIT/QUIESCED/FINAL events.
func (r *Reactor) EntityClass() event.EntityClass { return event.ClassReactor }

// Attachments returns the reactor's own attachments record.
func (r *Reactor) Attachments() *Attachments { return r.attachments }

// WeakRef returns a weak reference to this reactor, suitable for
// attaching to entities whose back-pointer to their owning reactor
// must not keep it alive (spec.md §3 ownership rules).
func (r *Reactor) WeakRef() WeakRef[*Reactor] {
	return WeakRef[*Reactor]{arena: r.selfArena, handle: r.selfHandle}
}

// Free releases the reactor's own arena slot. Every outstanding
// WeakRef to this reactor subsequently resolves to (nil, false).
func (r *Reactor) Free() {
	r.selfArena.Release(r.selfHandle)
}

// Collector exposes the reactor's event queue so registered
// collaborators (an AMQP transport's readable callback, a websocket
// listener) can publish events of their own — the "links it to the
// collector" step of register_selectable in spec.md §4.4.
func (r *Reactor) Collector() *Collector { return r.collector }

// Timer exposes the reactor's timer; primarily useful for tests that
// want to assert on Tasks()/Deadline() directly.
func (r *Reactor) Timer() *Timer { return r.timer }

// Now returns the reactor's current loop-local timestamp, refreshed
// only at Process()/Mark() (spec.md §4.5 ordering policy).
func (r *Reactor) Now() time.Time { return r.now }

// Timeout returns the I/O timeout most recently set by Work (spec.md
// §6: "reactor.timeout is set by work() and made readable by
// timeout()").
func (r *Reactor) Timeout() time.Duration {
	return time.Duration(r.timeoutMS) * time.Millisecond
}

// Mark refreshes now from the reactor's clock source outside of a
// Process() call (spec.md §4.6).
func (r *Reactor) Mark() {
	r.now = r.clock()
}

// Yield requests that the current Process() call return true as soon
// as the in-flight event finishes dispatching (spec.md §4.1 "Yield").
func (r *Reactor) Yield() {
	r.yield = true
}

// RegisterSelectable adds sel to the children list, publishes
// SELECTABLE_INIT for it, and binds its weak owner reference — spec.md
// §4.4's register_selectable.
func (r *Reactor) RegisterSelectable(sel Selectable) {
	for _, existing := range r.children {
		if existing == sel {
			return // at most one entry per selectable (spec.md §3)
		}
	}
	sel.SetOwner(r.WeakRef())
	r.children = append(r.children, sel)
	r.selectablesCount++
	r.collector.Put(event.SelectableInit, event.ClassSelectable, sel)
}

// Update implements spec.md §4.4: a no-op if already TERMINATED,
// SELECTABLE_FINAL once the selectable reports terminal (exactly
// once), SELECTABLE_UPDATED otherwise.
func (r *Reactor) Update(sel Selectable) {
	att := sel.Attachments()
	if att.IsTerminated() {
		return
	}
	if sel.IsTerminal() {
		att.MarkTerminated()
		r.collector.Put(event.SelectableFinal, event.ClassSelectable, sel)
		return
	}
	r.collector.Put(event.SelectableUpdated, event.ClassSelectable, sel)
}

func (r *Reactor) removeChild(sel Selectable) {
	for i, c := range r.children {
		if c == sel {
			r.children = append(r.children[:i], r.children[i+1:]...)
			r.selectablesCount--
			sel.Release()
			return
		}
	}
}

// tick drains every matured timer task, emitting a TIMER_TASK event
// per task in non-decreasing deadline order (spec.md §4.5 step 1).
func (r *Reactor) tick() {
	r.timer.Tick(r.now, func(task *Task) {
		r.collector.Put(event.TimerTask, event.ClassTask, task)
	})
}

// Schedule computes deadline := now + delayMS and inserts a task into
// the timer heap, attaching a weak reactor ref and the strong handler
// reference, then refreshes the timer selectable's deadline (spec.md
// §4.5).
func (r *Reactor) Schedule(delayMS int, h Handler) *Task {
	deadline := r.now.Add(time.Duration(delayMS) * time.Millisecond)
	task := r.timer.Schedule(deadline)
	task.attachments.SetReactorRef(r.WeakRef())
	task.attachments.SetHandler(h)

	if r.timerSelectable != nil {
		if d, ok := r.timer.Deadline(); ok {
			r.timerSelectable.SetDeadline(d)
		}
		r.Update(r.timerSelectable)
	}
	return task
}

// more reports whether the reactor still has potential work: pending
// timer tasks, or non-timer selectables still registered (spec.md
// §4.1 "Why this shape").
func (r *Reactor) more() bool {
	return r.timer.Tasks() > 0 || r.selectablesCount > 1
}

// Stats is a point-in-time, read-only snapshot of loop state, safe to
// read from a goroutine other than the owning one (SPEC_FULL.md §4).
// It is not part of spec.md's original public API table but is
// implied by "expose the reactor's state to an operator" being a
// baseline concern for any long-lived service built on this core.
type Stats struct {
	Selectables  int
	TimerTasks   int
	QueueLength  int
	LastEvent    event.Type
	YieldPending bool
}

// Stats returns a snapshot of the reactor's current loop state.
func (r *Reactor) Stats() Stats {
	return Stats{
		Selectables:  r.selectablesCount,
		TimerTasks:   r.timer.Tasks(),
		QueueLength:  r.collector.Len(),
		LastEvent:    r.previous,
		YieldPending: r.yield,
	}
}

// Start enqueues REACTOR_INIT and registers the internal timer
// selectable (spec.md §4.6).
func (r *Reactor) Start() {
	r.collector.Put(event.ReactorInit, event.ClassReactor, r)
	ts := newTimerSelectable(r)
	r.RegisterSelectable(ts)
	r.timerSelectable = ts
}

// Work stores timeoutMS, polls registered selectables for expired
// deadlines, and drives one Process() call (spec.md §4.6). Polling
// deadlines here stands in for the OS-level select/poll/epoll wait a
// real I/O reactor performs: this package has no file descriptors of
// its own, so a selectable's readiness is either driven by its own
// goroutine calling Reactor.Update directly (the AMQP/websocket
// transports do this) or, for timers, by deadline expiry discovered
// here.
func (r *Reactor) Work(timeoutMS int) bool {
	r.timeoutMS = timeoutMS
	r.Mark()
	r.pollDeadlines()
	return r.Process()
}

// pollDeadlines fires every registered selectable whose deadline has
// matured since the last poll. Iterating over a snapshot keeps the
// range stable even if an expiry callback registers another selectable
// (appending to r.children). Update itself only enqueues events;
// children are removed later, when their SELECTABLE_FINAL is
// dispatched.
func (r *Reactor) pollDeadlines() {
	snapshot := make([]Selectable, len(r.children))
	copy(snapshot, r.children)

	for _, sel := range snapshot {
		d, ok := sel.Deadline()
		if !ok || d.After(r.now) {
			continue
		}
		sel.FireExpired()
	}
}

// Run is the convenience driver loop spec.md §4.6 describes:
// start(); while work(1000) {}; stop(). It also checks RequestStop's
// flag between iterations, the one entry point by which another
// goroutine (an OS signal handler, typically) can ask this
// single-owner loop to wind down without touching any of the
// owning-thread-only state Stop/Process mutate directly.
func (r *Reactor) Run() {
	r.Start()
	for !r.stopRequested.Load() && r.Work(1000) {
	}
	r.Stop()
}

// RequestStop asks the goroutine running Run to call Stop at its next
// loop iteration. Safe to call from any goroutine, unlike Stop itself.
func (r *Reactor) RequestStop() {
	r.stopRequested.Store(true)
}

// Stop enqueues REACTOR_FINAL and drains the reactor (spec.md §4.6,
// §7). Repeat calls are no-ops (idempotent per spec.md §7, scenario
// S6). Calling Stop reentrantly from inside a handler during an
// in-flight Process() call (an unspecified case per spec.md §9) defers
// the collector release to when that in-flight call finishes, so the
// currently-dispatching event still completes its resolved handler,
// global handler and post-dispatch hook before anything observes the
// drain request — see DESIGN.md "Open Question decisions" #3.
func (r *Reactor) Stop() {
	if r.stopped {
		return
	}
	r.stopped = true
	r.collector.Put(event.ReactorFinal, event.ClassReactor, r)

	if r.processing > 0 {
		r.pendingRelease = true
		return
	}
	r.Process()
	r.collector.Release()
}

// ctx returns the background context spans are rooted under; the
// public API has no context.Context parameter (spec.md §4.6), so
// telemetry roots its own.
func (r *Reactor) ctx() context.Context { return context.Background() }
