package reactor

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/webitel/go-reactor/internal/event"
)

// Process runs the dispatch loop of spec.md §4.1 until Yield() cuts it
// between two events, the collector runs dry, or REACTOR_FINAL has been
// dispatched. It returns true while the reactor still has potential
// work (a yield, a just-enqueued REACTOR_QUIESCED, or a quiescent
// reactor waiting on timers or other selectables) and false once it is
// fully drained or REACTOR_FINAL has been dispatched.
//
// The shape is exactly: peek, check yield (with the documented
// double-clear — see DESIGN.md "Open Question decisions" #1), run the
// pre-dispatch hook, resolve and dispatch to the most specific handler,
// then the global handler, then the post-dispatch hook, then pop. Once
// the collector runs dry, quiesce (below) decides whether to inject
// REACTOR_QUIESCED, retire the internal timer selectable, or report the
// reactor fully drained.
func (r *Reactor) Process() bool {
	r.processing++
	defer func() {
		r.processing--
		if r.processing == 0 && r.pendingRelease {
			r.pendingRelease = false
			r.collector.Release()
		}
	}()

	r.now = r.clock()
	r.yield = false

	for {
		ev, ok := r.collector.Peek()
		if !ok {
			done, result := r.quiesce()
			if done {
				return result
			}
			continue
		}

		if r.yield {
			// Documented double clear (spec.md §9 Open Question #1):
			// this first clear is the one that honours the yield. The
			// second is the r.yield = false at the top of Process: after
			// this return it re-clears an already-false flag, and it
			// discards a yield requested while the last queued event was
			// dispatched (no next event was present to honour it).
			r.yield = false
			return true
		}

		r.dispatch(ev)
		r.previous = ev.Type
		r.settleQuiesced(ev)
		r.collector.Pop()

		if ev.Type == event.ReactorFinal {
			return false
		}
	}
}

// settleQuiesced clears the persistent quiesced flag once a dispatched
// event represents genuinely new work rather than the dispatch loop's
// own quiesce bookkeeping (the REACTOR_QUIESCED event itself, or the
// internal timer selectable's own SELECTABLE_FINAL as it is retired by
// quiesce's step 4). Any other event — a real selectable going final, a
// timer task firing, a transport message arriving — means the idle
// period that produced the last REACTOR_QUIESCED has ended, so the next
// one is allowed to fire.
func (r *Reactor) settleQuiesced(ev event.Event) {
	if ev.Type == event.ReactorQuiesced {
		return
	}
	if ev.Type == event.SelectableFinal {
		if _, ok := ev.Context.(*timerSelectable); ok {
			return
		}
	}
	r.quiesced = false
}

// quiesce implements spec.md §4.1 steps 3-4, the branch reached once
// Peek finds the collector empty. It reports (done, result): when done
// is true, Process returns result immediately (this includes the case
// where REACTOR_QUIESCED was just queued); when done is false, the
// timer's own SELECTABLE_FINAL was just queued and the loop should go
// around and dispatch it.
//
// Step 3: the first time a given idle period is observed (r.quiesced
// false, and the reactor has not already gone final), enqueue
// REACTOR_QUIESCED and return true — the queued-but-undispatched event
// itself is the "potential work" Process's contract promises a true
// return for. Once that guard holds (already quiesced this idle
// period), a still-true more() reports the reactor quiescent and
// waiting for external readiness (return true without re-enqueuing).
//
// Step 4: once more() is false, the reactor has nothing left to ever
// wake it up except the internal timer selectable it still owns
// itself. If so, retire it — mark it terminal, notify via Update, clear
// the handle — and loop so the resulting SELECTABLE_FINAL drains.
// Once the handle is cleared (or was never set), there is truly nothing
// left and Process reports the reactor fully drained.
func (r *Reactor) quiesce() (bool, bool) {
	if !r.quiesced && r.previous != event.ReactorFinal {
		r.collector.Put(event.ReactorQuiesced, event.ClassReactor, r)
		r.quiesced = true
		return true, true
	}

	if r.more() {
		return true, true
	}

	if r.timerSelectable != nil {
		r.timerSelectable.Terminate()
		r.Update(r.timerSelectable)
		r.timerSelectable = nil
		return false, false
	}

	return true, false
}

// dispatch resolves and invokes the handler chain for a single event:
// pre-dispatch hook, resolved handler, global handler, post-dispatch
// hook (spec.md §4.1, §4.2).
func (r *Reactor) dispatch(ev event.Event) {
	ctx, span := r.tracer.Start(r.ctx(), "reactor.dispatch",
		trace.WithAttributes(
			attribute.String("event.type", ev.Type.String()),
			attribute.String("event.class", ev.Class.String()),
		),
	)
	_ = ctx
	defer span.End()

	r.preDispatch(ev)

	h := Resolve(ev, r.rootHandler)
	h.Dispatch(ev)
	r.globalHandler.Dispatch(ev)

	r.postDispatch(ev)
}

// preDispatch runs spec.md §4.2's pre-dispatch hook: on CONNECTION_INIT,
// bind the connection's weak REACTOR back-reference before any handler
// sees the event, so a handler invoked for CONNECTION_INIT can already
// call ReactorOf on its own context.
func (r *Reactor) preDispatch(ev event.Event) {
	if ev.Type != event.ConnectionInit {
		return
	}
	if a, ok := ev.Context.(Attaching); ok {
		a.Attachments().SetReactorRef(r.WeakRef())
	}
}

// postDispatch runs spec.md §4.2's post-dispatch hook: CONNECTION_FINAL
// invokes the externally supplied finalizer, SELECTABLE_FINAL removes
// the selectable from the children list and releases it.
func (r *Reactor) postDispatch(ev event.Event) {
	switch ev.Type {
	case event.ConnectionFinal:
		if r.onConnectionFinal != nil {
			r.onConnectionFinal(ev.Context)
		}
	case event.SelectableFinal:
		if sel, ok := ev.Context.(Selectable); ok {
			r.removeChild(sel)
		}
	}
}
