package reactor

import (
	"testing"
	"time"

	"github.com/webitel/go-reactor/internal/event"
)

// recordingHandler appends every dispatched event's Type to a slice,
// in the order it was dispatched, to assert invariant 1 (ordering)
// from spec.md §8.
type recordingHandler struct{ seen []event.Type }

func (r *recordingHandler) Dispatch(ev event.Event) { r.seen = append(r.seen, ev.Type) }

func TestStartEmitsInitThenQuiesced(t *testing.T) {
	global := &recordingHandler{}
	r := NewReactor(WithGlobalHandler(global))

	r.Start()
	more := r.Work(0)

	// The first idle transition enqueues REACTOR_QUIESCED but returns
	// before dispatching it: that queued, undispatched event is itself
	// the "potential work" Process's contract promises a true return
	// for (spec.md §4.1 step 3), so Work correctly reports more to do.
	if !more {
		t.Fatal("want the first Work call to report more work (the just-enqueued REACTOR_QUIESCED)")
	}
	if len(global.seen) != 2 || global.seen[0] != event.ReactorInit || global.seen[1] != event.SelectableInit {
		t.Fatalf("want [ReactorInit, SelectableInit], got %v", global.seen)
	}

	r.Work(0) // dispatches REACTOR_QUIESCED

	var foundQuiesced bool
	for _, ty := range global.seen {
		if ty == event.ReactorQuiesced {
			foundQuiesced = true
		}
	}
	if !foundQuiesced {
		t.Fatalf("want ReactorQuiesced once collector drains, got %v", global.seen)
	}
}

// TestEmptyRunEmitsFullQuiesceSequence drives scenario S1 (spec.md §8)
// to completion: start(); while work(1000) {}; stop() with no user
// handlers and no real I/O registered emits exactly REACTOR_INIT,
// SELECTABLE_INIT (the internal timer), REACTOR_QUIESCED (once),
// SELECTABLE_FINAL (the timer going terminal), REACTOR_FINAL — and
// Work returns true once (quiesced, the queued QUIESCED still pending)
// then false once (fully drained).
func TestEmptyRunEmitsFullQuiesceSequence(t *testing.T) {
	global := &recordingHandler{}
	r := NewReactor(WithGlobalHandler(global))

	r.Start()

	if !r.Work(0) {
		t.Fatal("want the first Work call to report more work pending")
	}
	if r.Work(0) {
		t.Fatal("want the second Work call to report no more work once the timer selectable has gone final")
	}

	r.Stop()

	want := []event.Type{
		event.ReactorInit,
		event.SelectableInit,
		event.ReactorQuiesced,
		event.SelectableFinal,
		event.ReactorFinal,
	}
	if len(global.seen) != len(want) {
		t.Fatalf("want event sequence %v, got %v", want, global.seen)
	}
	for i, ty := range want {
		if global.seen[i] != ty {
			t.Fatalf("want event sequence %v, got %v (mismatch at index %d)", want, global.seen, i)
		}
	}
}

func TestQuiescedInjectedOnlyOncePerIdlePeriod(t *testing.T) {
	global := &recordingHandler{}
	r := NewReactor(WithGlobalHandler(global))

	r.Start()
	r.Work(0)
	r.Work(0) // second call against an already-idle reactor

	var count int
	for _, ty := range global.seen {
		if ty == event.ReactorQuiesced {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("want exactly one ReactorQuiesced across repeated idle Work calls, got %d", count)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	global := &recordingHandler{}
	r := NewReactor(WithGlobalHandler(global))
	r.Start()
	r.Work(0)

	r.Stop()
	n := len(global.seen)
	r.Stop() // must be a no-op

	if len(global.seen) != n {
		t.Fatalf("want second Stop to be a no-op, event count changed from %d to %d", n, len(global.seen))
	}

	var finals int
	for _, ty := range global.seen {
		if ty == event.ReactorFinal {
			finals++
		}
	}
	if finals != 1 {
		t.Fatalf("want exactly one ReactorFinal, got %d", finals)
	}
}

func TestYieldStopsDrainingAfterCurrentEvent(t *testing.T) {
	global := &recordingHandler{}
	r := NewReactor(WithGlobalHandler(global))

	first := newGraphNode(event.ClassConnection, nil)
	second := newGraphNode(event.ClassConnection, nil)
	r.collector.Put(event.ConnectionInit, event.ClassConnection, first)
	r.collector.Put(event.ConnectionInit, event.ClassConnection, second)

	first.attachments.SetHandler(HandlerFunc(func(event.Event) { r.Yield() }))

	more := r.Process()
	if !more {
		t.Fatal("want Process to report more work pending when it returns due to yield")
	}
	if len(global.seen) != 1 {
		t.Fatalf("want exactly one event dispatched before yield is observed, got %v", global.seen)
	}

	ev, ok := r.collector.Peek()
	if !ok || ev.Context != second {
		t.Fatal("expected the second event to remain queued across the yielding Process call")
	}
}

func TestRequestStopEndsRunLoop(t *testing.T) {
	r := NewReactor()

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	r.RequestStop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("want Run to return once RequestStop is observed")
	}
}

func TestScheduleFiresHandlerAtDeadline(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }
	r := NewReactor(WithClock(clock))
	r.Start()
	r.Work(0)

	var fired bool
	r.Schedule(10, HandlerFunc(func(ev event.Event) {
		if ev.Type == event.TimerTask {
			fired = true
		}
	}))

	now = now.Add(20 * time.Second)
	r.Work(0)

	if !fired {
		t.Fatal("want the scheduled task's handler to fire once its deadline has passed")
	}
}

func TestRegisterSelectableIsIdempotent(t *testing.T) {
	r := NewReactor()
	sel := NewBaseSelectable()

	r.RegisterSelectable(sel)
	r.RegisterSelectable(sel)

	if r.selectablesCount != 1 {
		t.Fatalf("want a selectable registered once, got count %d", r.selectablesCount)
	}
}

func TestUpdateEmitsFinalExactlyOnce(t *testing.T) {
	r := NewReactor()
	sel := NewBaseSelectable()
	r.RegisterSelectable(sel)
	r.collector.Release() // drop SELECTABLE_INIT, isolate this assertion to Update

	sel.Terminate()
	r.Update(sel)
	r.Update(sel) // must not enqueue SELECTABLE_FINAL twice

	var finals int
	for r.collector.Len() > 0 {
		ev, _ := r.collector.Peek()
		if ev.Type == event.SelectableFinal {
			finals++
		}
		r.collector.Pop()
	}
	if finals != 1 {
		t.Fatalf("want exactly one SELECTABLE_FINAL, got %d", finals)
	}
}

func TestConnectionInitBindsWeakReactorRef(t *testing.T) {
	r := NewReactor()
	conn := newGraphNode(event.ClassConnection, nil)

	r.collector.Put(event.ConnectionInit, event.ClassConnection, conn)
	r.Process()

	ref, ok := conn.attachments.ReactorRef()
	if !ok {
		t.Fatal("want CONNECTION_INIT pre-dispatch hook to attach a reactor ref")
	}
	got, ok := ref.Get()
	if !ok || got != r {
		t.Fatalf("want weak ref to resolve to the owning reactor, got %v ok=%v", got, ok)
	}
}

func TestConnectionFinalInvokesFinalizer(t *testing.T) {
	var finalized event.Context
	r := NewReactor(WithConnectionFinalizer(func(ctx event.Context) { finalized = ctx }))
	conn := newGraphNode(event.ClassConnection, nil)

	r.collector.Put(event.ConnectionFinal, event.ClassConnection, conn)
	r.Process()

	if finalized != conn {
		t.Fatalf("want finalizer invoked with the connection context, got %v", finalized)
	}
}

func TestReentrantStopDefersCollectorRelease(t *testing.T) {
	var r *Reactor
	r = NewReactor(WithRootHandler(HandlerFunc(func(ev event.Event) {
		r.Stop() // reentrant call from inside a dispatched handler
		if r.collector.Len() == 0 {
			t.Fatal("reentrant Stop must not release the collector while the outer Process call is still in flight")
		}
	})))
	r.collector.Put(event.None, event.ClassConnection, newGraphNode(event.ClassConnection, nil))

	r.Process()

	if r.collector.Len() != 0 {
		t.Fatalf("want collector released once the outer Process call unwinds, len=%d", r.collector.Len())
	}
}
