package reactor

import (
	"testing"

	"github.com/webitel/go-reactor/internal/event"
)

func TestAttachmentsHandlerRoundTrip(t *testing.T) {
	a := NewAttachments()
	if _, ok := a.Handler(); ok {
		t.Fatal("expected no handler initially")
	}

	var dispatched event.Event
	h := HandlerFunc(func(ev event.Event) { dispatched = ev })
	a.SetHandler(h)

	got, ok := a.Handler()
	if !ok {
		t.Fatal("expected handler after SetHandler")
	}
	got.Dispatch(event.Event{Type: event.ReactorInit})
	if dispatched.Type != event.ReactorInit {
		t.Fatalf("handler was not the one attached, got %+v", dispatched)
	}
}

func TestAttachmentsTerminatedFlag(t *testing.T) {
	a := NewAttachments()
	if a.IsTerminated() {
		t.Fatal("expected not terminated initially")
	}
	a.MarkTerminated()
	if !a.IsTerminated() {
		t.Fatal("expected terminated after MarkTerminated")
	}
}

func TestArenaPutGetRelease(t *testing.T) {
	type widget struct{ n int }
	arena := NewArena[*widget]()

	h := arena.Put(&widget{n: 42})
	v, ok := arena.Get(h)
	if !ok || v.n != 42 {
		t.Fatalf("want 42, got %+v ok=%v", v, ok)
	}

	arena.Release(h)
	if _, ok := arena.Get(h); ok {
		t.Fatal("expected handle to be invalid after Release")
	}
}

func TestArenaGenerationPreventsStaleReuse(t *testing.T) {
	type widget struct{ n int }
	arena := NewArena[*widget]()

	h1 := arena.Put(&widget{n: 1})
	arena.Release(h1)
	h2 := arena.Put(&widget{n: 2})

	if h1.index != h2.index {
		t.Fatalf("expected slot reuse, got h1=%d h2=%d", h1.index, h2.index)
	}
	if _, ok := arena.Get(h1); ok {
		t.Fatal("stale handle must not resolve after slot reuse")
	}
	v, ok := arena.Get(h2)
	if !ok || v.n != 2 {
		t.Fatalf("want fresh handle to resolve to 2, got %+v ok=%v", v, ok)
	}
}

func TestWeakRefGet(t *testing.T) {
	type widget struct{ n int }
	arena := NewArena[*widget]()
	h := arena.Put(&widget{n: 7})
	ref := WeakRef[*widget]{arena: arena, handle: h}

	v, ok := ref.Get()
	if !ok || v.n != 7 {
		t.Fatalf("want 7, got %+v ok=%v", v, ok)
	}

	arena.Release(h)
	if _, ok := ref.Get(); ok {
		t.Fatal("expected weak ref to observe release")
	}
}

func TestWeakRefZeroValueIsAbsent(t *testing.T) {
	var ref WeakRef[*int]
	if _, ok := ref.Get(); ok {
		t.Fatal("zero-value WeakRef must never resolve")
	}
}
