package reactor

import (
	"testing"

	"github.com/webitel/go-reactor/internal/event"
)

type stubContext struct{ class event.EntityClass }

func (s stubContext) EntityClass() event.EntityClass { return s.class }

func TestCollectorFIFOOrder(t *testing.T) {
	c := NewCollector()
	c.Put(event.ReactorInit, event.ClassReactor, stubContext{event.ClassReactor})
	c.Put(event.SelectableInit, event.ClassSelectable, stubContext{event.ClassSelectable})

	ev, ok := c.Peek()
	if !ok || ev.Type != event.ReactorInit {
		t.Fatalf("want ReactorInit head, got %+v ok=%v", ev, ok)
	}
	c.Pop()

	ev, ok = c.Peek()
	if !ok || ev.Type != event.SelectableInit {
		t.Fatalf("want SelectableInit head, got %+v ok=%v", ev, ok)
	}
}

func TestCollectorPeekDoesNotConsume(t *testing.T) {
	c := NewCollector()
	c.Put(event.ReactorInit, event.ClassReactor, stubContext{event.ClassReactor})

	if _, ok := c.Peek(); !ok {
		t.Fatal("expected an event")
	}
	if _, ok := c.Peek(); !ok {
		t.Fatal("second peek should still see the same event")
	}
	if c.Len() != 1 {
		t.Fatalf("want len 1, got %d", c.Len())
	}
}

func TestCollectorReleaseDrains(t *testing.T) {
	c := NewCollector()
	c.Put(event.ReactorInit, event.ClassReactor, stubContext{event.ClassReactor})
	c.Put(event.ReactorFinal, event.ClassReactor, stubContext{event.ClassReactor})

	c.Release()

	if _, ok := c.Peek(); ok {
		t.Fatal("expected empty collector after Release")
	}
	if c.Len() != 0 {
		t.Fatalf("want len 0, got %d", c.Len())
	}
}

func TestCollectorPopOnEmptyIsNoop(t *testing.T) {
	c := NewCollector()
	c.Pop() // must not panic
	if c.Len() != 0 {
		t.Fatalf("want len 0, got %d", c.Len())
	}
}
