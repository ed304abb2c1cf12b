package reactor

import (
	"container/list"
	"sync"

	"github.com/webitel/go-reactor/internal/event"
)

// Collector is the FIFO of typed events the dispatch loop drains
// (spec.md §6). Unlike a channel it supports Peek without consuming,
// which the dispatch loop needs to inspect the head event before
// deciding whether to yield.
//
// Put is safe to call from a goroutine other than the reactor's owning
// thread (the registry's idle-eviction janitor does exactly this, see
// SPEC_FULL.md §4); Peek/Pop/Release are only ever called from the
// owning thread, by Process() and Stop().
type Collector struct {
	mu    sync.Mutex
	items *list.List
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{items: list.New()}
}

// Put appends an event to the tail of the queue.
func (c *Collector) Put(t event.Type, class event.EntityClass, ctx event.Context) {
	c.mu.Lock()
	c.items.PushBack(event.Event{Type: t, Class: class, Context: ctx})
	c.mu.Unlock()
}

// Peek returns the head event without removing it.
func (c *Collector) Peek() (event.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	front := c.items.Front()
	if front == nil {
		return event.Event{}, false
	}
	return front.Value.(event.Event), true
}

// Pop removes the head event, releasing the collector's reference to
// its context.
func (c *Collector) Pop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if front := c.items.Front(); front != nil {
		c.items.Remove(front)
	}
}

// Release abandons all pending events.
func (c *Collector) Release() {
	c.mu.Lock()
	c.items.Init()
	c.mu.Unlock()
}

// Len reports the number of pending events; used by Reactor.Stats.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}
