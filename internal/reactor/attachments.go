package reactor

import "sync"

// Key enumerates the well-known attachment slots spec.md §3 calls out:
// HANDLER, REACTOR and the internal TERMINATED marker. Kept as a closed
// enum (mirroring the PN_HANDLE sentinel mapping spec.md §9 asks for)
// rather than string keys, so a typo can't silently miss a lookup.
type Key int

const (
	KeyHandler Key = iota
	KeyReactor
	KeyTerminated
)

// Attachments is the per-entity key→value map described in spec.md §3.
// It is safe for concurrent use: registry janitors and transport
// goroutines may read/write an entity's attachments from outside the
// reactor's owning thread (see SPEC_FULL.md §4, idle eviction note),
// while the dispatch loop itself only ever touches them synchronously.
type Attachments struct {
	mu     sync.RWMutex
	values map[Key]any
}

// NewAttachments returns an empty attachments record.
func NewAttachments() *Attachments {
	return &Attachments{values: make(map[Key]any, 3)}
}

func (a *Attachments) set(k Key, v any) {
	a.mu.Lock()
	a.values[k] = v
	a.mu.Unlock()
}

func (a *Attachments) get(k Key) (any, bool) {
	a.mu.RLock()
	v, ok := a.values[k]
	a.mu.RUnlock()
	return v, ok
}

// Handler returns the strong HANDLER reference attached, if any.
func (a *Attachments) Handler() (Handler, bool) {
	v, ok := a.get(KeyHandler)
	if !ok {
		return nil, false
	}
	h, ok := v.(Handler)
	return h, ok
}

// SetHandler attaches a strong HANDLER reference.
func (a *Attachments) SetHandler(h Handler) {
	a.set(KeyHandler, h)
}

// ReactorRef returns the weak REACTOR back-reference attached, if any.
func (a *Attachments) ReactorRef() (WeakRef[*Reactor], bool) {
	v, ok := a.get(KeyReactor)
	if !ok {
		return WeakRef[*Reactor]{}, false
	}
	w, ok := v.(WeakRef[*Reactor])
	return w, ok
}

// SetReactorRef attaches a weak REACTOR back-reference. This is the
// moment spec.md §4.2's CONNECTION_INIT pre-dispatch hook describes as
// "an externally-constructed connection becomes bound to the reactor".
func (a *Attachments) SetReactorRef(w WeakRef[*Reactor]) {
	a.set(KeyReactor, w)
}

// MarkTerminated sets the internal TERMINATED marker a selectable
// carries once it has emitted SELECTABLE_FINAL (spec.md §4.4).
func (a *Attachments) MarkTerminated() {
	a.set(KeyTerminated, true)
}

// IsTerminated reports whether MarkTerminated has been called.
func (a *Attachments) IsTerminated() bool {
	v, ok := a.get(KeyTerminated)
	return ok && v.(bool)
}

// Handle is an opaque arena index plus generation counter. Looking a
// stale handle up after its slot has been recycled returns (zero,
// false); this is the arena+generation model spec.md §9 prescribes for
// languages without built-in weak references.
type Handle struct {
	index      int
	generation uint64
}

type arenaSlot[T any] struct {
	value      T
	generation uint64
	occupied   bool
}

// Arena owns a set of values addressable by generation-checked Handle.
// A WeakRef holds an Arena pointer and a Handle rather than a T
// directly, so releasing the owning entry (Release) makes every
// outstanding WeakRef observe absence without the arena needing to
// track its holders.
type Arena[T any] struct {
	mu    sync.Mutex
	slots []arenaSlot[T]
	free  []int
}

// NewArena returns an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Put inserts v and returns a handle to it.
func (a *Arena[T]) Put(v T) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].value = v
		a.slots[idx].occupied = true
		return Handle{index: idx, generation: a.slots[idx].generation}
	}

	a.slots = append(a.slots, arenaSlot[T]{value: v, occupied: true})
	return Handle{index: len(a.slots) - 1, generation: 0}
}

// Get resolves a handle, returning ok=false if the slot has since been
// released (and possibly reused, hence the generation check).
func (a *Arena[T]) Get(h Handle) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var zero T
	if h.index < 0 || h.index >= len(a.slots) {
		return zero, false
	}
	slot := a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return zero, false
	}
	return slot.value, true
}

// Release invalidates h's slot for reuse and bumps its generation so
// existing WeakRefs to it stop resolving.
func (a *Arena[T]) Release(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.index < 0 || h.index >= len(a.slots) {
		return
	}
	slot := &a.slots[h.index]
	if !slot.occupied || slot.generation != h.generation {
		return
	}
	var zero T
	slot.value = zero
	slot.occupied = false
	slot.generation++
	a.free = append(a.free, h.index)
}

// WeakRef is a non-owning reference to a T held in an Arena. Every
// back-reference the reactor's ownership rules call "weak" (§3:
// selectable→reactor, task/transport/connection attachments→reactor)
// is modeled as a WeakRef rather than a raw pointer.
type WeakRef[T any] struct {
	arena *Arena[T]
	handle Handle
}

// Get resolves the weak reference. ok is false once the referent has
// been released (Reactor.Free), mirroring "if the reactor is freed
// first, the back-ref simply becomes unreachable" (spec.md §9).
func (w WeakRef[T]) Get() (T, bool) {
	if w.arena == nil {
		var zero T
		return zero, false
	}
	return w.arena.Get(w.handle)
}
