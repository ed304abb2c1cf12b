package reactor

import (
	"container/heap"
	"sync"
	"time"

	"github.com/webitel/go-reactor/internal/event"
)

// Task is a scheduled future event (spec.md §3). It carries its own
// Attachments record so it satisfies Attaching for handler resolution
// and ReactorOf, the same way every other graph entity does.
type Task struct {
	deadline    time.Time
	seq         uint64
	attachments *Attachments
}

// EntityClass reports that a Task is a TASK-class context.
func (t *Task) EntityClass() event.EntityClass { return event.ClassTask }

// Attachments returns the task's attachments record.
func (t *Task) Attachments() *Attachments { return t.attachments }

// Deadline reports when the task matures.
func (t *Task) Deadline() time.Time { return t.deadline }

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		// FIFO tiebreak on equal deadlines (spec.md §4.5 ordering policy).
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Timer is the min-heap of deadline→task entries (spec.md §3). It
// holds no knowledge of handlers or the reactor; Reactor.Schedule
// populates each Task's attachments after inserting it, keeping Timer
// a leaf collaborator that depends on nothing else in this package.
type Timer struct {
	mu   sync.Mutex
	heap taskHeap
	seq  uint64
}

// NewTimer returns an empty timer.
func NewTimer() *Timer {
	t := &Timer{}
	heap.Init(&t.heap)
	return t
}

// Schedule inserts a new task maturing at deadline and returns it with
// a freshly allocated, still-empty Attachments record.
func (t *Timer) Schedule(deadline time.Time) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	task := &Task{deadline: deadline, seq: t.seq, attachments: NewAttachments()}
	t.seq++
	heap.Push(&t.heap, task)
	return task
}

// Deadline reports the next task's deadline, if any.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.heap) == 0 {
		return time.Time{}, false
	}
	return t.heap[0].deadline, true
}

// Tasks reports how many tasks remain scheduled.
func (t *Timer) Tasks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.heap)
}

// Tick removes every task with deadline ≤ now, invoking emit for each
// in non-decreasing deadline order (ties broken by insertion order),
// per spec.md §3 and §5.
func (t *Timer) Tick(now time.Time, emit func(*Task)) {
	t.mu.Lock()
	var matured []*Task
	for len(t.heap) > 0 && !t.heap[0].deadline.After(now) {
		matured = append(matured, heap.Pop(&t.heap).(*Task))
	}
	t.mu.Unlock()

	for _, task := range matured {
		emit(task)
	}
}
