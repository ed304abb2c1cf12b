package reactor

import (
	"testing"
	"time"
)

func TestTimerTickOrdersNonDecreasing(t *testing.T) {
	tm := NewTimer()
	base := time.Unix(0, 0)

	tm.Schedule(base.Add(3 * time.Second))
	tm.Schedule(base.Add(1 * time.Second))
	tm.Schedule(base.Add(2 * time.Second))

	var fired []time.Time
	tm.Tick(base.Add(10*time.Second), func(task *Task) {
		fired = append(fired, task.Deadline())
	})

	if len(fired) != 3 {
		t.Fatalf("want 3 matured tasks, got %d", len(fired))
	}
	for i := 1; i < len(fired); i++ {
		if fired[i].Before(fired[i-1]) {
			t.Fatalf("tasks fired out of order: %v", fired)
		}
	}
}

func TestTimerTickFIFOTiebreakOnEqualDeadline(t *testing.T) {
	tm := NewTimer()
	deadline := time.Unix(100, 0)

	first := tm.Schedule(deadline)
	second := tm.Schedule(deadline)
	third := tm.Schedule(deadline)

	var order []*Task
	tm.Tick(deadline, func(task *Task) { order = append(order, task) })

	if len(order) != 3 || order[0] != first || order[1] != second || order[2] != third {
		t.Fatalf("expected FIFO tiebreak, got %v", order)
	}
}

func TestTimerTickLeavesUnmaturedTasks(t *testing.T) {
	tm := NewTimer()
	tm.Schedule(time.Unix(10, 0))
	tm.Schedule(time.Unix(20, 0))

	var fired int
	tm.Tick(time.Unix(15, 0), func(*Task) { fired++ })

	if fired != 1 {
		t.Fatalf("want 1 matured task, got %d", fired)
	}
	if tm.Tasks() != 1 {
		t.Fatalf("want 1 remaining task, got %d", tm.Tasks())
	}
	d, ok := tm.Deadline()
	if !ok || !d.Equal(time.Unix(20, 0)) {
		t.Fatalf("want remaining deadline 20s, got %v ok=%v", d, ok)
	}
}

func TestTimerDeadlineEmpty(t *testing.T) {
	tm := NewTimer()
	if _, ok := tm.Deadline(); ok {
		t.Fatal("expected no deadline on empty timer")
	}
}
