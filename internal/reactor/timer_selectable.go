package reactor

// timerSelectable is the single internal selectable the reactor
// registers to carry the timer deadline (spec.md §4.5). Its expired
// callback ticks the timer, re-arms its own deadline to the new timer
// head, and republishes SELECTABLE_UPDATED through the normal Update
// path.
type timerSelectable struct {
	*BaseSelectable
	r *Reactor
}

func newTimerSelectable(r *Reactor) *timerSelectable {
	ts := &timerSelectable{BaseSelectable: NewBaseSelectable(), r: r}
	ts.OnExpired(ts.onExpired)
	return ts
}

func (ts *timerSelectable) onExpired() {
	ts.r.tick()
	if d, ok := ts.r.timer.Deadline(); ok {
		ts.SetDeadline(d)
	} else {
		// No timer head left: drop the matured deadline so pollDeadlines
		// stops firing this selectable on every Work call.
		ts.mu.Lock()
		ts.hasDeadline = false
		ts.mu.Unlock()
	}
	ts.r.Update(ts)
}
