package reliability

import "time"

// fakeClock lets tests fire retransmission timers on demand instead of
// sleeping through real TIMEOUT_MS windows. Every AfterFunc call is
// recorded in arrival order; fire replays the callback and marks the timer
// spent so a later Stop is a harmless no-op, same as a real timer.
type fakeClock struct {
	scheduled []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	t := &fakeTimer{fn: f}
	c.scheduled = append(c.scheduled, t)
	return t
}

// fireLatest invokes the most recently scheduled, still-live timer — the
// one standing in for seq's current retransmission deadline, since each
// retry rearms a fresh timer.
func (c *fakeClock) fireLatest() {
	for i := len(c.scheduled) - 1; i >= 0; i-- {
		t := c.scheduled[i]
		if !t.stopped && !t.fired {
			t.fired = true
			t.fn()
			return
		}
	}
}
