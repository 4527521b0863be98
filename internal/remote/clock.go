package remote

import "time"

// Clock abstracts time so deadlines and pulses can be driven by tests.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct{ t *time.Timer }

func (s systemTimer) C() <-chan time.Time { return s.t.C }
func (s systemTimer) Stop() bool          { return s.t.Stop() }

// sleep blocks for d on clock. Zero or negative durations return at once.
func sleep(clock Clock, d time.Duration) {
	if d <= 0 {
		return
	}
	t := clock.NewTimer(d)
	<-t.C()
}
