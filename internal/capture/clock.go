package capture

import "time"

// Timer is a scheduled cancellable task. Stopping a pending timer is how
// a segment's lifetime is cut short deliberately instead of by timeout.
type Timer interface {
	Stop() bool
}

// Ticker drives the periodic analysis loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts timer scheduling so segmentation tests run without
// real time.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
