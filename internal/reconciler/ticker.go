package reconciler

import "time"

// Ticker is the clock a sweep loop waits on. Tests drive sweeps through a
// manual implementation instead of wall-clock intervals.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(interval time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

// NewTicker fires at a fixed rate; ticks that arrive while a sweep is still
// running are dropped, so a sweep never overlaps itself.
func NewTicker(interval time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(interval)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }

func (r *realTicker) Stop() { r.t.Stop() }
