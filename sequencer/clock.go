package sequencer

import (
	"sync"
	"time"
)

// Clock is the monotonic timeline, in seconds, that event timestamps are
// expressed in.
type Clock interface {
	Now() float64
}

// WallClock counts seconds since it was created.
type WallClock struct {
	t0 time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{t0: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.t0).Seconds()
}

// Time converts a clock reading back to wall time.
func (c *WallClock) Time(t float64) time.Time {
	return c.t0.Add(time.Duration(t * float64(time.Second)))
}

// ManualClock only moves when told to. Used for offline rendering and tests.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}
