package engine2D

import (
	"math"
	"time"
)

// Clock measures the time between update ticks.
type Clock struct {
	last time.Time
	now  func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Tick returns the seconds elapsed since the previous tick, zero on the first one.
func (c *Clock) Tick() float64 {
	now := c.now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	dt := now.Sub(c.last).Seconds()
	c.last = now
	return dt
}

// Bounce is the short pulse played when a sprite gets selected.
type Bounce struct {
	Duration   float64
	Multiplier float64

	elapsed float64
	running bool
	fresh   bool
}

func NewBounce() Bounce {
	return Bounce{Duration: 0.2, Multiplier: 0.1}
}

func (b *Bounce) Start() {
	b.elapsed = 0
	b.running = true
	b.fresh = true
}

func (b *Bounce) Running() bool { return b.running }

// Advance moves the pulse forward by dt seconds and returns the scale to apply.
// The first tick after Start counts from zero; the scale is back at 1 once the pulse is over.
func (b *Bounce) Advance(dt float64) float32 {
	if !b.running {
		return 1
	}
	if b.fresh {
		b.fresh = false
	} else {
		b.elapsed += dt
	}
	if b.elapsed >= b.Duration {
		b.running = false
		return 1
	}
	return float32(1 + math.Sin(b.elapsed/b.Duration*math.Pi)*b.Multiplier)
}
