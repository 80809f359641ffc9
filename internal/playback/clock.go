package playback

import "time"

// Clock is the playback device's notion of time, measured from an arbitrary
// origin, plus a way to be called back once a point on it has passed.
type Clock interface {
	Now() time.Duration
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type wallClock struct {
	origin time.Time
}

// NewWallClock returns a Clock backed by the system monotonic clock,
// starting at zero.
func NewWallClock() Clock {
	return &wallClock{origin: time.Now()}
}

func (c *wallClock) Now() time.Duration { return time.Since(c.origin) }

func (c *wallClock) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, f)
}

// Since returns a view of base whose zero is base's current time. A live call
// takes one when it starts so the offsets it hands to the sink are measured
// from the start of the call.
func Since(base Clock) Clock {
	return &offsetClock{base: base, origin: base.Now()}
}

type offsetClock struct {
	base   Clock
	origin time.Duration
}

func (c *offsetClock) Now() time.Duration { return c.base.Now() - c.origin }

func (c *offsetClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.base.AfterFunc(d, f)
}
