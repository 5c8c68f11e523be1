package frame

import "time"

// Clock is the scheduler's view of time. Now must be monotonic for the
// system implementation; Sleep blocks the calling goroutine.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock uses the process monotonic clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock only moves when told to. Sleep advances it instantly, so a
// frame-capped loop runs at full speed under test.
type ManualClock struct {
	now   time.Time
	slept time.Duration
	OnNow func(c *ManualClock) // optional hook, runs before each Now
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *ManualClock) Now() time.Time {
	if c.OnNow != nil {
		c.OnNow(c)
	}
	return c.now
}

func (c *ManualClock) Sleep(d time.Duration) {
	if d > 0 {
		c.now = c.now.Add(d)
		c.slept += d
	}
}

// Advance moves time forward (or backward with a negative d).
func (c *ManualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// AdvanceSeconds is Advance for float seconds.
func (c *ManualClock) AdvanceSeconds(s float64) {
	c.Advance(time.Duration(s * float64(time.Second)))
}

// Slept returns the total time passed to Sleep.
func (c *ManualClock) Slept() time.Duration { return c.slept }
