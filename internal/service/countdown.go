package service

import "time"

// Countdown is the memorize timer shown before a test-mode recitation.
// It is deadline-based rather than tick-based: callers ask for the remaining
// time when rendering. Pausing freezes the remaining duration; resuming
// re-arms the deadline. Starting a recording discards the countdown
// entirely (handled by the session).
type Countdown struct {
	deadline  time.Time
	remaining time.Duration
	paused    bool
}

// NewCountdown starts a countdown of the given number of seconds
func NewCountdown(seconds int, now time.Time) *Countdown {
	return &Countdown{deadline: now.Add(time.Duration(seconds) * time.Second)}
}

// Remaining returns the whole seconds left, never below zero
func (c *Countdown) Remaining(now time.Time) int {
	d := c.remaining
	if !c.paused {
		d = c.deadline.Sub(now)
	}
	if d <= 0 {
		return 0
	}
	// round up so the display doesn't show 0 while time is left
	return int((d + time.Second - 1) / time.Second)
}

// Expired reports whether the countdown has run out
func (c *Countdown) Expired(now time.Time) bool {
	return c.Remaining(now) == 0
}

// Paused reports whether the countdown is frozen
func (c *Countdown) Paused() bool {
	return c.paused
}

// Pause freezes the countdown at its current remaining time
func (c *Countdown) Pause(now time.Time) {
	if c.paused {
		return
	}
	c.remaining = c.deadline.Sub(now)
	if c.remaining < 0 {
		c.remaining = 0
	}
	c.paused = true
}

// Resume re-arms the deadline from the frozen remaining time
func (c *Countdown) Resume(now time.Time) {
	if !c.paused {
		return
	}
	c.deadline = now.Add(c.remaining)
	c.paused = false
}
