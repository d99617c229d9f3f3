package clock

import "time"

// Clock supplies the generation timestamp stamped into documents and
// rendered files, so tests can pin it.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always reports the same instant until advanced.
type FixedClock struct {
	CurrentTime time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}

func (c *FixedClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
