package week

import "time"

// Clock resolves current and next working weeks from an injected time source.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock constructs a Clock. A nil loc falls back to DefaultTimezone and a nil now to time.Now.
func NewClock(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		if fallback, err := LoadLocation(DefaultTimezone); err == nil {
			loc = fallback
		} else {
			loc = time.UTC
		}
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

// Location returns the zone the clock reads dates in.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the clock's zone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Current returns CurrentWorkingWeek for the present instant.
func (c *Clock) Current() Key {
	return CurrentWorkingWeek(c.now(), c.loc)
}

// Next returns NextWorkingWeek for the present instant.
func (c *Clock) Next() Key {
	return NextWorkingWeek(c.now(), c.loc)
}
