// Package clock provides the wall-clock source used for cooldowns, effect
// expiry and quiz timeouts.
package clock

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Date is a calendar date in the clock's location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Midnight returns the first instant of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Tomorrow returns the first instant of the day after d in loc.
func (d Date) Tomorrow(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Clock is the only time source the engine reads.
type Clock interface {
	Now() time.Time
	Today() Date
	Location() *time.Location
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct {
	cw  clockwork.Clock
	loc *time.Location
}

// New returns a real clock whose calendar dates are taken in loc.
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &wallClock{cw: clockwork.NewRealClock(), loc: loc}
}

func (c *wallClock) Now() time.Time           { return c.cw.Now() }
func (c *wallClock) Today() Date              { return DateOf(c.cw.Now(), c.loc) }
func (c *wallClock) Location() *time.Location { return c.loc }

func (c *wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.cw.AfterFunc(d, f)
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	wallClock
	fake *clockwork.FakeClock
}

// NewFake returns a fake clock frozen at start.
func NewFake(start time.Time, loc *time.Location) *Fake {
	if loc == nil {
		loc = time.UTC
	}
	fc := clockwork.NewFakeClockAt(start)
	return &Fake{wallClock: wallClock{cw: fc, loc: loc}, fake: fc}
}

// Advance moves the fake clock forward, firing due timers.
func (f *Fake) Advance(d time.Duration) {
	f.fake.Advance(d)
}
