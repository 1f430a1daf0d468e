// Package timeutil provides the ledger's notion of "today".
// Attendance is keyed by calendar date in one configured timezone, so every
// date derivation goes through a Clock bound to that location.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Clock supplies the current instant and the location used to derive dates.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock reads the wall clock.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock bound to loc (UTC when nil).
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{loc: loc}
}

// Now implements Clock.
func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location implements Clock.
func (c *SystemClock) Location() *time.Location {
	return c.loc
}

// FixedClock always returns the same instant. Used in tests and replays.
type FixedClock struct {
	At  time.Time
	Loc *time.Location
}

// Now implements Clock.
func (c *FixedClock) Now() time.Time {
	return c.At.In(c.Location())
}

// Location implements Clock.
func (c *FixedClock) Location() *time.Location {
	if c.Loc == nil {
		return time.UTC
	}
	return c.Loc
}

// Advance moves the fixed clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.At = c.At.Add(d)
}

// LoadLocation resolves an IANA zone name, falling back to a fixed offset
// when the tz database is unavailable for the common "UTC" case.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// DateOf returns the calendar date of t in loc as midnight UTC.
// Dates are compared and stored in this canonical form.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the clock's current calendar date.
func Today(c Clock) time.Time {
	return DateOf(c.Now(), c.Location())
}

// ParseDate parses a YYYY-MM-DD string into canonical date form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d.UTC(), nil
}

// FormatDate renders a canonical date.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// SameDate reports whether two canonical dates are the same day.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
