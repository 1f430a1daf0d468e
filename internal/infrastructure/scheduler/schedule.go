package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL
// ══════════════════════════════════════════════════════════════════════════════

// Every runs a job at a fixed interval after the previous due time.
type Every time.Duration

// Next implements Schedule.
func (e Every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

// String implements Schedule.
func (e Every) String() string {
	return "@every " + time.Duration(e).String()
}

// ══════════════════════════════════════════════════════════════════════════════
// CRON
// ══════════════════════════════════════════════════════════════════════════════

// Cron is a parsed five-field cron expression:
//
//	minute hour day-of-month month day-of-week
//
// Each field accepts *, n, n-m, */s, n-m/s and comma separated lists of
// those. As in classic cron, when both day fields are restricted a time
// matches if either does.
type Cron struct {
	raw      string
	minutes  fieldSet
	hours    fieldSet
	days     fieldSet
	months   fieldSet
	weekdays fieldSet

	daysAny     bool
	weekdaysAny bool
}

// fieldSet is a bitmask of allowed values, bit n for value n.
type fieldSet uint64

func (f fieldSet) has(v int) bool { return f&(1<<uint(v)) != 0 }

type cronField struct {
	name     string
	min, max int
}

var cronFields = [5]cronField{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

// ParseCron parses expr.
func ParseCron(expr string) (*Cron, error) {
	fields := strings.Fields(expr)
	if len(fields) != len(cronFields) {
		return nil, fmt.Errorf("cron %q: expected 5 fields, got %d", expr, len(fields))
	}

	var sets [5]fieldSet
	for i, f := range fields {
		set, err := parseCronField(f, cronFields[i])
		if err != nil {
			return nil, fmt.Errorf("cron %q: %w", expr, err)
		}
		sets[i] = set
	}

	return &Cron{
		raw:         expr,
		minutes:     sets[0],
		hours:       sets[1],
		days:        sets[2],
		months:      sets[3],
		weekdays:    sets[4],
		daysAny:     fields[2] == "*",
		weekdaysAny: fields[4] == "*",
	}, nil
}

// MustParseCron is ParseCron for expressions known at compile time.
func MustParseCron(expr string) *Cron {
	c, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return c
}

func parseCronField(expr string, field cronField) (fieldSet, error) {
	var set fieldSet
	for _, part := range strings.Split(expr, ",") {
		base, stepStr, hasStep := strings.Cut(part, "/")

		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return 0, fmt.Errorf("%s: invalid step %q", field.name, stepStr)
			}
			step = n
		}

		lo, hi := field.min, field.max
		switch {
		case base == "*":
		case strings.Contains(base, "-"):
			a, b, _ := strings.Cut(base, "-")
			var err error
			if lo, err = cronValue(a, field); err != nil {
				return 0, err
			}
			if hi, err = cronValue(b, field); err != nil {
				return 0, err
			}
			if lo > hi {
				return 0, fmt.Errorf("%s: empty range %q", field.name, base)
			}
		default:
			v, err := cronValue(base, field)
			if err != nil {
				return 0, err
			}
			lo = v
			if !hasStep {
				hi = v
			}
		}

		for v := lo; v <= hi; v += step {
			set |= 1 << uint(v)
		}
	}
	return set, nil
}

func cronValue(s string, field cronField) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q", field.name, s)
	}
	if v < field.min || v > field.max {
		return 0, fmt.Errorf("%s: %d out of range [%d-%d]", field.name, v, field.min, field.max)
	}
	return v, nil
}

// String implements Schedule.
func (c *Cron) String() string {
	return c.raw
}

// Next implements Schedule. It returns the first matching minute strictly
// after t, in t's location, or the zero time when none exists within a year.
func (c *Cron) Next(t time.Time) time.Time {
	next := t.Truncate(time.Minute).Add(time.Minute)
	limit := next.AddDate(1, 0, 0)

	for next.Before(limit) {
		if !c.months.has(int(next.Month())) {
			next = time.Date(next.Year(), next.Month()+1, 1, 0, 0, 0, 0, next.Location())
			continue
		}
		if !c.dayMatches(next) {
			next = time.Date(next.Year(), next.Month(), next.Day()+1, 0, 0, 0, 0, next.Location())
			continue
		}
		if !c.hours.has(next.Hour()) {
			next = time.Date(next.Year(), next.Month(), next.Day(), next.Hour()+1, 0, 0, 0, next.Location())
			continue
		}
		if !c.minutes.has(next.Minute()) {
			next = next.Add(time.Minute)
			continue
		}
		return next
	}
	return time.Time{}
}

func (c *Cron) dayMatches(t time.Time) bool {
	dom := c.days.has(t.Day())
	dow := c.weekdays.has(int(t.Weekday()))
	switch {
	case c.daysAny && c.weekdaysAny:
		return true
	case c.daysAny:
		return dow
	case c.weekdaysAny:
		return dom
	default:
		return dom || dow
	}
}
