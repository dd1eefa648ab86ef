// Package calendar derives the operational date used to bucket daily logs.
//
// An operational day starts at a configurable rollover hour rather than
// midnight, so activity between midnight and the rollover hour is attributed
// to the previous day. The conversion is timezone-aware: DST transitions
// follow the location's civil-time rules, not a fixed UTC offset.
package calendar

import (
	"fmt"
	"time"
)

// OperationalDate maps an instant to the calendar date it belongs to under
// the rollover rule. The returned time is midnight of that date in loc; use
// FormatDate for the wire/cache-key form.
func OperationalDate(instant time.Time, loc *time.Location, rolloverHour int) time.Time {
	local := instant.In(loc)
	if local.Hour() < rolloverHour {
		local = local.AddDate(0, 0, -1)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// FormatDate renders a date as ISO-8601 (2006-01-02).
func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}

// ParseDate parses an ISO-8601 date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// Clock resolves "today" for a fixed timezone and rollover hour. Construct
// one at startup and pass it into the handlers; nowFunc is overridable for
// tests.
type Clock struct {
	loc          *time.Location
	rolloverHour int
	nowFunc      func() time.Time
}

// NewClock builds a Clock. An unknown timezone name or an out-of-range
// rollover hour is a configuration error; callers treat it as fatal.
func NewClock(timezone string, rolloverHour int) (*Clock, error) {
	if rolloverHour < 0 || rolloverHour > 23 {
		return nil, fmt.Errorf("rollover hour %d out of range [0,23]", rolloverHour)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", timezone, err)
	}
	return &Clock{loc: loc, rolloverHour: rolloverHour, nowFunc: time.Now}, nil
}

// Now returns the current instant in the clock's location.
func (c *Clock) Now() time.Time {
	return c.nowFunc().In(c.loc)
}

// Today returns the current operational date.
func (c *Clock) Today() time.Time {
	return OperationalDate(c.nowFunc(), c.loc, c.rolloverHour)
}

// Location returns the clock's timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}
