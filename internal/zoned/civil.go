// Package zoned converts between instants and wall-clock readings in a
// named location, reporting DST gaps and folds instead of normalizing them
// away the way time.Date does.
package zoned

import (
	"fmt"
	"time"
)

// MinYear and MaxYear bound the civil years this package will resolve.
const (
	MinYear = 1
	MaxYear = 9999
)

// Civil is a wall-clock reading with second precision.
type Civil struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Date builds a Civil from possibly out-of-range components, carrying
// overflow into coarser fields (Date(2024, 13, 1, ...) is 2025-01-01).
func Date(year int, month time.Month, day, hour, minute, second int) Civil {
	return fromUTC(time.Date(year, month, day, hour, minute, second, 0, time.UTC))
}

// Decompose returns the wall-clock reading of t in loc, dropping
// sub-second precision.
func Decompose(t time.Time, loc *time.Location) Civil {
	t = t.In(loc)
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Civil{Year: y, Month: mo, Day: d, Hour: h, Minute: mi, Second: s}
}

func fromUTC(t time.Time) Civil {
	return Decompose(t, time.UTC)
}

func (c Civil) utc() time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// AddSeconds returns c shifted by n wall-clock seconds.
func (c Civil) AddSeconds(n int) Civil {
	return fromUTC(c.utc().Add(time.Duration(n) * time.Second))
}

// Weekday returns the day of the week c falls on.
func (c Civil) Weekday() time.Weekday {
	return c.utc().Weekday()
}

// Before reports whether c is earlier than o on the wall clock.
func (c Civil) Before(o Civil) bool {
	return c.utc().Before(o.utc())
}

func (c Civil) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", c.Year, int(c.Month), c.Day, c.Hour, c.Minute, c.Second)
}

// DaysIn returns the number of days in the given month, honouring leap years.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Weekday returns the day of the week of the given date.
func Weekday(year int, month time.Month, day int) time.Weekday {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
}
