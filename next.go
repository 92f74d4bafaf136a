package cronexpr

import (
	"fmt"
	"time"

	"cronexpr/internal/zoned"
)

// searchHorizonYears bounds the search when the year is unbounded. Dates
// and weekdays realign every 400 Gregorian years, so a schedule with no
// match in that window has none at all.
const searchHorizonYears = 400

// FindNext returns the earliest instant strictly after the given one that
// satisfies the schedule, in the schedule's location.
//
// Wall-clock times skipped by a DST transition never fire. Wall-clock times
// repeated by a DST transition fire once, at the earliest of their instants
// that is still after the given one. The search moves forward on the wall
// clock, so from the end of the first pass through a repeated hour it does
// not return to that hour's second pass: for "0 1 * * * America/New_York",
// 2024-11-03T01:00-05:00 matches but FindNext(2024-11-03T01:59:59-04:00)
// returns the next day.
func (s *Schedule) FindNext(after time.Time) (time.Time, error) {
	start, err := s.decompose(after)
	if err != nil {
		return time.Time{}, err
	}

	c := start.AddSeconds(1)
	last := min(start.Year+searchHorizonYears, zoned.MaxYear)
	if s.years != nil {
		last = min(last, s.years.Last())
	}

	for c.Year <= last {
		y, ok := s.nextYear(c.Year)
		if !ok || y > last {
			break
		}
		if y != c.Year {
			c = zoned.Civil{Year: y, Month: time.January, Day: 1}
		}

		m, ok := s.months.Next(int(c.Month))
		if !ok {
			c = zoned.Civil{Year: c.Year + 1, Month: time.January, Day: 1}
			continue
		}
		if m != int(c.Month) {
			c = zoned.Civil{Year: c.Year, Month: time.Month(m), Day: 1}
		}

		d, ok := s.nextDay(c.Year, c.Month, c.Day)
		if !ok {
			c = zoned.Date(c.Year, c.Month+1, 1, 0, 0, 0)
			continue
		}
		if d != c.Day {
			c = zoned.Civil{Year: c.Year, Month: c.Month, Day: d}
		}

		h, ok := s.hours.Next(c.Hour)
		if !ok {
			c = zoned.Date(c.Year, c.Month, c.Day+1, 0, 0, 0)
			continue
		}
		if h != c.Hour {
			c.Hour, c.Minute, c.Second = h, 0, 0
		}

		mi, ok := s.minutes.Next(c.Minute)
		if !ok {
			c = zoned.Date(c.Year, c.Month, c.Day, c.Hour+1, 0, 0)
			continue
		}
		if mi != c.Minute {
			c.Minute, c.Second = mi, 0
		}

		sec, ok := s.seconds.Next(c.Second)
		if !ok {
			c = zoned.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute+1, 0)
			continue
		}
		c.Second = sec

		res, err := zoned.Resolve(c, s.loc)
		if err != nil {
			return time.Time{}, &ClockError{Zone: s.loc.String(), Civil: c.String(), Err: err}
		}
		if t, ok := res.FirstAfter(after); ok {
			return t, nil
		}
		// Skipped by a gap, or a fold whose instants are all behind us.
		c = c.AddSeconds(1)
	}

	return time.Time{}, fmt.Errorf("%w: %q after %s", ErrExhausted, s.text, after.In(s.loc).Format(time.RFC3339))
}

func (s *Schedule) nextYear(y int) (int, bool) {
	if s.years == nil {
		return y, true
	}
	return s.years.Next(y)
}

// nextDay scans forward from day for the first day of the month that
// satisfies the day rule. Day-of-month and day-of-week cannot be carried
// independently because of the OR case, so the scan is bounded by the
// month length instead.
func (s *Schedule) nextDay(year int, month time.Month, day int) (int, bool) {
	for d := day; d <= zoned.DaysIn(year, month); d++ {
		if s.dayMatches(year, month, d) {
			return d, true
		}
	}
	return 0, false
}
