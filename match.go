package cronexpr

import (
	"time"

	"cronexpr/internal/zoned"
)

// Matches reports whether t, read on the schedule's wall clock, satisfies
// every field. Sub-second precision is ignored.
//
// Both instants of a wall time repeated by a DST transition match, though
// FindNext returns the second one only when the search starts inside the
// repeated hour. See FindNext.
func (s *Schedule) Matches(t time.Time) (bool, error) {
	c, err := s.decompose(t)
	if err != nil {
		return false, err
	}
	return s.matchesCivil(c), nil
}

func (s *Schedule) decompose(t time.Time) (zoned.Civil, error) {
	c := zoned.Decompose(t, s.loc)
	if c.Year < zoned.MinYear || c.Year > zoned.MaxYear {
		return c, &ClockError{Zone: s.loc.String(), Civil: c.String(), Err: zoned.ErrOutOfRange}
	}
	return c, nil
}

func (s *Schedule) matchesCivil(c zoned.Civil) bool {
	return s.seconds.Contains(c.Second) &&
		s.minutes.Contains(c.Minute) &&
		s.hours.Contains(c.Hour) &&
		s.dayMatches(c.Year, c.Month, c.Day) &&
		s.months.Contains(int(c.Month)) &&
		s.yearMatches(c.Year)
}

// dayMatches applies the cron day rule: when day-of-month and day-of-week
// are both restricted either may match, otherwise both must.
func (s *Schedule) dayMatches(year int, month time.Month, day int) bool {
	domMatch := s.doms.Contains(day)
	dowMatch := s.dows.Contains(int(zoned.Weekday(year, month, day)))
	if !s.doms.Wildcard() && !s.dows.Wildcard() {
		return domMatch || dowMatch
	}
	return domMatch && dowMatch
}

func (s *Schedule) yearMatches(year int) bool {
	return s.years == nil || s.years.Contains(year)
}
