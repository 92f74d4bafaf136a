// Package cronexpr parses crontab-style schedule expressions and computes
// the instants they fire at, in a named timezone and with correct handling
// of daylight-saving transitions.
//
// An expression has five to seven whitespace-separated fields, optionally
// followed by an IANA timezone identifier:
//
//	[second] minute hour day-of-month month day-of-week [year] [timezone]
//
// Fields accept "*", single values, ranges "a-b", steps "*/s", "a/s" and
// "a-b/s", and comma-separated lists of those. Months and weekdays also
// accept three-letter names (JAN, MON). A single macro (@yearly, @monthly,
// @weekly, @daily, @midnight, @hourly) may replace the fields.
//
// When both day-of-month and day-of-week are restricted, a day matches if
// either field matches, as in classic cron.
//
// Schedules are immutable and safe for concurrent use. Iterators are not.
package cronexpr

import (
	"time"

	"cronexpr/internal/field"
)

// FieldKind identifies one field of an expression.
type FieldKind = field.Kind

const (
	Second     = field.Second
	Minute     = field.Minute
	Hour       = field.Hour
	DayOfMonth = field.DayOfMonth
	Month      = field.Month
	DayOfWeek  = field.DayOfWeek
	Year       = field.Year
)

// Schedule is a parsed expression.
type Schedule struct {
	text    string
	seconds field.Set
	minutes field.Set
	hours   field.Set
	doms    field.Set
	months  field.Set
	dows    field.Set
	// years is nil when the year is unbounded.
	years *field.Set
	loc   *time.Location
}

// String returns the normalized expression the schedule was parsed from.
func (s *Schedule) String() string {
	return s.text
}

// Location returns the timezone the schedule is evaluated in.
func (s *Schedule) Location() *time.Location {
	return s.loc
}

// Values returns the accepted values of a field in ascending order. Sunday
// is reported as 0. For an unbounded year it returns nil.
func (s *Schedule) Values(k FieldKind) []int {
	if k == Year {
		if s.years == nil {
			return nil
		}
		return s.years.Values()
	}
	return s.set(k).Values()
}

// IsWildcard reports whether a field was written as "*". An absent year is
// reported as a wildcard; an absent second is not.
func (s *Schedule) IsWildcard(k FieldKind) bool {
	if k == Year {
		return s.years == nil
	}
	return s.set(k).Wildcard()
}

func (s *Schedule) set(k FieldKind) field.Set {
	switch k {
	case Second:
		return s.seconds
	case Minute:
		return s.minutes
	case Hour:
		return s.hours
	case DayOfMonth:
		return s.doms
	case Month:
		return s.months
	case DayOfWeek:
		return s.dows
	default:
		return field.Set{}
	}
}
