package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"cronexpr"
)

// ErrNotRepresentable is returned by ToRecurrence for schedules that have
// no equivalent RRULE: day-of-month and day-of-week both restricted (cron
// ORs them, RRULE intersects them), an explicit year list, or a wall time
// that can fall in a daylight-saving gap or fold. Calendar clients move a
// gapped time forward and may repeat a folded one; the schedule does neither.
var ErrNotRepresentable = errors.New("ics: schedule has no RRULE equivalent")

// transitionLookahead is how many years of zone transitions after dtstart
// are checked. Later years repeat the same rules.
const transitionLookahead = 2

var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Recurrence is a schedule rendered as an RFC 5545 recurrence rule.
type Recurrence struct {
	opt  rrule.ROption
	rule *rrule.RRule
}

// ToRecurrence converts s into a YEARLY rule anchored at dtstart, read on
// the schedule's wall clock. Every BY* part is listed explicitly so the
// rule never falls back to values taken from dtstart.
func ToRecurrence(s *cronexpr.Schedule, dtstart time.Time) (*Recurrence, error) {
	domRestricted := !s.IsWildcard(cronexpr.DayOfMonth)
	dowRestricted := !s.IsWildcard(cronexpr.DayOfWeek)
	if domRestricted && dowRestricted {
		return nil, ErrNotRepresentable
	}
	if !s.IsWildcard(cronexpr.Year) {
		return nil, ErrNotRepresentable
	}
	if hitsTransition(s, dtstart) {
		return nil, ErrNotRepresentable
	}

	opt := rrule.ROption{
		Freq:     rrule.YEARLY,
		Dtstart:  dtstart.In(s.Location()).Truncate(time.Second),
		Bymonth:  s.Values(cronexpr.Month),
		Byhour:   s.Values(cronexpr.Hour),
		Byminute: s.Values(cronexpr.Minute),
		Bysecond: s.Values(cronexpr.Second),
	}
	switch {
	case dowRestricted:
		for _, d := range s.Values(cronexpr.DayOfWeek) {
			opt.Byweekday = append(opt.Byweekday, weekdays[d])
		}
	default:
		// A wildcard day-of-month still needs an explicit list.
		opt.Bymonthday = s.Values(cronexpr.DayOfMonth)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}
	return &Recurrence{opt: opt, rule: rule}, nil
}

// RRule returns the RRULE value, without DTSTART.
func (r *Recurrence) RRule() string {
	return r.opt.RRuleString()
}

// Between returns the rule's instants within [after, before], or
// (after, before) when inc is false.
func (r *Recurrence) Between(after, before time.Time, inc bool) []time.Time {
	return r.rule.Between(after, before, inc)
}

// hitsTransition reports whether a wall time s allows lies in a gap or fold
// of its zone during the transitionLookahead years after from. Only month
// and time of day are compared, so a later year landing the transition on
// a different day is covered too.
func hitsTransition(s *cronexpr.Schedule, from time.Time) bool {
	months := bitset(s.Values(cronexpr.Month))
	hours := bitset(s.Values(cronexpr.Hour))
	minutes := bitset(s.Values(cronexpr.Minute))
	seconds := bitset(s.Values(cronexpr.Second))

	t := from.In(s.Location())
	limit := t.AddDate(transitionLookahead, 0, 0)
	for {
		_, end := t.ZoneBounds()
		if end.IsZero() || end.After(limit) {
			return false
		}
		_, before := end.Add(-time.Second).Zone()
		_, after := end.Zone()
		// Wall times in [end+lo, end+hi) are skipped (gap) or repeated (fold).
		lo, hi := min(before, after), max(before, after)
		wall := end.Add(time.Duration(lo) * time.Second).UTC()
		for i := 0; i < hi-lo; i++ {
			c := wall.Add(time.Duration(i) * time.Second)
			if months&(1<<uint(c.Month())) != 0 &&
				hours&(1<<uint(c.Hour())) != 0 &&
				minutes&(1<<uint(c.Minute())) != 0 &&
				seconds&(1<<uint(c.Second())) != 0 {
				return true
			}
		}
		t = end
	}
}

func bitset(vals []int) uint64 {
	var b uint64
	for _, v := range vals {
		b |= 1 << uint(v)
	}
	return b
}
