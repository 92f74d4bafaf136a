package ics

import (
	"errors"
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"cronexpr"
	appLog "cronexpr/internal/log"
)

const (
	productID     = "-//cronexpr//schedule export//EN"
	localDateTime = "20060102T150405"
)

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:cronexpr:schedule"))

// ExportConfig controls calendar export. The embedded ExpandConfig bounds
// schedules that have to be enumerated; schedules with an RRULE equivalent
// start at their first firing after RangeStart and are left open-ended.
type ExportConfig struct {
	ExpandConfig

	// Name becomes X-WR-CALNAME when set.
	Name string
	// Now stamps DTSTAMP. If zero, time.Now is used.
	Now time.Time
}

// BuildCalendar renders entries as VEVENTs. An entry becomes a single
// recurring event when its schedule converts to an RRULE in a named zone,
// and one event per firing otherwise.
func BuildCalendar(entries []Entry, cfg ExportConfig) (*ical.Calendar, error) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if cfg.Name != "" {
		cal.SetXWRCalName(cfg.Name)
	}

	var enumerate []Entry
	for _, e := range entries {
		if e.Schedule == nil {
			return nil, fmt.Errorf("export %q: entry has no schedule", e.Name)
		}
		ok, err := addRecurringEvent(cal, e, cfg)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", e.Name, err)
		}
		if !ok {
			enumerate = append(enumerate, e)
		}
	}

	if len(enumerate) > 0 {
		res, err := ExpandOccurrences(enumerate, cfg.ExpandConfig)
		if err != nil {
			return nil, err
		}
		for _, o := range res.Occurrences {
			ev := cal.AddEvent(eventUID(o.Name, o.Expression, o.InstanceKey))
			ev.SetDtStampTime(cfg.Now)
			ev.SetSummary(summaryOf(o.Name, o.Summary))
			ev.SetDescription(o.Expression)
			ev.SetStartAt(o.Start)
			ev.SetEndAt(o.End)
		}
	}

	appLog.Debug("calendar built", "entries", len(entries), "enumerated", len(enumerate))
	return cal, nil
}

// Export writes the serialized calendar to w.
func Export(w io.Writer, entries []Entry, cfg ExportConfig) error {
	cal, err := BuildCalendar(entries, cfg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, cal.Serialize())
	return err
}

// addRecurringEvent adds e as one RRULE event and reports whether it could.
func addRecurringEvent(cal *ical.Calendar, e Entry, cfg ExportConfig) (bool, error) {
	loc := e.Schedule.Location()
	if loc == time.Local || loc.String() == "Local" {
		// No TZID can name the process zone.
		return false, nil
	}
	first, err := e.Schedule.FindNext(cfg.RangeStart)
	if errors.Is(err, cronexpr.ErrExhausted) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	rec, err := ToRecurrence(e.Schedule, first)
	if errors.Is(err, ErrNotRepresentable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	dur := e.Duration
	if dur <= 0 {
		dur = defaultEventDuration
	}
	start := first.In(loc)
	end := start.Add(dur)
	tzid := &ical.KeyValues{Key: "TZID", Value: []string{loc.String()}}

	ev := cal.AddEvent(eventUID(e.Name, e.Schedule.String(), ""))
	ev.SetDtStampTime(cfg.Now)
	ev.SetSummary(summaryOf(e.Name, e.Summary))
	ev.SetDescription(e.Schedule.String())
	ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(localDateTime), tzid)
	ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localDateTime), tzid)
	ev.AddRrule(rec.RRule())
	return true, nil
}

// eventUID is a name-based UUID, identical across exports of the same entry.
func eventUID(name, expr, instance string) string {
	return uuid.NewSHA1(uidNamespace, []byte(name+"\x00"+expr+"\x00"+instance)).String() + "@cronexpr"
}

func summaryOf(name, summary string) string {
	if summary != "" {
		return summary
	}
	return name
}
