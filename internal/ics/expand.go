package ics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"cronexpr"
	appLog "cronexpr/internal/log"
	"cronexpr/internal/model"
)

const (
	defaultMaxOccurrencesPerEntry = 5000
	defaultEventDuration          = 30 * time.Minute
)

// Entry is a named schedule to expand.
type Entry struct {
	Name     string
	Summary  string
	Duration time.Duration
	Schedule *cronexpr.Schedule
}

// ExpandConfig controls how expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone to which all occurrences will be converted.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the window. Occurrences fire strictly
	// after RangeStart and at or before RangeEnd.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEntry is a safety cap for schedules that fire every
	// second or minute. If zero, defaultMaxOccurrencesPerEntry is used.
	MaxOccurrencesPerEntry int
}

// ExpandResult wraps the expanded occurrences and the entries that hit the cap.
type ExpandResult struct {
	Occurrences      []model.Occurrence
	TruncatedEntries []string
}

// ExpandOccurrences expands each entry into concrete occurrences within the
// configured range, sorted by start time. An entry whose schedule has no
// further firings contributes nothing; any other schedule failure aborts
// the expansion.
func ExpandOccurrences(entries []Entry, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEntry <= 0 {
		cfg.MaxOccurrencesPerEntry = defaultMaxOccurrencesPerEntry
	}

	all := make([]model.Occurrence, 0)
	for _, e := range entries {
		occ, hitCap, err := expandEntry(e, cfg)
		if err != nil {
			return result, fmt.Errorf("expand %q: %w", e.Name, err)
		}
		all = append(all, occ...)

		if hitCap {
			result.TruncatedEntries = append(result.TruncatedEntries, e.Name)
			appLog.Error("expand: truncated occurrences for entry due to cap",
				errors.New("max occurrences reached"),
				"name", e.Name,
				"cap", cfg.MaxOccurrencesPerEntry,
			)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start.Before(all[j].Start)
	})
	result.Occurrences = all
	return result, nil
}

func expandEntry(e Entry, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	if e.Schedule == nil {
		return nil, false, errors.New("entry has no schedule")
	}
	dur := e.Duration
	if dur <= 0 {
		dur = defaultEventDuration
	}

	out := make([]model.Occurrence, 0)
	it := e.Schedule.IterateUntil(cfg.RangeStart, cfg.RangeEnd)
	for it.Next() {
		if len(out) == cfg.MaxOccurrencesPerEntry {
			return out, true, nil
		}
		out = append(out, makeOccurrence(e, it.Time(), dur, cfg.DisplayLocation))
	}
	if err := it.Err(); err != nil && !errors.Is(err, cronexpr.ErrExhausted) {
		return nil, false, err
	}
	return out, false, nil
}

// makeOccurrence converts a firing instant into a model.Occurrence
// normalized into displayLoc.
func makeOccurrence(e Entry, start time.Time, dur time.Duration, displayLoc *time.Location) model.Occurrence {
	startLocal := start.In(displayLoc)
	return model.Occurrence{
		Name:        e.Name,
		Expression:  e.Schedule.String(),
		Summary:     e.Summary,
		Zone:        e.Schedule.Location().String(),
		InstanceKey: e.Name + "@" + start.UTC().Format(time.RFC3339),
		Start:       startLocal,
		End:         startLocal.Add(dur),
	}
}
