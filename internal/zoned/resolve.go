package zoned

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrOutOfRange is returned for civil readings whose year lies outside
// [MinYear, MaxYear].
var ErrOutOfRange = errors.New("zoned: year out of range")

// Kind classifies how a wall-clock reading maps onto instants.
type Kind int

const (
	// Exact readings name exactly one instant.
	Exact Kind = iota
	// Gap readings were skipped by a forward transition and name none.
	Gap
	// Fold readings were repeated by a backward transition and name two.
	Fold
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Gap:
		return "gap"
	case Fold:
		return "fold"
	default:
		return "unknown"
	}
}

// Resolution lists, in ascending order, every instant whose wall clock in
// the resolved location equals Civil.
type Resolution struct {
	Civil    Civil
	Instants []time.Time
}

// Kind reports whether the reading was exact, in a gap or in a fold.
func (r Resolution) Kind() Kind {
	switch len(r.Instants) {
	case 0:
		return Gap
	case 1:
		return Exact
	default:
		return Fold
	}
}

// FirstAfter returns the earliest resolved instant strictly after t.
func (r Resolution) FirstAfter(t time.Time) (time.Time, bool) {
	for _, u := range r.Instants {
		if u.After(t) {
			return u, true
		}
	}
	return time.Time{}, false
}

// offsetWindow exceeds the largest UTC offset in the tz database, so every
// instant that can display a given wall clock lies within it.
const offsetWindow = 15 * 60 * 60

// Resolve finds the instants at which the wall clock in loc reads c.
func Resolve(c Civil, loc *time.Location) (Resolution, error) {
	if loc == nil {
		return Resolution{}, errors.New("zoned: nil location")
	}
	if c.Year < MinYear || c.Year > MaxYear {
		return Resolution{}, fmt.Errorf("%w: %s", ErrOutOfRange, c)
	}

	wall := c.utc().Unix()
	res := Resolution{Civil: c}
	for _, off := range offsetsNear(wall, loc) {
		u := time.Unix(wall-int64(off), 0).In(loc)
		if _, got := u.Zone(); got == off {
			res.Instants = append(res.Instants, u)
		}
	}
	slices.SortFunc(res.Instants, func(a, b time.Time) int { return a.Compare(b) })
	res.Instants = slices.CompactFunc(res.Instants, time.Time.Equal)
	return res, nil
}

// offsetsNear collects the distinct UTC offsets loc uses within
// offsetWindow of the instant wall seconds after the epoch.
func offsetsNear(wall int64, loc *time.Location) []int {
	var offsets []int
	t := time.Unix(wall-offsetWindow, 0).In(loc)
	limit := wall + offsetWindow
	for range 16 {
		_, off := t.Zone()
		if !slices.Contains(offsets, off) {
			offsets = append(offsets, off)
		}
		_, end := t.ZoneBounds()
		if end.IsZero() || end.Unix() > limit || !end.After(t) {
			break
		}
		t = end
	}
	return offsets
}
