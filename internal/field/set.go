package field

import (
	"slices"
)

// Set is the normalized, ascending, de-duplicated list of values a field
// accepts. The zero Set accepts nothing; use Every, Only or Parse.
type Set struct {
	kind     Kind
	values   []int
	wildcard bool
}

// Every returns the set of all values of k, flagged as written "*".
func Every(k Kind) Set {
	d := k.Domain()
	values := make([]int, 0, d.Max-d.Min+1)
	for v := d.Min; v <= d.Max; v++ {
		values = append(values, v)
	}
	return newSet(k, values, true)
}

// Only returns the set holding exactly the given values. Values outside
// the domain of k are dropped.
func Only(k Kind, values ...int) Set {
	d := k.Domain()
	kept := make([]int, 0, len(values))
	for _, v := range values {
		if v >= d.Min && v <= d.Max {
			kept = append(kept, v)
		}
	}
	return newSet(k, kept, false)
}

func newSet(k Kind, values []int, wildcard bool) Set {
	if k == DayOfWeek {
		// 7 and 0 are both Sunday.
		for i, v := range values {
			if v == 7 {
				values[i] = 0
			}
		}
	}
	slices.Sort(values)
	values = slices.Compact(values)
	return Set{kind: k, values: values, wildcard: wildcard}
}

// Kind returns the field kind the set belongs to.
func (s Set) Kind() Kind { return s.kind }

// Wildcard reports whether the field was written as "*".
func (s Set) Wildcard() bool { return s.wildcard }

// Len returns the number of accepted values.
func (s Set) Len() int { return len(s.values) }

// Values returns a copy of the accepted values in ascending order.
func (s Set) Values() []int {
	return slices.Clone(s.values)
}

// Contains reports whether v is accepted.
func (s Set) Contains(v int) bool {
	_, ok := slices.BinarySearch(s.values, v)
	return ok
}

// Next returns the smallest accepted value >= v.
func (s Set) Next(v int) (int, bool) {
	i, _ := slices.BinarySearch(s.values, v)
	if i == len(s.values) {
		return 0, false
	}
	return s.values[i], true
}

// First returns the smallest accepted value.
func (s Set) First() int {
	if len(s.values) == 0 {
		return s.kind.Domain().Min
	}
	return s.values[0]
}

// Last returns the largest accepted value.
func (s Set) Last() int {
	if len(s.values) == 0 {
		return s.kind.Domain().Max
	}
	return s.values[len(s.values)-1]
}

// Equal reports whether both sets accept the same values with the same
// wildcard flag.
func (s Set) Equal(o Set) bool {
	return s.kind == o.kind && s.wildcard == o.wildcard && slices.Equal(s.values, o.values)
}
