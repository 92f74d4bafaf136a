package cronexpr

import (
	"iter"
	"time"
)

// Iterator walks the occurrences of a schedule forward in time. It is not
// safe for concurrent use and cannot be rewound; start a new one from the
// same Schedule instead.
//
//	it := sched.Iterate(time.Now())
//	for it.Next() {
//		fmt.Println(it.Time())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator struct {
	sched  *Schedule
	cursor time.Time
	end    time.Time
	hasEnd bool

	cur  time.Time
	err  error
	done bool
}

// Iterate returns an unbounded iterator over the occurrences strictly after
// the given instant.
func (s *Schedule) Iterate(after time.Time) *Iterator {
	return &Iterator{sched: s, cursor: after}
}

// IterateUntil is like Iterate but stops after the last occurrence at or
// before end.
func (s *Schedule) IterateUntil(after, end time.Time) *Iterator {
	return &Iterator{sched: s, cursor: after, end: end, hasEnd: true}
}

// Next advances to the next occurrence and reports whether there is one.
// It returns false once the end bound is passed or an error occurs; the
// iterator is finished from then on.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	t, err := it.sched.FindNext(it.cursor)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	if it.hasEnd && t.After(it.end) {
		it.done = true
		return false
	}
	it.cursor, it.cur = t, t
	return true
}

// Time returns the occurrence produced by the last successful call to Next.
func (it *Iterator) Time() time.Time {
	return it.cur
}

// Err returns the error that finished the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Peek returns the occurrence the next call to Next would produce, without
// advancing. It ignores the end bound.
func (it *Iterator) Peek() (time.Time, error) {
	if it.err != nil {
		return time.Time{}, it.err
	}
	return it.sched.FindNext(it.cursor)
}

// Take advances up to n times and returns the occurrences produced.
func (it *Iterator) Take(n int) ([]time.Time, error) {
	out := make([]time.Time, 0, max(n, 0))
	for len(out) < n && it.Next() {
		out = append(out, it.Time())
	}
	return out, it.err
}

// All adapts the iterator for range-over-func. A failure is yielded once
// as the final element.
func (it *Iterator) All() iter.Seq2[time.Time, error] {
	return func(yield func(time.Time, error) bool) {
		for it.Next() {
			if !yield(it.Time(), nil) {
				return
			}
		}
		if it.err != nil {
			yield(time.Time{}, it.err)
		}
	}
}
