package cronexpr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cronexpr/internal/zoned"
)

func TestDayMatchesRule(t *testing.T) {
	tests := []struct {
		name string
		expr string
		date time.Time
		want bool
	}{
		// 2024-10-15 is a Tuesday, 2024-10-07 a Monday.
		{"both restricted, dom only", "0 0 1,15 * 1 UTC", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), true},
		{"both restricted, dow only", "0 0 1,15 * 1 UTC", time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC), true},
		{"both restricted, neither", "0 0 1,15 * 1 UTC", time.Date(2024, 10, 8, 0, 0, 0, 0, time.UTC), false},
		{"dom wildcard, monday", "0 0 * * 1 UTC", time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC), true},
		{"dom wildcard, the 15th", "0 0 * * 1 UTC", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), false},
		{"dow wildcard, the 15th", "0 0 15 * * UTC", time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), true},
		{"dow wildcard, monday", "0 0 15 * * UTC", time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC), false},
		{"neither restricted", "0 0 * * * UTC", time.Date(2024, 10, 8, 0, 0, 0, 0, time.UTC), true},
		{"stepped dom is restricted", "0 0 */2 * 1 UTC", time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC), true},
		{"sunday as seven", "0 0 * * 7 UTC", time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := mustParse(t, tc.expr)
			c := zoned.Decompose(tc.date, time.UTC)
			assert.Equal(t, tc.want, s.dayMatches(c.Year, c.Month, c.Day))

			got, err := s.Matches(tc.date)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesFields(t *testing.T) {
	s := mustParse(t, "0-30/5 9-17 * * 1-5 UTC")

	assert.True(t, mustMatch(t, s, time.Date(2026, 2, 16, 10, 15, 0, 0, time.UTC)))  // Monday
	assert.False(t, mustMatch(t, s, time.Date(2026, 2, 14, 10, 15, 0, 0, time.UTC))) // Saturday
	assert.False(t, mustMatch(t, s, time.Date(2026, 2, 16, 10, 13, 0, 0, time.UTC)))
	assert.False(t, mustMatch(t, s, time.Date(2026, 2, 16, 8, 15, 0, 0, time.UTC)))
	assert.False(t, mustMatch(t, s, time.Date(2026, 2, 16, 10, 15, 30, 0, time.UTC)), "implicit second is 0")
	assert.True(t, mustMatch(t, s, time.Date(2026, 2, 16, 10, 15, 0, 999_999_999, time.UTC)), "sub-second ignored")
}

func TestMatchesUsesScheduleZone(t *testing.T) {
	s := mustParse(t, "2 4 * * * Asia/Shanghai")
	assert.True(t, mustMatch(t, s, mustTime(t, "2024-09-24T20:02:00Z")))
	assert.False(t, mustMatch(t, s, mustTime(t, "2024-09-24T04:02:00Z")))
}

func TestMatchesYearAndMonth(t *testing.T) {
	s := mustParse(t, "0 0 0 29 FEB * 2024,2032 UTC")
	assert.True(t, mustMatch(t, s, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	assert.False(t, mustMatch(t, s, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC)))
	assert.True(t, mustMatch(t, s, time.Date(2032, 2, 29, 0, 0, 0, 0, time.UTC)))
}

func TestMatchesClockError(t *testing.T) {
	s := mustParse(t, "* * * * * UTC")
	_, err := s.Matches(time.Date(-1, 1, 1, 0, 0, 0, 0, time.UTC))

	var cerr *ClockError
	require.True(t, errors.As(err, &cerr))
	assert.True(t, errors.Is(err, zoned.ErrOutOfRange))
	assert.Equal(t, "UTC", cerr.Zone)
}

func mustMatch(t *testing.T, s *Schedule, at time.Time) bool {
	t.Helper()
	ok, err := s.Matches(at)
	require.NoError(t, err)
	return ok
}
