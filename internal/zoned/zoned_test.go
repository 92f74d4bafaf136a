package zoned

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestDateCarries(t *testing.T) {
	assert.Equal(t, Civil{Year: 2025, Month: time.January, Day: 1}, Date(2024, 13, 1, 0, 0, 0))
	assert.Equal(t, Civil{Year: 2024, Month: time.March, Day: 1}, Date(2024, time.February, 30, 0, 0, 0))
	assert.Equal(t, Civil{Year: 2024, Month: time.January, Day: 2, Hour: 0}, Date(2024, time.January, 1, 24, 0, 0))
}

func TestAddSeconds(t *testing.T) {
	c := Civil{Year: 2024, Month: time.December, Day: 31, Hour: 23, Minute: 59, Second: 59}
	assert.Equal(t, Civil{Year: 2025, Month: time.January, Day: 1}, c.AddSeconds(1))
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2023, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 30, DaysIn(2024, time.September))
	assert.Equal(t, 31, DaysIn(2024, time.December))
}

func TestDecompose(t *testing.T) {
	shanghai := mustLoad(t, "Asia/Shanghai")
	instant := time.Date(2024, 9, 24, 2, 6, 52, 999, time.UTC)
	assert.Equal(t, Civil{Year: 2024, Month: time.September, Day: 24, Hour: 10, Minute: 6, Second: 52}, Decompose(instant, shanghai))
	assert.Equal(t, time.Tuesday, Decompose(instant, shanghai).Weekday())
}

func TestResolveExact(t *testing.T) {
	shanghai := mustLoad(t, "Asia/Shanghai")
	res, err := Resolve(Civil{Year: 2024, Month: time.September, Day: 25, Hour: 4, Minute: 2}, shanghai)
	require.NoError(t, err)
	require.Equal(t, Exact, res.Kind())
	assert.True(t, res.Instants[0].Equal(time.Date(2024, 9, 24, 20, 2, 0, 0, time.UTC)))
}

func TestResolveGap(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// Clocks jumped from 02:00 EST to 03:00 EDT on 2024-03-10.
	res, err := Resolve(Civil{Year: 2024, Month: time.March, Day: 10, Hour: 2, Minute: 30}, ny)
	require.NoError(t, err)
	assert.Equal(t, Gap, res.Kind())
	assert.Empty(t, res.Instants)

	after, err := Resolve(Civil{Year: 2024, Month: time.March, Day: 10, Hour: 3}, ny)
	require.NoError(t, err)
	require.Equal(t, Exact, after.Kind())
	assert.True(t, after.Instants[0].Equal(time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)))
}

func TestResolveFold(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// Clocks fell back from 02:00 EDT to 01:00 EST on 2024-11-03.
	res, err := Resolve(Civil{Year: 2024, Month: time.November, Day: 3, Hour: 1, Minute: 30}, ny)
	require.NoError(t, err)
	require.Equal(t, Fold, res.Kind())
	require.Len(t, res.Instants, 2)

	edt := time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC)
	est := time.Date(2024, 11, 3, 6, 30, 0, 0, time.UTC)
	assert.True(t, res.Instants[0].Equal(edt))
	assert.True(t, res.Instants[1].Equal(est))

	first, ok := res.FirstAfter(edt.Add(-time.Second))
	require.True(t, ok)
	assert.True(t, first.Equal(edt))

	second, ok := res.FirstAfter(edt)
	require.True(t, ok)
	assert.True(t, second.Equal(est))

	_, ok = res.FirstAfter(est)
	assert.False(t, ok)
}

func TestResolveSouthernHemisphere(t *testing.T) {
	sydney := mustLoad(t, "Australia/Sydney")
	// 2024-10-06 02:00 AEST jumped to 03:00 AEDT.
	res, err := Resolve(Civil{Year: 2024, Month: time.October, Day: 6, Hour: 2, Minute: 15}, sydney)
	require.NoError(t, err)
	assert.Equal(t, Gap, res.Kind())

	// 2024-04-07 03:00 AEDT fell back to 02:00 AEST.
	res, err = Resolve(Civil{Year: 2024, Month: time.April, Day: 7, Hour: 2, Minute: 15}, sydney)
	require.NoError(t, err)
	assert.Equal(t, Fold, res.Kind())
}

func TestResolveOutOfRange(t *testing.T) {
	_, err := Resolve(Civil{Year: 10000, Month: time.January, Day: 1}, time.UTC)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = Resolve(Civil{Year: 2024, Month: time.January, Day: 1}, nil)
	assert.Error(t, err)
}
