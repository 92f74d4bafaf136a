package cronexpr

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var robfigParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TestAgreesWithRobfig compares five-field schedules against robfig/cron in
// zones without daylight saving. robfig treats "*/1" as unrestricted and
// gives up after five years, so neither appears here.
func TestAgreesWithRobfig(t *testing.T) {
	fixed := []string{
		"0 0 1 1 *",
		"0 0 31 * *",
		"0 18 * * 1-5",
		"0 0 1,15 * 1",
		"30 9 * * MON-FRI",
		"*/5 * * * *",
		"0 0 */2 * 0",
		"15 3 29 2 *",
		"0 12 1-7 * 2",
		"5-59/20 */3 * JAN,JUL *",
	}
	rng := rand.New(rand.NewPCG(7, 11))
	exprs := fixed
	for range 150 {
		exprs = append(exprs, compatExpr(rng))
	}

	for _, zone := range []string{"UTC", "Asia/Shanghai"} {
		loc := mustLoad(t, zone)
		for _, expr := range exprs {
			ours, err := ParseInLocation(expr, loc)
			require.NoError(t, err, expr)
			theirs, err := robfigParser.Parse("CRON_TZ=" + zone + " " + expr)
			require.NoError(t, err, expr)

			from := time.Date(2024, time.Month(1+rng.IntN(12)), 1+rng.IntN(28), rng.IntN(24), rng.IntN(60), 0, 0, loc)
			for range 5 {
				want := theirs.Next(from)
				if want.IsZero() {
					break
				}
				got, err := ours.FindNext(from)
				require.NoError(t, err, expr)
				assert.True(t, want.Equal(got), "%s in %s after %s: want %s, got %s", expr, zone, from, want, got)
				from = want
			}
		}
	}
}

func compatExpr(rng *rand.Rand) string {
	field := func(lo, hi int) string {
		v := func() string { return strconv.Itoa(lo + rng.IntN(hi-lo+1)) }
		switch rng.IntN(6) {
		case 0, 1:
			return "*"
		case 2:
			return v()
		case 3:
			a := lo + rng.IntN(hi-lo+1)
			b := a + rng.IntN(hi-a+1)
			return strconv.Itoa(a) + "-" + strconv.Itoa(b)
		case 4:
			return "*/" + strconv.Itoa(2+rng.IntN(hi-lo))
		default:
			return v() + "," + v()
		}
	}
	return strings.Join([]string{
		field(0, 59), field(0, 23), field(1, 31), field(1, 12), field(0, 6),
	}, " ")
}
