package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// timeValue is an RFC 3339 instant flag. The zero value means "now".
type timeValue struct {
	t time.Time
}

var _ pflag.Value = (*timeValue)(nil)

func (v *timeValue) String() string {
	if v.t.IsZero() {
		return "now"
	}
	return v.t.Format(time.RFC3339)
}

func (v *timeValue) Set(s string) error {
	if s == "now" {
		v.t = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("expected an RFC 3339 time such as 2024-09-24T10:06:52+08:00")
	}
	v.t = t
	return nil
}

func (v *timeValue) Type() string { return "time" }

// or returns the flag's instant, or now when unset.
func (v *timeValue) or(now time.Time) time.Time {
	if v.t.IsZero() {
		return now
	}
	return v.t
}

// locationValue is an IANA zone flag. The zero value means time.Local.
type locationValue struct {
	loc *time.Location
}

var _ pflag.Value = (*locationValue)(nil)

func (v *locationValue) String() string {
	if v.loc == nil {
		return "Local"
	}
	return v.loc.String()
}

func (v *locationValue) Set(s string) error {
	loc, err := time.LoadLocation(s)
	if err != nil {
		return fmt.Errorf("unknown timezone %q", s)
	}
	v.loc = loc
	return nil
}

func (v *locationValue) Type() string { return "zone" }

func (v *locationValue) get() *time.Location {
	if v.loc == nil {
		return time.Local
	}
	return v.loc
}

// addRangeFlags registers the window flags shared by list and ics.
func addRangeFlags(fs *pflag.FlagSet, from *timeValue, days *int) {
	fs.Var(from, "from", "start of the window (RFC 3339)")
	fs.IntVarP(days, "days", "d", 0, "window length in days (default horizon_days from config)")
}
