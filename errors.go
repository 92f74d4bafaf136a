package cronexpr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExhausted is returned (wrapped) when no instant satisfies a schedule
// within its searchable range.
var ErrExhausted = errors.New("cronexpr: no matching time within the search range")

// ParseError describes why an expression could not be parsed. Input is the
// normalized expression and Offset the byte position of the problem in it.
type ParseError struct {
	Input  string
	Offset int
	// Field names the part that failed: a field kind such as "minute",
	// or "expression", "macro" or "timezone".
	Field string
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("cronexpr: invalid %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("cronexpr: invalid %s %q: %s", e.Field, e.Token, e.Msg)
}

// Caret renders the error under the input with a marker at Offset:
//
//	failed to parse crontab expression:
//	* 5-4 * * * Asia/Shanghai
//	  ^ range must be in ascending order; found 5-4
func (e *ParseError) Caret() string {
	var b strings.Builder
	b.WriteString("failed to parse crontab expression:\n")
	b.WriteString(e.Input)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", e.Offset))
	b.WriteString("^ ")
	b.WriteString(e.Msg)
	return b.String()
}

// ClockError reports that a wall-clock reading could not be turned into an
// instant, or an instant into a wall-clock reading, in the schedule's zone.
type ClockError struct {
	Zone  string
	Civil string
	Err   error
}

func (e *ClockError) Error() string {
	return fmt.Sprintf("cronexpr: cannot resolve %s in %s: %v", e.Civil, e.Zone, e.Err)
}

func (e *ClockError) Unwrap() error { return e.Err }
