package model

import "time"

// Occurrence is a single firing of a named schedule, after expansion and
// timezone normalization.
type Occurrence struct {
	Name       string // schedule name from config
	Expression string // normalized cron expression
	Summary    string

	// Zone is the IANA name of the zone the schedule is evaluated in.
	Zone string

	// InstanceKey uniquely identifies a single occurrence of a schedule,
	// derived from the UTC start time.
	InstanceKey string

	// Start / End are in the configured display timezone. End is Start
	// plus the entry's duration.
	Start time.Time
	End   time.Time
}
