// Package field implements the per-field value sets of a cron expression:
// the domain of each field kind and the expansion of list/range/step tokens
// into an ordered set of accepted values.
package field

// Kind identifies one component of a cron expression.
type Kind int

const (
	Second Kind = iota
	Minute
	Hour
	DayOfMonth
	Month
	DayOfWeek
	Year
)

// Kinds lists every field kind from finest to coarsest position in text.
var Kinds = []Kind{Second, Minute, Hour, DayOfMonth, Month, DayOfWeek, Year}

// Domain describes the inclusive value range of a field kind and the
// three-letter names it accepts in place of numbers.
type Domain struct {
	Min, Max int
	Names    map[string]int
}

var monthNames = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var weekdayNames = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6,
}

var domains = map[Kind]Domain{
	Second:     {Min: 0, Max: 59},
	Minute:     {Min: 0, Max: 59},
	Hour:       {Min: 0, Max: 23},
	DayOfMonth: {Min: 1, Max: 31},
	Month:      {Min: 1, Max: 12, Names: monthNames},
	DayOfWeek:  {Min: 0, Max: 7, Names: weekdayNames},
	// Year bounds only the values an expression may name. An absent or "*"
	// year is unbounded and the search runs to year 9999.
	Year:       {Min: 1970, Max: 2099},
}

// Domain returns the value domain of k.
func (k Kind) Domain() Domain {
	return domains[k]
}

func (k Kind) String() string {
	switch k {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case DayOfMonth:
		return "day-of-month"
	case Month:
		return "month"
	case DayOfWeek:
		return "day-of-week"
	case Year:
		return "year"
	default:
		return "unknown"
	}
}

// IsName reports whether word is a month or weekday name, ignoring case.
func IsName(word string) bool {
	if len(word) != 3 {
		return false
	}
	up := upper(word)
	_, month := monthNames[up]
	_, weekday := weekdayNames[up]
	return month || weekday
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
