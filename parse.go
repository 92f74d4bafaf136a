package cronexpr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cronexpr/internal/field"
	appLog "cronexpr/internal/log"
)

var macros = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

var (
	layout5     = []FieldKind{Minute, Hour, DayOfMonth, Month, DayOfWeek}
	layout6     = []FieldKind{Second, Minute, Hour, DayOfMonth, Month, DayOfWeek}
	layout6Year = []FieldKind{Minute, Hour, DayOfMonth, Month, DayOfWeek, Year}
	layout7     = []FieldKind{Second, Minute, Hour, DayOfMonth, Month, DayOfWeek, Year}
)

// Normalize collapses every run of whitespace in an expression into a single
// space and trims both ends.
//
//	Normalize("  2\t4 * * *\nAsia/Shanghai  ") == "2 4 * * * Asia/Shanghai"
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Parse parses an expression. Expressions without a timezone are evaluated
// in time.Local.
func Parse(text string) (*Schedule, error) {
	return ParseInLocation(text, time.Local)
}

// ParseInLocation is like Parse but evaluates expressions that carry no
// timezone identifier in loc.
func ParseInLocation(text string, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.Local
	}
	normalized := Normalize(text)
	appLog.Debug("normalized cron expression", "input", text, "normalized", normalized)

	p := &exprParser{input: normalized}
	return p.parse(loc)
}

// MustParse is like Parse but panics if the expression cannot be parsed.
func MustParse(text string) *Schedule {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

type token struct {
	text   string
	offset int
}

type exprParser struct {
	input string
}

func (p *exprParser) fail(at int, part, tok, format string, args ...any) *ParseError {
	return &ParseError{
		Input:  p.input,
		Offset: at,
		Field:  part,
		Token:  tok,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// tokens splits the normalized input on single spaces, keeping offsets.
func (p *exprParser) tokens() []token {
	if p.input == "" {
		return nil
	}
	var out []token
	offset := 0
	for _, part := range strings.Split(p.input, " ") {
		out = append(out, token{text: part, offset: offset})
		offset += len(part) + 1
	}
	return out
}

func (p *exprParser) parse(defaultLoc *time.Location) (*Schedule, error) {
	toks := p.tokens()
	if len(toks) == 0 {
		return nil, p.fail(0, "expression", "", "expression is empty")
	}

	var fields []token
	var zone *token
	if strings.HasPrefix(toks[0].text, "@") {
		expansion, ok := macros[strings.ToLower(toks[0].text)]
		if !ok {
			return nil, p.fail(toks[0].offset, "macro", toks[0].text, "unknown macro")
		}
		if len(toks) > 2 {
			return nil, p.fail(toks[2].offset, "expression", toks[2].text, "unexpected token after macro and timezone")
		}
		for _, f := range strings.Fields(expansion) {
			fields = append(fields, token{text: f, offset: toks[0].offset})
		}
		if len(toks) == 2 {
			zone = &toks[1]
		}
	} else {
		fields = toks
		if last := toks[len(toks)-1]; len(toks) > 5 && !looksLikeField(last.text) {
			zone = &last
			fields = toks[:len(toks)-1]
		}
	}

	kinds, err := p.layout(fields)
	if err != nil {
		return nil, err
	}

	s := &Schedule{
		text:    p.input,
		seconds: field.Only(Second, 0),
		loc:     defaultLoc,
	}
	for i, k := range kinds {
		tok := fields[i]
		set, err := p.field(k, tok)
		if err != nil {
			return nil, err
		}
		switch k {
		case Second:
			s.seconds = set
		case Minute:
			s.minutes = set
		case Hour:
			s.hours = set
		case DayOfMonth:
			s.doms = set
		case Month:
			s.months = set
		case DayOfWeek:
			s.dows = set
		case Year:
			if !set.Wildcard() {
				s.years = &set
			}
		}
	}

	if zone != nil {
		loc, err := time.LoadLocation(zone.text)
		if err != nil {
			return nil, p.fail(zone.offset, "timezone", zone.text,
				"unknown timezone; see the tz database names at https://en.wikipedia.org/wiki/List_of_tz_database_time_zones")
		}
		s.loc = loc
	}
	return s, nil
}

// layout picks the field order from the field count. Six fields are read as
// second..day-of-week unless the last one only makes sense as a year.
func (p *exprParser) layout(fields []token) ([]FieldKind, error) {
	switch len(fields) {
	case 5:
		return layout5, nil
	case 6:
		last := fields[5].text
		if _, err := field.Parse(DayOfWeek, last); err != nil {
			if _, yerr := field.Parse(Year, last); yerr == nil {
				return layout6Year, nil
			}
		}
		return layout6, nil
	case 7:
		return layout7, nil
	default:
		at := 0
		if len(fields) > 7 {
			at = fields[7].offset
		}
		return nil, p.fail(at, "expression", "", "expected 5 to 7 fields, found %d", len(fields))
	}
}

func (p *exprParser) field(k FieldKind, tok token) (field.Set, error) {
	set, err := field.Parse(k, tok.text)
	if err == nil {
		return set, nil
	}
	var ferr *field.Error
	if errors.As(err, &ferr) {
		return field.Set{}, p.fail(tok.offset+ferr.Offset, k.String(), tok.text, "%s", ferr.Msg)
	}
	return field.Set{}, p.fail(tok.offset, k.String(), tok.text, "%v", err)
}

// looksLikeField reports whether tok is built only from field syntax:
// digits, "*", month or weekday names, joined by ",", "-" or "/".
func looksLikeField(tok string) bool {
	parts := strings.FieldsFunc(tok, func(r rune) bool {
		return r == ',' || r == '-' || r == '/'
	})
	if len(parts) == 0 {
		return false
	}
	for _, part := range parts {
		if part == "*" || field.IsName(part) {
			continue
		}
		if strings.Trim(part, "0123456789") != "" {
			return false
		}
	}
	return true
}
