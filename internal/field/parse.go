package field

import (
	"fmt"
	"strconv"
)

// Error reports a malformed field token. Offset is the byte position inside
// the token where the problem starts.
type Error struct {
	Kind   Kind
	Token  string
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s field %q: %s", e.Kind, e.Token, e.Msg)
}

// Parse expands a single field token such as "*/15", "1-5", "MON-FRI" or
// "0,30" into the Set of values it denotes.
func Parse(k Kind, token string) (Set, error) {
	if token == "*" {
		return Every(k), nil
	}
	p := &parser{kind: k, dom: k.Domain(), src: token}
	values, err := p.list()
	if err != nil {
		return Set{}, err
	}
	return newSet(k, values, false), nil
}

type parser struct {
	kind Kind
	dom  Domain
	src  string
	pos  int
}

func (p *parser) fail(at int, format string, args ...any) error {
	return &Error{Kind: p.kind, Token: p.src, Offset: at, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) list() ([]int, error) {
	var out []int
	for {
		values, err := p.item()
		if err != nil {
			return nil, err
		}
		out = append(out, values...)
		if p.pos == len(p.src) {
			return out, nil
		}
		if p.peek() != ',' {
			return nil, p.fail(p.pos, "unexpected character %q", p.peek())
		}
		p.pos++
	}
}

// item parses "*", "a", "a-b", each optionally followed by "/step".
func (p *parser) item() ([]int, error) {
	start := p.pos
	lo, hi := p.dom.Min, p.dom.Max
	single := false

	if p.peek() == '*' {
		p.pos++
	} else {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		lo, hi = v, v
		single = true
		if p.peek() == '-' {
			p.pos++
			end, err := p.value()
			if err != nil {
				return nil, err
			}
			if v > end {
				return nil, p.fail(start, "range must be in ascending order; found %d-%d", v, end)
			}
			hi = end
			single = false
		}
	}

	step := 1
	if p.peek() == '/' {
		p.pos++
		s, err := p.step()
		if err != nil {
			return nil, err
		}
		step = s
		if single {
			// "a/s" runs from a to the end of the domain.
			hi = p.dom.Max
		}
	}

	out := make([]int, 0, (hi-lo)/step+1)
	for v := lo; v <= hi; v += step {
		out = append(out, v)
	}
	return out, nil
}

func (p *parser) value() (int, error) {
	start := p.pos
	c := p.peek()
	switch {
	case isDigit(c):
		for isDigit(p.peek()) {
			p.pos++
		}
		lit := p.src[start:p.pos]
		n, err := strconv.Atoi(lit)
		if err != nil || n < p.dom.Min || n > p.dom.Max {
			return 0, p.fail(start, "value must be in range [%d, %d]; found %s", p.dom.Min, p.dom.Max, lit)
		}
		return n, nil
	case isLetter(c):
		for isLetter(p.peek()) {
			p.pos++
		}
		word := p.src[start:p.pos]
		if n, ok := p.dom.Names[upper(word)]; ok {
			return n, nil
		}
		return 0, p.fail(start, "unknown name %q", word)
	case c == 0:
		return 0, p.fail(start, "malformed expression; expected a value")
	default:
		return 0, p.fail(start, "unexpected character %q", c)
	}
}

func (p *parser) step() (int, error) {
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	if start == p.pos {
		return 0, p.fail(start, "step must be a positive integer")
	}
	lit := p.src[start:p.pos]
	n, err := strconv.Atoi(lit)
	if err != nil {
		return 0, p.fail(start, "step %s is too large", lit)
	}
	if n <= 0 {
		return 0, p.fail(start, "step must be greater than 0")
	}
	// Any step wider than the domain yields only the start value.
	if span := p.dom.Max - p.dom.Min + 1; n > span {
		n = span
	}
	return n, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
