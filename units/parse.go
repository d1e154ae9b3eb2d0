package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrConversion is matched by every ConversionError.
var ErrConversion = errors.New("units: incompatible dimensions")

// ConversionError reports an attempt to convert between units of different
// physical dimensions.
type ConversionError struct {
	From, To *Unit
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("units: %q (%s) and %q (%s) are not convertible",
		e.From.String(), e.From.DimensionString(), e.To.String(), e.To.DimensionString())
}

// Is reports whether target is ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// ParseError reports a malformed unit expression.
type ParseError struct {
	Expr   string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("units: parse %q at %d: %s", e.Expr, e.Pos, e.Reason)
}

// Parse parses a unit expression using the default registry.
//
// Grammar:
//
//	expr   = term { ("*" | " " | "/") term }
//	term   = factor [ ("^" | "**") int ]
//	factor = symbol | "(" expr ")" | "1"
//
// A "/" divides by the single term that follows it, so "kg m / s^2" is
// kg·m·s⁻². The empty string and "dimensionless" parse to Dimensionless.
func Parse(expr string) (*Unit, error) {
	return Default.Parse(expr)
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Unit {
	u, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return u
}

// Parse parses a unit expression against r.
func (r *Registry) Parse(expr string) (*Unit, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return Dimensionless, nil
	}
	if u, ok := r.Lookup(trimmed); ok {
		return u, nil
	}
	p := &unitParser{reg: r, src: expr}
	u, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", string(p.src[p.pos]))
	}
	return u.WithSymbol(normalizeSymbol(trimmed)), nil
}

type unitParser struct {
	reg *Registry
	src string
	pos int
}

func (p *unitParser) expr() (*Unit, error) {
	acc, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] == ')' {
			return acc, nil
		}
		switch p.src[p.pos] {
		case '/':
			p.pos++
			t, err := p.term()
			if err != nil {
				return nil, err
			}
			acc = acc.Div(t)
		case '*':
			if strings.HasPrefix(p.src[p.pos:], "**") {
				return nil, p.errorf("exponent without base")
			}
			p.pos++
			fallthrough
		default:
			t, err := p.term()
			if err != nil {
				return nil, err
			}
			acc = acc.Mul(t)
		}
	}
}

func (p *unitParser) term() (*Unit, error) {
	base, err := p.factor()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	switch {
	case strings.HasPrefix(p.src[p.pos:], "**"):
		p.pos += 2
	case strings.HasPrefix(p.src[p.pos:], "^"):
		p.pos++
	default:
		return base, nil
	}
	n, err := p.integer()
	if err != nil {
		return nil, err
	}
	return base.Pow(n), nil
}

func (p *unitParser) factor() (*Unit, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of expression")
	}
	if p.src[p.pos] == '(' {
		p.pos++
		u, err := p.expr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, p.errorf("missing )")
		}
		p.pos++
		return u, nil
	}
	start := p.pos
	for p.pos < len(p.src) && isSymbolRune(rune(p.src[p.pos])) {
		p.pos++
	}
	sym := p.src[start:p.pos]
	if sym == "" {
		return nil, p.errorf("expected unit symbol")
	}
	if sym == "1" {
		return Dimensionless, nil
	}
	u, ok := p.reg.Lookup(sym)
	if !ok {
		return nil, &ParseError{Expr: p.src, Pos: start, Reason: fmt.Sprintf("unknown unit %q", sym)}
	}
	return u, nil
}

func (p *unitParser) integer() (int, error) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, &ParseError{Expr: p.src, Pos: start, Reason: "expected integer exponent"}
	}
	return n, nil
}

func (p *unitParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *unitParser) errorf(format string, args ...any) error {
	return &ParseError{Expr: p.src, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func isSymbolRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// normalizeSymbol collapses runs of whitespace and spaces "/" consistently.
func normalizeSymbol(s string) string {
	s = strings.ReplaceAll(s, "/", " / ")
	s = strings.ReplaceAll(s, "**", "^")
	return strings.Join(strings.Fields(s), " ")
}
