// Package units implements physical units and quantities for uttr.
//
// A Unit is a symbol, a scale factor to the SI base unit of its dimension, and
// a set of dimensions. Dimension bookkeeping is delegated to gonum's unit
// package; this package adds scaled (non-SI) units, a symbol registry and
// array-valued quantities.
//
// # Units
//
//	kg   := units.Kilogram
//	kms  := units.Kilometer.Div(units.Second)     // "km / s"
//	u, _ := units.Parse("kg m / s^2")
//
// # Quantities
//
//	q := units.Scalar(1000, units.Gram)
//	kg, _ := q.To(units.Kilogram) // <Quantity 1 kg>
//
// Two units are convertible when their dimensions match; the conversion factor
// is the ratio of their scales.
package units

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/unit"
)

// Unit is an immutable unit of measure.
type Unit struct {
	symbol string
	scale  float64         // factor to the SI base unit
	dims   unit.Dimensions // never mutated after construction
}

// New creates a unit with the given symbol, SI scale factor and dimensions.
// The dimensions map is copied.
func New(symbol string, scale float64, dims unit.Dimensions) (*Unit, error) {
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("unit %q: scale must be positive and finite, got %v", symbol, scale)
	}
	return &Unit{symbol: symbol, scale: scale, dims: cloneDims(dims)}, nil
}

// MustNew is like New but panics on error.
func MustNew(symbol string, scale float64, dims unit.Dimensions) *Unit {
	u, err := New(symbol, scale, dims)
	if err != nil {
		panic(err)
	}
	return u
}

// Valid reports whether u is a usable unit. The zero Unit and nil are not.
func (u *Unit) Valid() bool {
	return u != nil && u.scale > 0 && !math.IsInf(u.scale, 0) && !math.IsNaN(u.scale)
}

// Symbol returns the unit symbol. The dimensionless unit has an empty symbol.
func (u *Unit) Symbol() string {
	if u == nil {
		return ""
	}
	return u.symbol
}

// String returns the symbol, or "dimensionless".
func (u *Unit) String() string {
	if u == nil {
		return "<nil>"
	}
	if u.symbol == "" {
		if u.IsDimensionless() && u.scale == 1 {
			return "dimensionless"
		}
		return strconv.FormatFloat(u.scale, 'g', -1, 64)
	}
	return u.symbol
}

// Scale returns the factor that converts a magnitude in u to SI base units.
func (u *Unit) Scale() float64 {
	return u.scale
}

// Dimensions returns a copy of the unit's dimensions.
func (u *Unit) Dimensions() unit.Dimensions {
	return cloneDims(u.dims)
}

// IsDimensionless reports whether u carries no physical dimension.
// A scaled ratio such as km/m is dimensionless but not equal to Dimensionless.
func (u *Unit) IsDimensionless() bool {
	return len(u.dims) == 0
}

// Equal reports whether u and o denote the same unit: same dimensions and
// same scale. Symbols are not compared, so 1000 g equals kg.
func (u *Unit) Equal(o *Unit) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.ConvertibleTo(o) && floatEq(u.scale, o.scale)
}

// ConvertibleTo reports whether quantities in u can be expressed in o.
func (u *Unit) ConvertibleTo(o *Unit) bool {
	if !u.Valid() || !o.Valid() {
		return false
	}
	return unit.DimensionsMatch(u.si(), o.si())
}

// Factor returns the multiplier that converts a magnitude in u into one in to.
func (u *Unit) Factor(to *Unit) (float64, error) {
	if !u.ConvertibleTo(to) {
		return 0, &ConversionError{From: u, To: to}
	}
	return u.scale / to.scale, nil
}

// Mul returns the product unit u·o.
func (u *Unit) Mul(o *Unit) *Unit {
	prod := u.si().Mul(o.si())
	return &Unit{
		symbol: joinSymbols(u.symbol, " ", o.symbol),
		scale:  prod.Value(),
		dims:   cloneDims(prod.Dimensions()),
	}
}

// Div returns the quotient unit u/o.
func (u *Unit) Div(o *Unit) *Unit {
	quo := u.si().Div(o.si())
	sym := u.symbol
	if o.symbol != "" {
		if sym == "" {
			sym = "1"
		}
		sym = sym + " / " + wrapCompound(o.symbol)
	}
	return &Unit{
		symbol: sym,
		scale:  quo.Value(),
		dims:   cloneDims(quo.Dimensions()),
	}
}

// Pow returns u raised to the integer power n.
func (u *Unit) Pow(n int) *Unit {
	if n == 0 {
		return Dimensionless
	}
	if n == 1 {
		return u
	}
	dims := make(unit.Dimensions, len(u.dims))
	for d, p := range u.dims {
		dims[d] = p * n
	}
	sym := ""
	if u.symbol != "" {
		sym = wrapCompound(u.symbol) + "^" + strconv.Itoa(n)
	}
	return &Unit{symbol: sym, scale: math.Pow(u.scale, float64(n)), dims: dims}
}

// WithSymbol returns a copy of u renamed to symbol.
func (u *Unit) WithSymbol(symbol string) *Unit {
	return &Unit{symbol: symbol, scale: u.scale, dims: cloneDims(u.dims)}
}

// DimensionString renders the dimensions in a stable order, e.g. "kg m s^-2".
func (u *Unit) DimensionString() string {
	if u == nil {
		return "<nil>"
	}
	if len(u.dims) == 0 {
		return "1"
	}
	keys := make([]unit.Dimension, 0, len(u.dims))
	for d := range u.dims {
		keys = append(keys, d)
	}
	slices.SortFunc(keys, func(a, b unit.Dimension) int {
		return strings.Compare(a.String(), b.String())
	})
	parts := make([]string, 0, len(keys))
	for _, d := range keys {
		p := u.dims[d]
		if p == 1 {
			parts = append(parts, d.String())
		} else {
			parts = append(parts, d.String()+"^"+strconv.Itoa(p))
		}
	}
	return strings.Join(parts, " ")
}

// si returns a fresh gonum unit holding the scale and dimensions of u.
// gonum's Mul and Div mutate their receiver, so callers always get a copy.
func (u *Unit) si() *unit.Unit {
	return unit.New(u.scale, cloneDims(u.dims))
}

func cloneDims(d unit.Dimensions) unit.Dimensions {
	out := make(unit.Dimensions, len(d))
	for k, v := range d {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

func joinSymbols(a, sep, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}

func wrapCompound(sym string) string {
	if strings.ContainsAny(sym, " /") {
		return "(" + sym + ")"
	}
	return sym
}

func floatEq(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}
