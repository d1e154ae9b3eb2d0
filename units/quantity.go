package units

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// ErrNotNumeric is returned when a value cannot be promoted to a quantity.
var ErrNotNumeric = errors.New("units: value is not numeric")

// Quantity is a scalar or a one-dimensional array of magnitudes tagged with a
// unit. Quantities are immutable; every operation returns a new value.
type Quantity struct {
	values []float64
	scalar bool
	unit   *Unit
}

// Scalar creates a scalar quantity.
func Scalar(v float64, u *Unit) *Quantity {
	return &Quantity{values: []float64{v}, scalar: true, unit: orDimensionless(u)}
}

// Array creates an array quantity. The slice is copied.
func Array(vs []float64, u *Unit) *Quantity {
	return &Quantity{values: append([]float64(nil), vs...), unit: orDimensionless(u)}
}

// Promote multiplies a bare number, numeric slice or dimensionless quantity
// by u. Anything else fails with ErrNotNumeric.
func Promote(v any, u *Unit) (*Quantity, error) {
	if q, ok := v.(*Quantity); ok && q != nil {
		if !q.unit.IsDimensionless() {
			return nil, fmt.Errorf("units: cannot promote %s quantity", q.unit)
		}
		out := &Quantity{values: append([]float64(nil), q.values...), scalar: q.scalar, unit: u}
		floats.Scale(q.unit.scale, out.values)
		return out, nil
	}
	vals, scalar, ok := Numeric(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
	return &Quantity{values: vals, scalar: scalar, unit: orDimensionless(u)}, nil
}

// Numeric converts Go numbers and numeric slices to float64 magnitudes.
// scalar reports whether v was a single number.
func Numeric(v any) (vals []float64, scalar bool, ok bool) {
	switch x := v.(type) {
	case float64:
		return []float64{x}, true, true
	case []float64:
		return append([]float64(nil), x...), false, true
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, isScalar, ok := Numeric(e)
			if !ok || !isScalar {
				return nil, false, false
			}
			out[i] = f[0]
		}
		return out, false, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false, false
	}
	if f, ok := numberOf(rv); ok {
		return []float64{f}, true, true
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]float64, rv.Len())
		for i := range out {
			f, ok := numberOf(rv.Index(i))
			if !ok {
				return nil, false, false
			}
			out[i] = f
		}
		return out, false, true
	}
	return nil, false, false
}

func numberOf(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Interface:
		if rv.IsNil() {
			return 0, false
		}
		return numberOf(rv.Elem())
	}
	return 0, false
}

// Unit returns the quantity's unit.
func (q *Quantity) Unit() *Unit {
	return q.unit
}

// IsScalar reports whether q holds a single magnitude rather than an array.
func (q *Quantity) IsScalar() bool {
	return q.scalar
}

// Len returns the number of magnitudes.
func (q *Quantity) Len() int {
	return len(q.values)
}

// Values returns a copy of the magnitudes.
func (q *Quantity) Values() []float64 {
	return append([]float64(nil), q.values...)
}

// Magnitude returns the magnitude in q's own unit: float64 for scalars,
// []float64 for arrays.
func (q *Quantity) Magnitude() any {
	if q.scalar {
		return q.values[0]
	}
	return q.Values()
}

// To re-expresses q in u.
func (q *Quantity) To(u *Unit) (*Quantity, error) {
	f, err := q.unit.Factor(u)
	if err != nil {
		return nil, err
	}
	out := &Quantity{values: q.Values(), scalar: q.scalar, unit: u}
	if f != 1 {
		floats.Scale(f, out.values)
	}
	return out, nil
}

// ValueIn returns the magnitude of q expressed in u, without the unit.
func (q *Quantity) ValueIn(u *Unit) (any, error) {
	c, err := q.To(u)
	if err != nil {
		return nil, err
	}
	return c.Magnitude(), nil
}

// Equal reports whether q and o have equal units and identical magnitudes.
func (q *Quantity) Equal(o *Quantity) bool {
	if q == nil || o == nil {
		return q == o
	}
	return q.scalar == o.scalar && q.unit.Equal(o.unit) && floats.Equal(q.values, o.values)
}

// EqualApprox reports whether o, converted to q's unit, matches q within the
// relative tolerance tol.
func (q *Quantity) EqualApprox(o *Quantity, tol float64) bool {
	if q == nil || o == nil {
		return q == o
	}
	c, err := o.To(q.unit)
	if err != nil || q.scalar != c.scalar || len(q.values) != len(c.values) {
		return false
	}
	for i := range q.values {
		if !scalar.EqualWithinRel(q.values[i], c.values[i], tol) {
			return false
		}
	}
	return true
}

// String renders the quantity as <Quantity 1 kg> or <Quantity [1 2 3] km / s>.
func (q *Quantity) String() string {
	var sb strings.Builder
	sb.WriteString("<Quantity ")
	if q.scalar {
		sb.WriteString(FormatFloat(q.values[0]))
	} else {
		sb.WriteByte('[')
		for i, v := range q.values {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(FormatFloat(v))
		}
		sb.WriteByte(']')
	}
	if q.unit.symbol != "" {
		sb.WriteByte(' ')
		sb.WriteString(q.unit.symbol)
	}
	sb.WriteByte('>')
	return sb.String()
}

// FormatFloat returns the shortest round-trip representation of f, with
// lower-case exponent and -0 normalized to 0.
func FormatFloat(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strings.ReplaceAll(strconv.FormatFloat(f, 'g', -1, 64), "E", "e")
}

func orDimensionless(u *Unit) *Unit {
	if u == nil {
		return Dimensionless
	}
	return u
}
