package uttr

import (
	"errors"
	"reflect"

	"github.com/Neumenon/uttr/units"
)

// UnitPolicy converts and validates the values of one unit-aware field.
//
// The policy owns a single canonical unit. Bare numbers are promoted into it,
// quantities that already carry a unit are left alone and only checked for
// equivalence, and ToArray reads any equivalent quantity back as plain
// magnitudes in the canonical unit. A UnitPolicy is immutable and safe for
// concurrent use.
type UnitPolicy struct {
	unit *units.Unit
}

// NewUnitPolicy creates a policy for the canonical unit u.
func NewUnitPolicy(u *units.Unit) (*UnitPolicy, error) {
	if !u.Valid() {
		return nil, &InvalidUnitError{Unit: u.String()}
	}
	return &UnitPolicy{unit: u}, nil
}

// Unit returns the canonical unit.
func (p *UnitPolicy) Unit() *units.Unit {
	return p.unit
}

// IsDimensionless reports whether v is not a quantity, or is a quantity in
// the dimensionless unit.
func (p *UnitPolicy) IsDimensionless(v any) bool {
	q, ok := v.(*units.Quantity)
	return !ok || q == nil || q.Unit().Equal(units.Dimensionless)
}

// CoerceIfDimensionless promotes dimensionless values to the canonical unit.
// nil is returned unchanged and so is any quantity that already has a unit,
// even an equivalent one.
func (p *UnitPolicy) CoerceIfDimensionless(v any) (any, error) {
	if isNil(v) {
		return nil, nil
	}
	if !p.IsDimensionless(v) {
		return v, nil
	}
	q, err := units.Promote(v, p.unit)
	if err != nil {
		return nil, &NotNumericError{Value: v}
	}
	return q, nil
}

// ValidateEquivalent checks that v can be converted to the canonical unit.
// Dimensionless values always pass.
func (p *UnitPolicy) ValidateEquivalent(field string, v any) error {
	if p.IsDimensionless(v) {
		return nil
	}
	found := v.(*units.Quantity).Unit()

	// Probe with one scalar so the cost does not depend on array length.
	if _, err := units.Scalar(1, found).To(p.unit); err != nil {
		return &IncompatibleUnitError{Field: field, Expected: p.unit, Found: found}
	}
	return nil
}

// ToArray returns the magnitude of v in the canonical unit: float64 for a
// scalar quantity, []float64 for an array quantity.
func (p *UnitPolicy) ToArray(v any) (any, error) {
	q, ok := v.(*units.Quantity)
	if !ok || q == nil {
		return nil, &NotAQuantityError{Value: v}
	}
	return q.ValueIn(p.unit)
}

// Converter returns the policy's coercion as a pipeline stage.
func (p *UnitPolicy) Converter() Converter {
	return p.CoerceIfDimensionless
}

// Validator returns the policy's equivalence check as a pipeline stage.
func (p *UnitPolicy) Validator() Validator {
	return func(_ *Record, f *FieldDef, v any) error {
		return p.ValidateEquivalent(f.Name, v)
	}
}

func (p *UnitPolicy) String() string {
	return "UnitPolicy(" + p.unit.String() + ")"
}

// isNil reports whether v is nil or a typed nil pointer, map, or slice.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// fieldOf fills in the field name of errors raised by a policy stage that
// does not know which field it serves.
func fieldOf(err error, field string) error {
	var nn *NotNumericError
	if errors.As(err, &nn) && nn.Field == "" {
		nn.Field = field
	}
	return err
}
