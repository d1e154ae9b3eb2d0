package uttr

import (
	"errors"
	"fmt"

	"github.com/Neumenon/uttr/units"
)

// Machine-readable error codes, returned by ErrorCode.
const (
	CodeInvalidUnit      = "invalid_unit"
	CodeIncompatibleUnit = "incompatible_unit"
	CodeUnknownField     = "unknown_field"
	CodeKeyNotFound      = "key_not_found"
	CodeNotAQuantity     = "not_a_quantity"
	CodeNotNumeric       = "not_numeric"
	CodeRequiredField    = "required_field"
)

var (
	ErrInvalidUnit      = errors.New("invalid unit")
	ErrIncompatibleUnit = errors.New("incompatible unit")
	ErrUnknownField     = errors.New("unknown field")
	ErrKeyNotFound      = errors.New("key not found")
	ErrNotAQuantity     = errors.New("not a quantity")
	ErrNotNumeric       = errors.New("not numeric")
	ErrRequiredField    = errors.New("required field missing")

	ErrFrozen            = errors.New("record is frozen")
	ErrDefaultCycle      = errors.New("default values depend on each other")
	ErrAccessorConflict  = errors.New("accessor name conflicts with a field")
	ErrNoInit            = errors.New("field is not settable at construction")
	ErrUnderConstruction = errors.New("record is under construction")
)

// InvalidUnitError reports a unit that is not a usable unit value.
type InvalidUnitError struct {
	Unit string // symbol or description of the rejected unit
	Err  error  // parse failure, if any
}

func (e *InvalidUnitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid unit %q: %v", e.Unit, e.Err)
	}
	return fmt.Sprintf("invalid unit %q", e.Unit)
}

func (e *InvalidUnitError) Is(target error) bool { return target == ErrInvalidUnit }
func (e *InvalidUnitError) Unwrap() error        { return e.Err }
func (e *InvalidUnitError) Code() string         { return CodeInvalidUnit }

// IncompatibleUnitError reports a value whose unit cannot be converted to the
// field's canonical unit.
type IncompatibleUnitError struct {
	Field    string
	Expected *units.Unit
	Found    *units.Unit
}

func (e *IncompatibleUnitError) Error() string {
	return fmt.Sprintf("unit of field %q must be equivalent to %q, found %q",
		e.Field, e.Expected.String(), e.Found.String())
}

func (e *IncompatibleUnitError) Is(target error) bool { return target == ErrIncompatibleUnit }
func (e *IncompatibleUnitError) Code() string         { return CodeIncompatibleUnit }

// UnknownFieldError reports a lookup of a field that does not exist. When
// UnitAware is set the field may exist but is not unit-annotated.
type UnknownFieldError struct {
	Owner     string
	Field     string
	UnitAware bool
}

func (e *UnknownFieldError) Error() string {
	if e.UnitAware {
		return fmt.Sprintf("%s: no unit-aware field %q", e.Owner, e.Field)
	}
	return fmt.Sprintf("%s: unknown field %q", e.Owner, e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }
func (e *UnknownFieldError) Code() string         { return CodeUnknownField }

// KeyNotFoundError is the container-style form of UnknownFieldError,
// returned by ArrayAccessor.Lookup.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string        { return fmt.Sprintf("key not found: %q", e.Key) }
func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }
func (e *KeyNotFoundError) Code() string         { return CodeKeyNotFound }

// NotAQuantityError reports an attempt to strip the unit from a value that
// never had one.
type NotAQuantityError struct {
	Value any
}

func (e *NotAQuantityError) Error() string {
	return fmt.Sprintf("%T is not a quantity", e.Value)
}

func (e *NotAQuantityError) Is(target error) bool { return target == ErrNotAQuantity }
func (e *NotAQuantityError) Code() string         { return CodeNotAQuantity }

// NotNumericError reports a dimensionless value that cannot be multiplied by
// a unit.
type NotNumericError struct {
	Field string
	Value any
}

func (e *NotNumericError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot attach a unit to %T", e.Value)
	}
	return fmt.Sprintf("field %q: cannot attach a unit to %T", e.Field, e.Value)
}

func (e *NotNumericError) Is(target error) bool { return target == ErrNotNumeric }
func (e *NotNumericError) Code() string         { return CodeNotNumeric }

// MissingFieldError reports a required field absent from construction input.
type MissingFieldError struct {
	Type  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field missing: %s", e.Type, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrRequiredField }
func (e *MissingFieldError) Code() string         { return CodeRequiredField }

// ErrorCode returns the machine-readable code of the first coded error in
// err's chain, or "" if there is none.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
