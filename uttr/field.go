package uttr

import (
	"fmt"

	"github.com/Neumenon/uttr/units"
)

// ============================================================
// Pipelines
// ============================================================

// Converter transforms an incoming field value before it is validated.
type Converter func(v any) (any, error)

// Converters is an ordered converter chain. Each stage receives the output
// of the previous one.
type Converters []Converter

// Append returns a new chain with fns added at the end. The receiver is not
// modified, so chains can be shared between fields.
func (c Converters) Append(fns ...Converter) Converters {
	out := make(Converters, 0, len(c)+len(fns))
	out = append(out, c...)
	return append(out, fns...)
}

// Apply runs the chain in order and stops at the first error.
func (c Converters) Apply(v any) (any, error) {
	var err error
	for _, fn := range c {
		if v, err = fn(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Validator checks a converted field value. r is the record being built or
// modified; it is nil when validating a bound struct.
type Validator func(r *Record, f *FieldDef, v any) error

// Validators is an ordered validator chain.
type Validators []Validator

// Append returns a new chain with fns added at the end.
func (vs Validators) Append(fns ...Validator) Validators {
	out := make(Validators, 0, len(vs)+len(fns))
	out = append(out, vs...)
	return append(out, fns...)
}

// Run calls each validator in order and returns the first error.
func (vs Validators) Run(r *Record, f *FieldDef, v any) error {
	for _, fn := range vs {
		if err := fn(r, f, v); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Field Definitions
// ============================================================

// FieldDef describes one field of a record type.
type FieldDef struct {
	Name       string
	Policy     *UnitPolicy // nil for fields that are not unit-aware
	Converters Converters
	Validators Validators

	Default     any
	HasDefault  bool
	DefaultFunc func(r *Record) (any, error) // evaluated lazily; may read sibling fields

	Init     bool           // accepted as construction input (default true)
	Optional bool           // may be omitted; defaults to nil
	Metadata map[string]any // free-form user data, never read by uttr

	err error // deferred construction error, reported by NewRecordType
}

// FieldOption configures a FieldDef.
type FieldOption func(*FieldDef)

// Field creates a plain field without unit behaviour.
func Field(name string, opts ...FieldOption) *FieldDef {
	f := &FieldDef{Name: name, Init: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Attribute creates a unit-aware field with canonical unit u.
//
// The unit policy's converter is appended after any converters given in opts
// and its validator after any validators, so user converters may return bare
// numbers that are then promoted. A nil unit yields a plain field.
//
// An invalid unit does not panic; the error is recorded on the field and
// reported by NewRecordType. Use MustAttribute to fail immediately.
func Attribute(name string, u *units.Unit, opts ...FieldOption) *FieldDef {
	f := Field(name, opts...)
	if u == nil {
		return f
	}
	policy, err := NewUnitPolicy(u)
	if err != nil {
		f.err = fmt.Errorf("field %q: %w", name, err)
		return f
	}
	f.attachPolicy(policy)
	return f
}

// AttributeOf is like Attribute but takes a unit expression, e.g. "km / s".
// An empty expression yields a plain field.
func AttributeOf(name, unitExpr string, opts ...FieldOption) *FieldDef {
	if unitExpr == "" {
		return Field(name, opts...)
	}
	u, err := units.Parse(unitExpr)
	if err != nil {
		f := Field(name, opts...)
		f.err = fmt.Errorf("field %q: %w", name, &InvalidUnitError{Unit: unitExpr, Err: err})
		return f
	}
	return Attribute(name, u, opts...)
}

// MustAttribute is like Attribute but panics if u is invalid.
func MustAttribute(name string, u *units.Unit, opts ...FieldOption) *FieldDef {
	f := Attribute(name, u, opts...)
	if f.err != nil {
		panic(f.err)
	}
	return f
}

func (f *FieldDef) attachPolicy(p *UnitPolicy) {
	f.Policy = p
	f.Converters = f.Converters.Append(func(v any) (any, error) {
		out, err := p.CoerceIfDimensionless(v)
		return out, fieldOf(err, f.Name)
	})
	f.Validators = f.Validators.Append(p.Validator())
}

// UnitAware reports whether the field carries a unit policy.
func (f *FieldDef) UnitAware() bool {
	return f.Policy != nil
}

// Err returns the deferred construction error of the field, if any.
func (f *FieldDef) Err() error {
	return f.err
}

// Unit returns the canonical unit, or nil for plain fields.
func (f *FieldDef) Unit() *units.Unit {
	if f.Policy == nil {
		return nil
	}
	return f.Policy.Unit()
}

// process runs the converter chain then the validator chain.
func (f *FieldDef) process(r *Record, raw any) (any, error) {
	v, err := f.Converters.Apply(raw)
	if err != nil {
		return nil, err
	}
	if err := f.Validators.Run(r, f, v); err != nil {
		return nil, err
	}
	return v, nil
}

// WithConverter appends converters to the field's chain.
func WithConverter(fns ...Converter) FieldOption {
	return func(f *FieldDef) {
		f.Converters = f.Converters.Append(fns...)
	}
}

// WithValidator appends validators to the field's chain.
func WithValidator(fns ...Validator) FieldOption {
	return func(f *FieldDef) {
		f.Validators = f.Validators.Append(fns...)
	}
}

// WithDefault sets a static default value. Converters run on it like on any
// other input.
func WithDefault(v any) FieldOption {
	return func(f *FieldDef) {
		f.Default = v
		f.HasDefault = true
	}
}

// WithDefaultFunc sets a default computed from the record under
// construction. The function may read other fields, including through the
// record's accessor, regardless of declaration order.
func WithDefaultFunc(fn func(r *Record) (any, error)) FieldOption {
	return func(f *FieldDef) {
		f.DefaultFunc = fn
	}
}

// NoInit excludes the field from construction input. It should have a
// default.
func NoInit() FieldOption {
	return func(f *FieldDef) {
		f.Init = false
	}
}

// WithOptional marks a field as optional: when omitted it is nil.
func WithOptional() FieldOption {
	return func(f *FieldDef) {
		f.Optional = true
	}
}

// WithMetadata attaches a user metadata entry.
func WithMetadata(key string, value any) FieldOption {
	return func(f *FieldDef) {
		if f.Metadata == nil {
			f.Metadata = make(map[string]any)
		}
		f.Metadata[key] = value
	}
}
