package uttr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultAccessorName is the name under which a record exposes its
// ArrayAccessor unless configured otherwise.
const DefaultAccessorName = "arr_"

// ============================================================
// Record Types
// ============================================================

// RecordType is an immutable, ordered set of field definitions.
type RecordType struct {
	name     string
	fields   []*FieldDef
	index    map[string]int
	accessor string
	frozen   bool
}

// TypeOption configures a RecordType.
type TypeOption func(*RecordType)

// WithAccessorName exposes the record's accessor under name. An empty name
// disables the accessor.
func WithAccessorName(name string) TypeOption {
	return func(t *RecordType) {
		t.accessor = name
	}
}

// WithoutAccessor disables the accessor.
func WithoutAccessor() TypeOption {
	return WithAccessorName("")
}

// WithFrozen makes records of the type read-only after construction.
func WithFrozen() TypeOption {
	return func(t *RecordType) {
		t.frozen = true
	}
}

// NewRecordType assembles a record type from field definitions.
func NewRecordType(name string, fields []*FieldDef, opts ...TypeOption) (*RecordType, error) {
	t := &RecordType{
		name:     name,
		fields:   slices.Clone(fields),
		index:    make(map[string]int, len(fields)),
		accessor: DefaultAccessorName,
	}
	for _, opt := range opts {
		opt(t)
	}
	if name == "" {
		return nil, errors.New("record type: empty name")
	}
	for i, f := range t.fields {
		if f == nil {
			return nil, fmt.Errorf("%s: field %d is nil", name, i)
		}
		if f.err != nil {
			return nil, fmt.Errorf("%s: %w", name, f.err)
		}
		if f.Name == "" {
			return nil, fmt.Errorf("%s: field %d has no name", name, i)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate field %q", name, f.Name)
		}
		t.index[f.Name] = i
	}
	if _, clash := t.index[t.accessor]; clash && t.accessor != "" {
		return nil, fmt.Errorf("%s: %q: %w", name, t.accessor, ErrAccessorConflict)
	}
	return t, nil
}

// MustRecordType is like NewRecordType but panics on error.
func MustRecordType(name string, fields []*FieldDef, opts ...TypeOption) *RecordType {
	t, err := NewRecordType(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type name.
func (t *RecordType) Name() string { return t.name }

// Fields returns the field definitions in declaration order.
func (t *RecordType) Fields() []*FieldDef { return slices.Clone(t.fields) }

// AccessorName returns the accessor name, or "" when disabled.
func (t *RecordType) AccessorName() string { return t.accessor }

// Frozen reports whether records of this type are read-only.
func (t *RecordType) Frozen() bool { return t.frozen }

// Field returns the definition of the named field, or nil.
func (t *RecordType) Field(name string) *FieldDef {
	if i, ok := t.index[name]; ok {
		return t.fields[i]
	}
	return nil
}

// UnitFields returns the unit-aware fields in declaration order.
func (t *RecordType) UnitFields() []*FieldDef {
	var out []*FieldDef
	for _, f := range t.fields {
		if f.UnitAware() {
			out = append(out, f)
		}
	}
	return out
}

// New constructs a record from input values keyed by field name.
//
// Every field is converted then validated. Fields absent from values take
// their default; defaults are evaluated on demand, so a default function can
// read any other field whatever the declaration order. The first failure
// aborts construction.
func (t *RecordType) New(values map[string]any) (*Record, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		f := t.Field(k)
		if f == nil {
			return nil, &UnknownFieldError{Owner: t.name, Field: k}
		}
		if !f.Init {
			return nil, fmt.Errorf("%s.%s: %w", t.name, k, ErrNoInit)
		}
	}

	r := &Record{typ: t, values: make([]any, len(t.fields))}
	b := &builder{
		rec:   r,
		input: values,
		state: make([]buildState, len(t.fields)),
		errs:  make([]error, len(t.fields)),
	}
	r.build = b
	for i := range t.fields {
		if err := b.resolve(i); err != nil {
			return nil, err
		}
	}
	r.build = nil
	return r, nil
}

// MustNew is like New but panics on error.
func (t *RecordType) MustNew(values map[string]any) *Record {
	r, err := t.New(values)
	if err != nil {
		panic(err)
	}
	return r
}

type buildState uint8

const (
	statePending buildState = iota
	stateResolving
	stateDone
	stateFailed
)

// builder resolves field values lazily during construction.
type builder struct {
	rec   *Record
	input map[string]any
	state []buildState
	errs  []error
}

func (b *builder) resolve(i int) error {
	f := b.rec.typ.fields[i]
	switch b.state[i] {
	case stateDone:
		return nil
	case stateFailed:
		return b.errs[i]
	case stateResolving:
		return fmt.Errorf("%s.%s: %w", b.rec.typ.name, f.Name, ErrDefaultCycle)
	}
	b.state[i] = stateResolving

	v, err := b.value(f)
	if err == nil {
		v, err = f.process(b.rec, v)
	}
	if err != nil {
		b.state[i] = stateFailed
		b.errs[i] = err
		return err
	}
	b.rec.values[i] = v
	b.state[i] = stateDone
	return nil
}

// value returns the raw, unconverted value for f.
func (b *builder) value(f *FieldDef) (any, error) {
	if raw, ok := b.input[f.Name]; ok {
		return raw, nil
	}
	switch {
	case f.DefaultFunc != nil:
		return f.DefaultFunc(b.rec)
	case f.HasDefault:
		return f.Default, nil
	case f.Optional:
		return nil, nil
	}
	return nil, &MissingFieldError{Type: b.rec.typ.name, Field: f.Name}
}

// ============================================================
// Records
// ============================================================

// Record is an instance of a RecordType.
//
// Records are not safe for concurrent mutation; concurrent reads are fine as
// long as no goroutine calls Set.
type Record struct {
	typ    *RecordType
	values []any
	build  *builder // non-nil only while New runs

	accOnce sync.Once
	acc     *ArrayAccessor
}

// Type returns the record's type.
func (r *Record) Type() *RecordType { return r.typ }

// TypeName returns the name of the record's type.
func (r *Record) TypeName() string { return r.typ.name }

// Fields returns the field definitions of the record's type.
func (r *Record) Fields() []*FieldDef { return r.typ.Fields() }

// Get returns the current value of the named field. The accessor name
// resolves to the record's *ArrayAccessor.
func (r *Record) Get(name string) (any, error) {
	if name != "" && name == r.typ.accessor {
		return r.Accessor(), nil
	}
	i, ok := r.typ.index[name]
	if !ok {
		return nil, &UnknownFieldError{Owner: r.typ.name, Field: name}
	}
	if r.build != nil {
		if err := r.build.resolve(i); err != nil {
			return nil, err
		}
	}
	return r.values[i], nil
}

// MustGet is like Get but panics on error.
func (r *Record) MustGet(name string) any {
	v, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set assigns a field, running its converters and validators. The record is
// unchanged if either fails.
func (r *Record) Set(name string, v any) error {
	if r.typ.frozen {
		return fmt.Errorf("%s.%s: %w", r.typ.name, name, ErrFrozen)
	}
	if r.build != nil {
		return fmt.Errorf("%s.%s: %w", r.typ.name, name, ErrUnderConstruction)
	}
	i, ok := r.typ.index[name]
	if !ok {
		return &UnknownFieldError{Owner: r.typ.name, Field: name}
	}
	out, err := r.typ.fields[i].process(r, v)
	if err != nil {
		return err
	}
	r.values[i] = out
	return nil
}

// Accessor returns the record's array accessor, creating it on first use.
// It returns nil when the type has no accessor.
func (r *Record) Accessor() *ArrayAccessor {
	if r.typ.accessor == "" {
		return nil
	}
	r.accOnce.Do(func() {
		r.acc = NewArrayAccessor(r)
	})
	return r.acc
}

// AsMap returns the field values keyed by name. Nested records are converted
// recursively; the accessor is not included.
func (r *Record) AsMap() map[string]any {
	out := make(map[string]any, len(r.values))
	for i, f := range r.typ.fields {
		out[f.Name] = asPlain(r.values[i])
	}
	return out
}

func asPlain(v any) any {
	switch x := v.(type) {
	case *Record:
		if x == nil {
			return nil
		}
		return x.AsMap()
	case []*Record:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = asPlain(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = asPlain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = asPlain(e)
		}
		return out
	}
	return v
}

// String renders the record as Name(field=value, ...).
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.typ.name)
	sb.WriteByte('(')
	for i, f := range r.typ.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		sb.WriteString(FormatValue(r.values[i]))
	}
	sb.WriteByte(')')
	return sb.String()
}

// ============================================================
// Builder
// ============================================================

// TypeBuilder assembles a RecordType field by field.
type TypeBuilder struct {
	name   string
	fields []*FieldDef
	opts   []TypeOption
}

// Define starts a record type definition.
func Define(name string) *TypeBuilder {
	return &TypeBuilder{name: name}
}

// Attr adds a unit-aware field given a unit expression such as "km / s".
func (b *TypeBuilder) Attr(name, unitExpr string, opts ...FieldOption) *TypeBuilder {
	b.fields = append(b.fields, AttributeOf(name, unitExpr, opts...))
	return b
}

// Field adds a plain field.
func (b *TypeBuilder) Field(name string, opts ...FieldOption) *TypeBuilder {
	b.fields = append(b.fields, Field(name, opts...))
	return b
}

// Add adds prebuilt field definitions.
func (b *TypeBuilder) Add(fields ...*FieldDef) *TypeBuilder {
	b.fields = append(b.fields, fields...)
	return b
}

// Accessor sets the accessor name; "" disables it.
func (b *TypeBuilder) Accessor(name string) *TypeBuilder {
	b.opts = append(b.opts, WithAccessorName(name))
	return b
}

// Frozen makes records read-only after construction.
func (b *TypeBuilder) Frozen() *TypeBuilder {
	b.opts = append(b.opts, WithFrozen())
	return b
}

// Build finalizes the type.
func (b *TypeBuilder) Build() (*RecordType, error) {
	return NewRecordType(b.name, b.fields, b.opts...)
}

// MustBuild is like Build but panics on error.
func (b *TypeBuilder) MustBuild() *RecordType {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
