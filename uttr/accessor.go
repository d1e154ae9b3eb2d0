package uttr

import (
	"fmt"
	"reflect"
	"slices"
)

// Target is anything an ArrayAccessor can read from: a *Record, a bound
// struct, or a user type exposing the same field metadata.
type Target interface {
	Fields() []*FieldDef
	Get(name string) (any, error)
	String() string
}

// ArrayAccessor is a read-only view over a Target that returns unit-aware
// fields as plain magnitudes in their canonical unit.
//
//	arr := rec.Accessor()
//	m, _ := arr.Get("mass") // float64 in the field's unit
//
// The set of readable fields is fixed when the accessor is created. Values
// are read from the target on every call and never cached, so changes made
// through Record.Set are visible immediately.
type ArrayAccessor struct {
	target  Target
	getters map[string]func() (any, error)
}

// NewArrayAccessor creates an accessor over target.
func NewArrayAccessor(target Target) *ArrayAccessor {
	a := &ArrayAccessor{
		target:  target,
		getters: make(map[string]func() (any, error)),
	}
	for _, f := range target.Fields() {
		if f.Policy == nil {
			continue
		}
		name, policy := f.Name, f.Policy
		a.getters[name] = func() (any, error) {
			v, err := target.Get(name)
			if err != nil {
				return nil, err
			}
			if isNil(v) {
				return nil, nil
			}
			return policy.ToArray(v)
		}
	}
	return a
}

// Get returns the named field as a float64 (scalar quantity) or []float64
// (array quantity) in the field's canonical unit, or nil when the field is
// unset. Fields that are not unit-aware fail with UnknownFieldError.
func (a *ArrayAccessor) Get(name string) (any, error) {
	get, ok := a.getters[name]
	if !ok {
		return nil, &UnknownFieldError{Owner: "ArrayAccessor", Field: name, UnitAware: true}
	}
	return get()
}

// Lookup is Get for container-style callers: unknown names fail with
// KeyNotFoundError instead of UnknownFieldError.
func (a *ArrayAccessor) Lookup(name string) (any, error) {
	if _, ok := a.getters[name]; !ok {
		return nil, &KeyNotFoundError{Key: name}
	}
	return a.Get(name)
}

// Float returns a scalar field's magnitude.
func (a *ArrayAccessor) Float(name string) (float64, error) {
	v, err := a.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("ArrayAccessor: field %q is %T, not a scalar", name, v)
	}
	return f, nil
}

// Floats returns a field's magnitudes as a slice. Scalars yield a
// single-element slice; an unset field yields nil.
func (a *ArrayAccessor) Floats(name string) ([]float64, error) {
	v, err := a.Get(name)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return []float64{x}, nil
	case []float64:
		return x, nil
	}
	return nil, fmt.Errorf("ArrayAccessor: field %q is %T", name, v)
}

// Has reports whether name is a unit-aware field of the target.
func (a *ArrayAccessor) Has(name string) bool {
	_, ok := a.getters[name]
	return ok
}

// Target returns the wrapped target.
func (a *ArrayAccessor) Target() Target {
	return a.target
}

// String returns ArrayAccessor(<target>).
func (a *ArrayAccessor) String() string {
	return "ArrayAccessor(" + a.target.String() + ")"
}

// Names returns the unit-aware field names together with the accessor's own
// exported methods, sorted.
func (a *ArrayAccessor) Names() []string {
	names := make([]string, 0, len(a.getters)+len(accessorMethods))
	for name := range a.getters {
		names = append(names, name)
	}
	names = append(names, accessorMethods...)
	slices.Sort(names)
	return slices.Compact(names)
}

// FieldNames returns only the unit-aware field names, sorted.
func (a *ArrayAccessor) FieldNames() []string {
	names := make([]string, 0, len(a.getters))
	for name := range a.getters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var accessorMethods = func() []string {
	t := reflect.TypeOf((*ArrayAccessor)(nil))
	out := make([]string, t.NumMethod())
	for i := range out {
		out[i] = t.Method(i).Name
	}
	return out
}()
