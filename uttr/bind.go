package uttr

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Neumenon/uttr/units"
)

var quantityType = reflect.TypeOf((*units.Quantity)(nil))

// StructTarget exposes a Go struct as an accessor Target.
//
// Fields tagged `unit:"<expr>"` must be of type *units.Quantity and become
// unit-aware; other exported fields are plain. The `uttr:"name"` tag renames
// a field, and `uttr:"-"` hides it.
//
//	type Star struct {
//		Mass     *units.Quantity `unit:"Msun"`
//		Distance *units.Quantity `unit:"kpc" uttr:"dist"`
//		Name     string
//	}
//
//	st, _ := uttr.Bind(&star)
//	m, _ := uttr.NewArrayAccessor(st).Float("Mass")
type StructTarget struct {
	v      reflect.Value // addressable struct
	fields []*FieldDef
	index  map[string][]int
}

// Bind reflects over the struct pointed to by ptr. The struct is read live;
// later changes to it are visible through the target.
func Bind(ptr any) (*StructTarget, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bind: expected non-nil pointer to struct, got %T", ptr)
	}
	st := &StructTarget{v: rv.Elem(), index: make(map[string][]int)}
	if err := st.collect(rv.Elem().Type(), nil); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *StructTarget) collect(t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		idx := append(cloneIndex(parent), i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if err := st.collect(sf.Type, idx); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("uttr"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if _, dup := st.index[name]; dup {
			return fmt.Errorf("bind %s: duplicate field %q", st.v.Type(), name)
		}

		var f *FieldDef
		if expr, ok := sf.Tag.Lookup("unit"); ok {
			if sf.Type != quantityType {
				return fmt.Errorf("bind %s.%s: unit tag requires *units.Quantity, got %s", st.v.Type(), sf.Name, sf.Type)
			}
			f = AttributeOf(name, strings.TrimSpace(expr))
			if f.err != nil {
				return fmt.Errorf("bind %s: %w", st.v.Type(), f.err)
			}
			if !f.UnitAware() {
				return fmt.Errorf("bind %s.%s: empty unit tag", st.v.Type(), sf.Name)
			}
		} else {
			f = Field(name)
		}
		st.fields = append(st.fields, f)
		st.index[name] = idx
	}
	return nil
}

func cloneIndex(s []int) []int {
	return append([]int(nil), s...)
}

// Fields implements Target.
func (st *StructTarget) Fields() []*FieldDef {
	return append([]*FieldDef(nil), st.fields...)
}

// Get implements Target. A nil *units.Quantity reads as untyped nil.
func (st *StructTarget) Get(name string) (any, error) {
	idx, ok := st.index[name]
	if !ok {
		return nil, &UnknownFieldError{Owner: st.v.Type().Name(), Field: name}
	}
	fv := st.v.FieldByIndex(idx)
	if fv.Kind() == reflect.Pointer && fv.IsNil() {
		return nil, nil
	}
	return fv.Interface(), nil
}

// Normalize runs every unit-aware field through its converters and
// validators and writes the result back: dimensionless quantities become
// quantities in the canonical unit and incompatible units are reported.
// The struct is left untouched if any field fails.
func (st *StructTarget) Normalize() error {
	updates := make(map[string]any)
	for _, f := range st.fields {
		if !f.UnitAware() {
			continue
		}
		v, _ := st.Get(f.Name)
		out, err := f.process(nil, v)
		if err != nil {
			return err
		}
		updates[f.Name] = out
	}
	for name, v := range updates {
		fv := st.v.FieldByIndex(st.index[name])
		if v == nil {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}
		fv.Set(reflect.ValueOf(v))
	}
	return nil
}

// String renders the struct as TypeName(field=value, ...).
func (st *StructTarget) String() string {
	var sb strings.Builder
	sb.WriteString(st.v.Type().Name())
	sb.WriteByte('(')
	for i, f := range st.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		v, _ := st.Get(f.Name)
		sb.WriteString(FormatValue(v))
	}
	sb.WriteByte(')')
	return sb.String()
}
