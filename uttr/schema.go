package uttr

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Schema is a named collection of record types, usually loaded from YAML.
type Schema struct {
	Types map[string]*RecordType // type name → definition
	Hash  string                 // SHA256 of the canonical schema text
}

// SchemaSpec is the YAML document shape accepted by LoadSchema:
//
//	types:
//	  - name: Star
//	    accessor: arr_        # optional; "" disables
//	    frozen: true
//	    fields:
//	      - {name: mass, unit: Msun}
//	      - {name: distance, unit: kpc, optional: true}
//	      - {name: label, default: unnamed}
type SchemaSpec struct {
	Types []TypeSpec `yaml:"types" validate:"required,min=1,unique=Name,dive"`
}

// TypeSpec declares one record type.
type TypeSpec struct {
	Name     string      `yaml:"name" validate:"required"`
	Accessor *string     `yaml:"accessor"`
	Frozen   bool        `yaml:"frozen"`
	Fields   []FieldSpec `yaml:"fields" validate:"required,min=1,unique=Name,dive"`
}

// FieldSpec declares one field. A field with a unit is unit-aware.
type FieldSpec struct {
	Name     string `yaml:"name" validate:"required"`
	Unit     string `yaml:"unit"`
	Optional bool   `yaml:"optional"`
	Default  any    `yaml:"default"`
}

var specValidator = validator.New(validator.WithRequiredStructEnabled())

// LoadSchema reads a YAML schema document.
func LoadSchema(r io.Reader) (*Schema, error) {
	var spec SchemaSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("schema: empty document")
		}
		return nil, fmt.Errorf("schema: %w", err)
	}
	return spec.Build()
}

// ParseSchema is LoadSchema over a byte slice.
func ParseSchema(data []byte) (*Schema, error) {
	return LoadSchema(bytes.NewReader(data))
}

// Build validates the document and assembles its record types.
func (s *SchemaSpec) Build() (*Schema, error) {
	if err := specValidator.Struct(s); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	out := &Schema{Types: make(map[string]*RecordType, len(s.Types))}
	for _, ts := range s.Types {
		fields := make([]*FieldDef, 0, len(ts.Fields))
		for _, fs := range ts.Fields {
			var opts []FieldOption
			if fs.Optional {
				opts = append(opts, WithOptional())
			}
			if fs.Default != nil {
				opts = append(opts, WithDefault(fs.Default))
			}
			fields = append(fields, AttributeOf(fs.Name, fs.Unit, opts...))
		}
		var topts []TypeOption
		if ts.Accessor != nil {
			topts = append(topts, WithAccessorName(*ts.Accessor))
		}
		if ts.Frozen {
			topts = append(topts, WithFrozen())
		}
		t, err := NewRecordType(ts.Name, fields, topts...)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		out.Types[ts.Name] = t
	}
	out.ComputeHash()
	return out, nil
}

// Type returns a record type by name, or nil.
func (s *Schema) Type(name string) *RecordType {
	if s == nil || s.Types == nil {
		return nil
	}
	return s.Types[name]
}

// TypeNames returns the type names, sorted.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ComputeHash computes and sets the schema hash.
func (s *Schema) ComputeHash() string {
	sum := sha256.Sum256([]byte(s.Canonical()))
	s.Hash = hex.EncodeToString(sum[:16]) // first 16 bytes = 32 hex chars
	return s.Hash
}

// Canonical returns the canonical schema text. Types are sorted by name;
// fields keep declaration order.
func (s *Schema) Canonical() string {
	var sb strings.Builder
	sb.WriteString("@schema{\n")
	for _, name := range s.TypeNames() {
		writeRecordType(&sb, s.Types[name])
	}
	sb.WriteString("}")
	return sb.String()
}

func writeRecordType(sb *strings.Builder, t *RecordType) {
	sb.WriteString("  ")
	sb.WriteString(t.name)
	if t.accessor != "" {
		sb.WriteString(" @accessor(")
		sb.WriteString(t.accessor)
		sb.WriteString(")")
	}
	if t.frozen {
		sb.WriteString(" @frozen")
	}
	sb.WriteString(" struct{\n")
	for _, f := range t.fields {
		sb.WriteString("    ")
		sb.WriteString(f.Name)
		if u := f.Unit(); u != nil {
			sb.WriteString(": ")
			sb.WriteString(u.String())
		}
		if f.HasDefault {
			sb.WriteString(" = ")
			writeValue(sb, f.Default)
		}
		if f.Optional {
			sb.WriteString(" [optional]")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  }\n")
}
