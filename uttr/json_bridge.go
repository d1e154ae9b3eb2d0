package uttr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Neumenon/uttr/units"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Records travel as flat JSON objects. Quantities use the units wire form
// {"value": 1.5, "unit": "km / s"}; plain numbers and numeric arrays are left
// dimensionless so the field's policy can promote them on construction.

// MarshalRecord encodes a record as a JSON object in field declaration order.
// The accessor is not part of the output.
func MarshalRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.typ.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(asPlain(r.values[i]))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.typ.name, f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeValues parses a JSON object into construction input for
// RecordType.New.
func DecodeValues(data []byte) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("JSON parse error: expected object")
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		cv, err := FromJSONValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = cv
	}
	return out, nil
}

// FromJSONValue converts a decoded JSON value into a field value: quantity
// objects become *units.Quantity, numbers float64, all-numeric arrays
// []float64. Other values pass through with nested elements converted.
func FromJSONValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, nil
	case json.Number:
		return jsonFloat(x)
	case float64:
		return x, nil
	case []any:
		if vals, ok := numericArray(x); ok {
			return vals, nil
		}
		out := make([]any, len(x))
		for i, e := range x {
			cv, err := FromJSONValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case map[string]any:
		if isQuantityObject(x) {
			return quantityFromJSON(x)
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			cv, err := FromJSONValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported JSON value %T", v)
}

func jsonFloat(n json.Number) (float64, error) {
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", n, err)
	}
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("number %q out of range", n)
	}
	return f, nil
}

func numericArray(xs []any) ([]float64, bool) {
	if len(xs) == 0 {
		return nil, false
	}
	out := make([]float64, len(xs))
	for i, e := range xs {
		switch n := e.(type) {
		case json.Number:
			f, err := jsonFloat(n)
			if err != nil {
				return nil, false
			}
			out[i] = f
		case float64:
			out[i] = n
		default:
			return nil, false
		}
	}
	return out, true
}

// isQuantityObject matches exactly {"value": ..., "unit": "<string>"}.
func isQuantityObject(m map[string]any) bool {
	if len(m) != 2 {
		return false
	}
	_, hasValue := m["value"]
	_, isString := m["unit"].(string)
	return hasValue && isString
}

func quantityFromJSON(m map[string]any) (*units.Quantity, error) {
	expr := m["unit"].(string)
	u, err := units.Parse(expr)
	if err != nil {
		return nil, &InvalidUnitError{Unit: expr, Err: err}
	}
	switch v := m["value"].(type) {
	case json.Number:
		f, err := jsonFloat(v)
		if err != nil {
			return nil, err
		}
		return units.Scalar(f, u), nil
	case float64:
		return units.Scalar(v, u), nil
	case []any:
		vals, ok := numericArray(v)
		if !ok {
			return nil, fmt.Errorf("quantity value must be numeric")
		}
		return units.Array(vals, u), nil
	}
	return nil, fmt.Errorf("quantity value must be a number or array, got %T", m["value"])
}
