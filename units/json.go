package units

import (
	"encoding/json"
	"fmt"
)

// jsonQuantity is the wire form: {"value": 1.5, "unit": "km / s"}.
// value is a number for scalars and an array for array quantities.
type jsonQuantity struct {
	Value json.RawMessage `json:"value"`
	Unit  string          `json:"unit"`
}

// MarshalJSON implements json.Marshaler.
func (q *Quantity) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(q.Magnitude())
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonQuantity{Value: raw, Unit: q.unit.symbol})
}

// UnmarshalJSON implements json.Unmarshaler. Units are resolved with Parse.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var jq jsonQuantity
	if err := json.Unmarshal(data, &jq); err != nil {
		return err
	}
	if len(jq.Value) == 0 {
		return fmt.Errorf("units: quantity missing value")
	}
	u, err := Parse(jq.Unit)
	if err != nil {
		return err
	}
	var scalar float64
	if err := json.Unmarshal(jq.Value, &scalar); err == nil {
		*q = *Scalar(scalar, u)
		return nil
	}
	var arr []float64
	if err := json.Unmarshal(jq.Value, &arr); err != nil {
		return fmt.Errorf("units: quantity value must be a number or array of numbers: %w", err)
	}
	*q = *Array(arr, u)
	return nil
}
