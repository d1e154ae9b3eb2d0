package units

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/unit"
)

// ============================================================
// Unit Tests
// ============================================================

func TestUnit_ConvertibleTo(t *testing.T) {
	tests := []struct {
		name string
		a, b *Unit
		want bool
	}{
		{"kg-g", Kilogram, Gram, true},
		{"kg-solMass", Kilogram, SolarMass, true},
		{"kg-m", Kilogram, Meter, false},
		{"kpc-km", Kiloparsec, Kilometer, true},
		{"N-composite", Newton, Kilogram.Mul(Meter).Div(Second.Pow(2)), true},
		{"dimensionless-kg", Dimensionless, Kilogram, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.ConvertibleTo(tt.b); got != tt.want {
				t.Errorf("ConvertibleTo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnit_Factor(t *testing.T) {
	f, err := Gram.Factor(Kilogram)
	if err != nil {
		t.Fatalf("Factor failed: %v", err)
	}
	if f != 0.001 {
		t.Errorf("g->kg factor = %v, want 0.001", f)
	}

	_, err = Gram.Factor(Meter)
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	var ce *ConversionError
	if !errors.As(err, &ce) || ce.From != Gram || ce.To != Meter {
		t.Errorf("unexpected conversion error: %#v", err)
	}
}

func TestConversionError_NilUnit(t *testing.T) {
	_, err := new(Quantity).To(Kilogram)
	if !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion, got %v", err)
	}
	want := `units: "<nil>" (<nil>) and "kg" (kg) are not convertible`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUnit_Equal(t *testing.T) {
	if !Kilogram.Equal(Gram.Mul(MustNew("k", 1000, nil))) {
		t.Error("1000 g should equal kg")
	}
	if Kilogram.Equal(Gram) {
		t.Error("kg should not equal g")
	}
	if !Dimensionless.Equal(Kilogram.Div(Kilogram)) {
		t.Error("kg/kg should equal dimensionless")
	}
}

func TestUnit_Dimensions(t *testing.T) {
	kms := Kilometer.Div(Second)
	dims := kms.Dimensions()
	if dims[unit.LengthDim] != 1 || dims[unit.TimeDim] != -1 {
		t.Errorf("km/s dims = %v", dims)
	}
	if kms.Symbol() != "km / s" {
		t.Errorf("symbol = %q, want %q", kms.Symbol(), "km / s")
	}
	if kms.Scale() != 1000 {
		t.Errorf("scale = %v, want 1000", kms.Scale())
	}

	// Mutating the returned map must not affect the unit.
	dims[unit.MassDim] = 3
	if _, ok := kms.Dimensions()[unit.MassDim]; ok {
		t.Error("Dimensions leaked internal map")
	}
}

func TestUnit_Valid(t *testing.T) {
	var nilUnit *Unit
	if nilUnit.Valid() {
		t.Error("nil unit should be invalid")
	}
	if (&Unit{}).Valid() {
		t.Error("zero unit should be invalid")
	}
	if _, err := New("bad", -1, nil); err == nil {
		t.Error("expected error for negative scale")
	}
	if !Kelvin.Valid() {
		t.Error("K should be valid")
	}
}

func TestUnit_String(t *testing.T) {
	if Dimensionless.String() != "dimensionless" {
		t.Errorf("got %q", Dimensionless.String())
	}
	if Kilogram.String() != "kg" {
		t.Errorf("got %q", Kilogram.String())
	}
}

// ============================================================
// Registry / Parse Tests
// ============================================================

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want *Unit
		sym  string
	}{
		{"kg", Kilogram, "kg"},
		{"Msun", SolarMass, "solMass"},
		{"", Dimensionless, ""},
		{"km / s", Kilometer.Div(Second), "km / s"},
		{"km/s", Kilometer.Div(Second), "km / s"},
		{"kg m / s^2", Newton, "kg m / s^2"},
		{"kg*m/s**2", Newton, "kg*m / s^2"},
		{"(km / s)^2", Kilometer.Div(Second).Pow(2), "(km / s)^2"},
		{"1 / s", Second.Pow(-1), "1 / s"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			u, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !u.Equal(tt.want) {
				t.Errorf("Parse(%q) = %s (%s), want %s", tt.expr, u, u.DimensionString(), tt.want)
			}
			if u.Symbol() != tt.sym {
				t.Errorf("symbol = %q, want %q", u.Symbol(), tt.sym)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"furlong", "kg /", "(kg", "kg^x", "kg )"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	lyr := MustNew("lyr", 9.4607304725808e15, unit.Dimensions{unit.LengthDim: 1})
	if err := r.Register(lyr, "ly"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	u, err := r.Parse("ly / yr")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !u.ConvertibleTo(Meter.Div(Second)) {
		t.Errorf("ly/yr should be a speed, got %s", u.DimensionString())
	}

	if err := r.Register(MustNew("kg", 2, unit.Dimensions{unit.MassDim: 1})); err == nil {
		t.Error("expected conflict when rebinding kg")
	}
	if _, ok := Default.Lookup("lyr"); ok {
		t.Error("private registry leaked into Default")
	}
}

// ============================================================
// Quantity Tests
// ============================================================

func TestQuantity_To(t *testing.T) {
	q := Array([]float64{1, 2, 3}, Gram)
	kg, err := q.To(Kilogram)
	if err != nil {
		t.Fatalf("To failed: %v", err)
	}
	want := []float64{0.001, 0.002, 0.003}
	got := kg.Values()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if q.Values()[0] != 1 {
		t.Error("To mutated the source quantity")
	}

	if _, err := q.To(Meter); !errors.Is(err, ErrConversion) {
		t.Errorf("expected ErrConversion, got %v", err)
	}
}

func TestQuantity_ValueIn(t *testing.T) {
	v, err := Scalar(1000, Gram).ValueIn(Kilogram)
	if err != nil {
		t.Fatalf("ValueIn failed: %v", err)
	}
	if v != 1.0 {
		t.Errorf("1000 g in kg = %v, want 1", v)
	}

	arr, err := Array([]float64{1}, Kilogram).ValueIn(Kilogram)
	if err != nil {
		t.Fatalf("ValueIn failed: %v", err)
	}
	if _, ok := arr.([]float64); !ok {
		t.Errorf("array quantity should yield []float64, got %T", arr)
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		scalar bool
		want   []float64
	}{
		{"int", 1, true, []float64{1}},
		{"float32", float32(2.5), true, []float64{2.5}},
		{"ints", []int{1, 2, 3}, false, []float64{1, 2, 3}},
		{"anys", []any{1.0, 2}, false, []float64{1, 2}},
		{"array", [2]float64{4, 5}, false, []float64{4, 5}},
		{"dimensionless quantity", Scalar(7, Dimensionless), true, []float64{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Promote(tt.in, Kilogram)
			if err != nil {
				t.Fatalf("Promote failed: %v", err)
			}
			if q.Unit() != Kilogram || q.IsScalar() != tt.scalar {
				t.Errorf("got %s scalar=%v", q, q.IsScalar())
			}
			if !q.Equal(&Quantity{values: tt.want, scalar: tt.scalar, unit: Kilogram}) {
				t.Errorf("got %s, want %v", q, tt.want)
			}
		})
	}
}

func TestPromote_NotNumeric(t *testing.T) {
	for _, in := range []any{"foo", true, nil, []any{"a"}, map[string]int{}} {
		if _, err := Promote(in, Kilogram); !errors.Is(err, ErrNotNumeric) {
			t.Errorf("Promote(%#v): expected ErrNotNumeric, got %v", in, err)
		}
	}
	if _, err := Promote(Scalar(1, Meter), Kilogram); err == nil {
		t.Error("promoting a dimensioned quantity should fail")
	}
}

func TestQuantity_EqualApprox(t *testing.T) {
	a := Scalar(1, Kilogram)
	b := Scalar(1000, Gram)
	if !a.EqualApprox(b, 1e-12) {
		t.Error("1 kg should approximately equal 1000 g")
	}
	if a.EqualApprox(Scalar(1, Meter), 1e-12) {
		t.Error("kg and m are never equal")
	}
}

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		q    *Quantity
		want string
	}{
		{Scalar(1, Kilogram), "<Quantity 1 kg>"},
		{Array([]float64{1, 2.5}, Kilometer.Div(Second)), "<Quantity [1 2.5] km / s>"},
		{Scalar(3, nil), "<Quantity 3>"},
		{Scalar(1e30, SolarMass), "<Quantity 1e+30 solMass>"},
	}
	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	if FormatFloat(math.Copysign(0, -1)) != "0" {
		t.Error("-0 should format as 0")
	}
	if FormatFloat(0.001) != "0.001" {
		t.Errorf("got %q", FormatFloat(0.001))
	}
}

// ============================================================
// JSON Tests
// ============================================================

func TestQuantity_JSON(t *testing.T) {
	data, err := json.Marshal(Array([]float64{1, 2}, Kilometer.Div(Second)))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"value":[1,2],"unit":"km / s"}` {
		t.Errorf("got %s", data)
	}

	var q Quantity
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !q.Equal(Array([]float64{1, 2}, Kilometer.Div(Second))) {
		t.Errorf("got %s", &q)
	}

	if err := json.Unmarshal([]byte(`{"value":1,"unit":"g"}`), &q); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !q.IsScalar() || q.Unit() != Gram {
		t.Errorf("got %s", &q)
	}

	if err := json.Unmarshal([]byte(`{"value":"x","unit":"g"}`), &q); err == nil {
		t.Error("expected error for non-numeric value")
	}
	if err := json.Unmarshal([]byte(`{"value":1,"unit":"parsnip"}`), &q); err == nil {
		t.Error("expected error for unknown unit")
	}
}
