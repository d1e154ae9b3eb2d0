package units

import (
	"fmt"
	"slices"
	"sync"

	"gonum.org/v1/gonum/unit"
)

// Physical constants used for astronomical units (IAU 2012/2015 nominal values).
const (
	metersPerAU     = 1.495978707e11
	metersPerParsec = 3.0856775814913673e16
	kgPerSolarMass  = 1.988409870698051e30
	secondsPerYear  = 365.25 * 86400
)

// Dimensionless is the distinguished unit of bare numbers.
var Dimensionless = &Unit{scale: 1, dims: unit.Dimensions{}}

// Base and derived units known to the registry.
var (
	Meter      = MustNew("m", 1, unit.Dimensions{unit.LengthDim: 1})
	Kilometer  = MustNew("km", 1e3, unit.Dimensions{unit.LengthDim: 1})
	Centimeter = MustNew("cm", 1e-2, unit.Dimensions{unit.LengthDim: 1})
	Millimeter = MustNew("mm", 1e-3, unit.Dimensions{unit.LengthDim: 1})
	AU         = MustNew("AU", metersPerAU, unit.Dimensions{unit.LengthDim: 1})
	Parsec     = MustNew("pc", metersPerParsec, unit.Dimensions{unit.LengthDim: 1})
	Kiloparsec = MustNew("kpc", 1e3*metersPerParsec, unit.Dimensions{unit.LengthDim: 1})
	Megaparsec = MustNew("Mpc", 1e6*metersPerParsec, unit.Dimensions{unit.LengthDim: 1})

	Kilogram  = MustNew("kg", 1, unit.Dimensions{unit.MassDim: 1})
	Gram      = MustNew("g", 1e-3, unit.Dimensions{unit.MassDim: 1})
	SolarMass = MustNew("solMass", kgPerSolarMass, unit.Dimensions{unit.MassDim: 1})

	Second = MustNew("s", 1, unit.Dimensions{unit.TimeDim: 1})
	Minute = MustNew("min", 60, unit.Dimensions{unit.TimeDim: 1})
	Hour   = MustNew("h", 3600, unit.Dimensions{unit.TimeDim: 1})
	Day    = MustNew("d", 86400, unit.Dimensions{unit.TimeDim: 1})
	Year   = MustNew("yr", secondsPerYear, unit.Dimensions{unit.TimeDim: 1})

	Kelvin  = MustNew("K", 1, unit.Dimensions{unit.TemperatureDim: 1})
	Ampere  = MustNew("A", 1, unit.Dimensions{unit.CurrentDim: 1})
	Mole    = MustNew("mol", 1, unit.Dimensions{unit.MoleDim: 1})
	Candela = MustNew("cd", 1, unit.Dimensions{unit.LuminousIntensityDim: 1})

	Newton = MustNew("N", 1, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 1, unit.TimeDim: -2})
	Joule  = MustNew("J", 1, unit.Dimensions{unit.MassDim: 1, unit.LengthDim: 2, unit.TimeDim: -2})
)

// Registry maps unit symbols to units. The zero value is not usable; use
// NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	symbols map[string]*Unit
}

// NewRegistry creates a registry preloaded with the package's units.
func NewRegistry() *Registry {
	r := &Registry{symbols: make(map[string]*Unit)}
	for _, u := range []*Unit{
		Meter, Kilometer, Centimeter, Millimeter, Parsec, Kiloparsec, Megaparsec,
		Kilogram, Gram, Second, Minute, Hour, Day, Year,
		Kelvin, Ampere, Mole, Candela, Newton, Joule,
	} {
		r.symbols[u.symbol] = u
	}
	r.symbols["AU"] = AU
	r.symbols["au"] = AU
	r.symbols["solMass"] = SolarMass
	r.symbols["Msun"] = SolarMass
	r.symbols["M_sun"] = SolarMass
	r.symbols["dimensionless"] = Dimensionless
	return r
}

// Register adds u under its symbol and any aliases. Registering a symbol that
// is already bound to a different unit is an error.
func (r *Registry) Register(u *Unit, aliases ...string) error {
	if !u.Valid() || u.symbol == "" {
		return fmt.Errorf("register: invalid unit %v", u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sym := range append([]string{u.symbol}, aliases...) {
		if prev, ok := r.symbols[sym]; ok && !prev.Equal(u) {
			return fmt.Errorf("register: symbol %q already bound to %s", sym, prev.DimensionString())
		}
	}
	for _, sym := range append([]string{u.symbol}, aliases...) {
		r.symbols[sym] = u
	}
	return nil
}

// Lookup returns the unit bound to symbol.
func (r *Registry) Lookup(symbol string) (*Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.symbols[symbol]
	return u, ok
}

// Symbols returns all registered symbols, sorted.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.symbols))
	for s := range r.symbols {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Default is the registry used by Parse and Lookup.
var Default = NewRegistry()

// Lookup returns the unit bound to symbol in the default registry.
func Lookup(symbol string) (*Unit, bool) {
	return Default.Lookup(symbol)
}

// Register adds u to the default registry.
func Register(u *Unit, aliases ...string) error {
	return Default.Register(u, aliases...)
}
