// Package uttr adds physical units to record fields.
//
// A unit-aware field declares one canonical unit. Values assigned to it are:
//   - promoted into the canonical unit when they are bare numbers
//   - kept as given when they already carry an equivalent unit
//   - rejected when their unit cannot be converted
//
// Every record with unit-aware fields exposes an ArrayAccessor that reads
// those fields back as plain float64 or []float64 magnitudes in the canonical
// unit, without touching the stored value.
//
// # Declaring Types
//
//	star := uttr.Define("Star").
//		Attr("mass", "Msun").
//		Attr("distance", "kpc", uttr.WithOptional()).
//		Field("name").
//		MustBuild()
//
//	s, err := star.New(map[string]any{
//		"mass": units.Scalar(2e30, units.Kilogram),
//		"name": "Sol",
//	})
//	m, _ := s.Accessor().Float("mass") // ≈ 1.0058
//
// # Pipelines
//
// Each field runs its converters then its validators, in declaration order.
// User converters and validators passed as options always run before the
// unit policy's own stages, so a converter may return a bare number and let
// the policy attach the unit.
//
// # Defaults
//
// Defaults are resolved on demand while a record is built. A default function
// may read any other field, directly or through the accessor, whatever the
// declaration order. Mutual dependencies fail with ErrDefaultCycle.
//
// # Schemas
//
// Record types can be loaded from YAML (see LoadSchema) and hashed over a
// canonical text form:
//
//	@schema{
//	  Star @accessor(arr_) struct{
//	    mass: solMass
//	    distance: kpc [optional]
//	    name
//	  }
//	}
//
// # Go Structs
//
// Bind exposes an ordinary struct as an accessor target using `unit` struct
// tags on *units.Quantity fields.
package uttr
