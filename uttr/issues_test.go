package uttr

import (
	"testing"

	"github.com/Neumenon/uttr/units"
)

// ============================================================
// Regression Tests
// ============================================================

func TestIssue_NilDefault(t *testing.T) {
	typ := Define("Foo").Attr("a", "Msun", WithDefault(nil)).MustBuild()
	foo, err := typ.New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if v := foo.MustGet("a"); v != nil {
		t.Errorf("a = %v, want nil", v)
	}
	v, err := foo.Accessor().Get("a")
	if err != nil {
		t.Fatalf("accessor Get failed: %v", err)
	}
	if v != nil {
		t.Errorf("accessor a = %v, want nil", v)
	}
}

func TestIssue_AsMapOnFrozenRecord(t *testing.T) {
	typ := Define("Foo").
		Attr("x", "kpc").
		Attr("y", "kpc").
		Field("z").
		Frozen().
		MustBuild()

	foo := typ.MustNew(map[string]any{"x": 1, "y": 2, "z": 3})
	got := foo.AsMap()

	want := map[string]*units.Quantity{
		"x": units.Scalar(1, units.Kiloparsec),
		"y": units.Scalar(2, units.Kiloparsec),
	}
	if len(got) != 3 {
		t.Fatalf("AsMap = %v, want 3 keys", got)
	}
	for k, w := range want {
		q, ok := got[k].(*units.Quantity)
		if !ok || !q.Equal(w) {
			t.Errorf("AsMap[%s] = %v, want %v", k, got[k], w)
		}
	}
	if got["z"] != 3 {
		t.Errorf("AsMap[z] = %v, want 3", got["z"])
	}
}

func TestIssue_DefaultThroughAccessorIgnoresOrder(t *testing.T) {
	product := WithDefaultFunc(func(r *Record) (any, error) {
		x, err := r.Accessor().Float("x")
		if err != nil {
			return nil, err
		}
		y, err := r.Accessor().Float("y")
		if err != nil {
			return nil, err
		}
		return x * y, nil
	})

	layouts := map[string]*RecordType{
		"z last": Define("ZLast").
			Attr("x", "kpc").
			Attr("y", "kpc").
			Attr("z", "kpc", NoInit(), product).
			MustBuild(),
		"z first": Define("ZFirst").
			Attr("z", "kpc", NoInit(), product).
			Attr("x", "kpc").
			Attr("y", "kpc").
			MustBuild(),
	}
	for name, typ := range layouts {
		t.Run(name, func(t *testing.T) {
			rec, err := typ.New(map[string]any{"x": 1, "y": 2})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			z, err := rec.Accessor().Float("z")
			if err != nil {
				t.Fatalf("Float failed: %v", err)
			}
			if z != 2 {
				t.Errorf("z = %v, want 2", z)
			}
		})
	}
}
