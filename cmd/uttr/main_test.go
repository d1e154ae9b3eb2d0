package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const bodySchema = `
types:
  - name: Body
    fields:
      - {name: mass, unit: kg}
      - {name: name, optional: true}
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bodies.yaml")
	if err := os.WriteFile(path, []byte(bodySchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("UTTR_LOCALE", "en")
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// ============================================================
// Command Tests
// ============================================================

func TestRun_Usage(t *testing.T) {
	if code, _, stderr := runCLI(t, ""); code != 2 || !strings.Contains(stderr, "Usage:") {
		t.Errorf("no args: code=%d stderr=%q", code, stderr)
	}
	if code, _, stderr := runCLI(t, "", "frobnicate"); code != 2 || !strings.Contains(stderr, "unknown command") {
		t.Errorf("unknown command: code=%d stderr=%q", code, stderr)
	}
	if code, stdout, _ := runCLI(t, "", "version"); code != 0 || stdout != "uttr "+version+"\n" {
		t.Errorf("version: code=%d stdout=%q", code, stdout)
	}
}

func TestRun_Convert(t *testing.T) {
	code, stdout, stderr := runCLI(t, "", "convert", "1500", "g", "kg")
	if code != 0 {
		t.Fatalf("convert failed (%d): %s", code, stderr)
	}
	if stdout != "1.5 kg\n" {
		t.Errorf("stdout = %q, want %q", stdout, "1.5 kg\n")
	}

	if code, _, stderr := runCLI(t, "", "convert", "1", "kg", "m"); code != 1 || !strings.Contains(stderr, "not convertible") {
		t.Errorf("incompatible: code=%d stderr=%q", code, stderr)
	}
	if code, _, _ := runCLI(t, "", "convert", "x", "kg", "g"); code != 1 {
		t.Errorf("bad value: code=%d", code)
	}
	if code, _, _ := runCLI(t, "", "convert", "1", "parsnip", "g"); code != 1 {
		t.Errorf("bad unit: code=%d", code)
	}
}

func TestRun_Units(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "units")
	if code != 0 {
		t.Fatalf("units failed: %d", code)
	}
	for _, sym := range []string{"kpc", "Msun", "km", "dimensionless"} {
		if !strings.Contains(stdout, sym) {
			t.Errorf("units output missing %s", sym)
		}
	}
}

func TestRun_Arrays(t *testing.T) {
	schema := writeSchema(t)
	input := `{"mass": {"value": 1500, "unit": "g"}, "name": "a"}
{"mass": 2}
`
	code, stdout, stderr := runCLI(t, input, "arrays", schema, "Body")
	if code != 0 {
		t.Fatalf("arrays failed (%d): %s", code, stderr)
	}
	want := "{\"mass\":1.5}\n{\"mass\":2}\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestRun_ArraysFromFile(t *testing.T) {
	schema := writeSchema(t)
	data := filepath.Join(t.TempDir(), "rows.ndjson")
	if err := os.WriteFile(data, []byte(`{"mass": 3}`+"\n"), 0o644); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	code, stdout, stderr := runCLI(t, "", "arrays", schema, "Body", data)
	if code != 0 || stdout != "{\"mass\":3}\n" {
		t.Errorf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
}

func TestRun_Check(t *testing.T) {
	schema := writeSchema(t)
	input := `{"mass": {"value": 1500, "unit": "g"}}
{"mass": {"value": 1, "unit": "m"}}
{"weight": 1}
`
	code, stdout, stderr := runCLI(t, input, "check", schema, "Body")
	if code != 1 {
		t.Fatalf("check should fail on invalid rows, got %d", code)
	}
	if stdout != "Body(mass=<Quantity 1500 g>, name=nil)\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "line 2:") || !strings.Contains(stderr, "[incompatible_unit]") {
		t.Errorf("stderr missing line 2 incompatible_unit: %q", stderr)
	}
	if !strings.Contains(stderr, "line 3:") || !strings.Contains(stderr, "[unknown_field]") {
		t.Errorf("stderr missing line 3 unknown_field: %q", stderr)
	}
}

func TestRun_CheckErrors(t *testing.T) {
	schema := writeSchema(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing args", []string{"check", schema}, "usage"},
		{"no schema", []string{"check", filepath.Join(t.TempDir(), "nope.yaml"), "Body"}, "open schema"},
		{"no type", []string{"check", schema, "Planet"}, `no type "Planet"`},
		{"no file", []string{"check", schema, "Body", filepath.Join(t.TempDir(), "nope.ndjson")}, "open file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", tt.args...)
			if code != 1 || !strings.Contains(stderr, tt.want) {
				t.Errorf("code=%d stderr=%q, want containing %q", code, stderr, tt.want)
			}
		})
	}

	code, _, stderr := runCLI(t, "[1]\n", "check", schema, "Body")
	if code != 1 || !strings.Contains(stderr, "line 1") {
		t.Errorf("malformed row: code=%d stderr=%q", code, stderr)
	}
}

func TestRun_Verbose(t *testing.T) {
	schema := writeSchema(t)
	t.Setenv("UTTR_VERBOSE", "true")
	var out, errOut bytes.Buffer
	code := run([]string{"arrays", schema, "Body"}, strings.NewReader(`{"mass": 1}`+"\n"), &out, &errOut)
	if code != 0 {
		t.Fatalf("arrays failed (%d): %s", code, errOut.String())
	}
	if !strings.Contains(errOut.String(), "uttr: loaded schema") || !strings.Contains(errOut.String(), "1 rows read, 0 invalid") {
		t.Errorf("verbose log missing: %q", errOut.String())
	}
}
