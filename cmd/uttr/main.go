// uttr - unit-aware record CLI tool
//
// Usage:
//
//	uttr check <schema.yaml> <Type> [file]   Validate NDJSON rows against a record type
//	uttr arrays <schema.yaml> <Type> [file]  Print unit-aware fields as plain magnitudes
//	uttr convert <value> <from> <to>         Convert a value between units
//	uttr units                               List known unit symbols
//	uttr version                             Print version info
//
// If no file is given, reads from stdin.
//
// Environment:
//
//	UTTR_VERBOSE   log progress to stderr (default: false)
//	UTTR_LOCALE    locale for printed numbers (default: en)
//	UTTR_MAX_LINE  maximum NDJSON line length in bytes (default: 16 MiB)
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Neumenon/uttr/stream"
	"github.com/Neumenon/uttr/units"
	"github.com/Neumenon/uttr/uttr"
)

const version = "0.1.0"

type config struct {
	Verbose bool   `env:"UTTR_VERBOSE" envDefault:"false"`
	Locale  string `env:"UTTR_LOCALE" envDefault:"en"`
	MaxLine int    `env:"UTTR_MAX_LINE" envDefault:"16777216"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries per-invocation state.
type cli struct {
	cfg    config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *log.Logger
	p      *message.Printer
}

// errInvalidRows marks a run that completed but found invalid input rows.
var errInvalidRows = errors.New("invalid rows")

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stderr, "uttr: parse env: %v\n", err)
		return 2
	}
	tag, lerr := language.Parse(cfg.Locale)
	if lerr != nil {
		tag = language.English
	}
	c := &cli{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    log.New(io.Discard, "uttr: ", 0),
		p:      message.NewPrinter(tag),
	}
	if cfg.Verbose {
		c.log.SetOutput(stderr)
	}

	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch cmd := args[0]; cmd {
	case "check":
		err = c.withRows(args[1:], c.check)
	case "arrays":
		err = c.withRows(args[1:], c.arrays)
	case "convert":
		err = c.convert(args[1:])
	case "units":
		err = c.listUnits()
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "uttr %s\n", version)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInvalidRows):
		return 1
	}
	fmt.Fprintf(stderr, "uttr: %v\n", err)
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `uttr - unit-aware record CLI tool

Usage:
  uttr check <schema.yaml> <Type> [file]   Validate NDJSON rows against a record type
  uttr arrays <schema.yaml> <Type> [file]  Print unit-aware fields as plain magnitudes
  uttr convert <value> <from> <to>         Convert a value between units
  uttr units                               List known unit symbols
  uttr version                             Print version info

If no file is given, reads from stdin.

Examples:
  echo '{"mass": {"value": 1500, "unit": "g"}}' | uttr arrays bodies.yaml Body
  # Output: {"mass":1.5}

  uttr convert 1500 g kg
  # Output: 1.5 kg
`)
}

// rowFunc handles one decoded row. A returned error marks the row invalid.
type rowFunc func(typ *uttr.RecordType, row *stream.Row, w *stream.Writer) error

// withRows loads the schema and type named in args, then feeds every input
// row to fn. Row failures are reported and counted; other errors abort.
func (c *cli) withRows(args []string, fn rowFunc) error {
	if len(args) < 2 {
		return errors.New("usage: <schema.yaml> <Type> [file]")
	}
	typ, err := c.loadType(args[0], args[1])
	if err != nil {
		return err
	}

	input := c.stdin
	if len(args) > 2 && args[2] != "-" {
		f, err := os.Open(args[2])
		if err != nil {
			return fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		input = f
	}

	r := stream.NewReader(input, stream.WithMaxLineSize(c.cfg.MaxLine))
	w := stream.NewWriter(c.stdout)
	var total, invalid int
	for {
		row, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		total++
		if err := fn(typ, row, w); err != nil {
			invalid++
			c.reportRow(row.Line, err)
		}
	}

	c.log.Print(c.p.Sprintf("%d rows read, %d invalid", total, invalid))
	if invalid > 0 {
		return errInvalidRows
	}
	return nil
}

func (c *cli) reportRow(line int, err error) {
	if code := uttr.ErrorCode(err); code != "" {
		fmt.Fprintf(c.stderr, "line %d: %v [%s]\n", line, err, code)
		return
	}
	fmt.Fprintf(c.stderr, "line %d: %v\n", line, err)
}

func (c *cli) loadType(path, name string) (*uttr.RecordType, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schema: %w", err)
	}
	defer f.Close()

	schema, err := uttr.LoadSchema(f)
	if err != nil {
		return nil, err
	}
	c.log.Printf("loaded schema %s (%d types, hash %s)", path, len(schema.Types), schema.Hash)

	typ := schema.Type(name)
	if typ == nil {
		return nil, fmt.Errorf("schema %s: no type %q", path, name)
	}
	return typ, nil
}

func newRecord(typ *uttr.RecordType, row *stream.Row) (*uttr.Record, error) {
	values, err := uttr.DecodeValues(row.Data)
	if err != nil {
		return nil, err
	}
	return typ.New(values)
}

// check prints every valid record in its canonical text form.
func (c *cli) check(typ *uttr.RecordType, row *stream.Row, _ *stream.Writer) error {
	rec, err := newRecord(typ, row)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, rec.String())
	return nil
}

// arrays writes one JSON object per record holding the accessor's values.
func (c *cli) arrays(typ *uttr.RecordType, row *stream.Row, w *stream.Writer) error {
	rec, err := newRecord(typ, row)
	if err != nil {
		return err
	}
	acc := rec.Accessor()
	if acc == nil {
		acc = uttr.NewArrayAccessor(rec)
	}
	out := make(map[string]any)
	for _, name := range acc.FieldNames() {
		v, err := acc.Get(name)
		if err != nil {
			return err
		}
		out[name] = v
	}
	return w.WriteRow(out)
}

func (c *cli) convert(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: convert <value> <from> <to>")
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[0])
	}
	from, err := units.Parse(args[1])
	if err != nil {
		return err
	}
	to, err := units.Parse(args[2])
	if err != nil {
		return err
	}
	q, err := units.Scalar(v, from).To(to)
	if err != nil {
		return err
	}
	c.p.Fprintf(c.stdout, "%v %s\n", q.Magnitude(), to)
	return nil
}

func (c *cli) listUnits() error {
	for _, sym := range units.Default.Symbols() {
		u, _ := units.Lookup(sym)
		c.p.Fprintf(c.stdout, "%-14s %-8s %g\n", sym, u.DimensionString(), u.Scale())
	}
	return nil
}
