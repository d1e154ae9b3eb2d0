// Package stream reads and writes record streams as newline-delimited JSON.
//
// Each line holds one JSON object, the construction input of one record:
//
//	{"mass": {"value": 1.2, "unit": "Msun"}, "name": "Vega"}
//	{"mass": 0.8, "name": "Sirius B"}
//
// Blank lines are skipped. Line numbers are 1-based and count every line read,
// including skipped ones, so they can be reported back to the user.
package stream

import (
	"encoding/json"
	"fmt"
)

// MaxLineSize is the default maximum length of one line (16 MiB).
const MaxLineSize = 16 * 1024 * 1024

// Row is one decoded line of a stream.
type Row struct {
	Line int             // 1-based line number
	Data json.RawMessage // the JSON object, without the trailing newline
}

// Decode unmarshals the row into v.
func (r *Row) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return &ParseError{Line: r.Line, Reason: err.Error()}
	}
	return nil
}

// ParseError reports a malformed line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("stream: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("stream: %s", e.Reason)
}
