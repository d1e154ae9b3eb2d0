package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Writer writes rows to an io.Writer, one JSON object per line.
type Writer struct {
	w    io.Writer
	rows int
}

// NewWriter creates a new row writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRow writes v as one line. json.RawMessage and []byte values are
// written as given after compaction; anything else goes through
// json.Marshal. The value must encode to a JSON object.
func (w *Writer) WriteRow(v any) error {
	var data []byte
	switch x := v.(type) {
	case json.RawMessage:
		data = x
	case []byte:
		data = x
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	if buf.Len() == 0 || buf.Bytes()[0] != '{' {
		return fmt.Errorf("encode row: expected a JSON object")
	}
	buf.WriteByte('\n')

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written.
func (w *Writer) Rows() int {
	return w.rows
}
