package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Reader reads rows from an io.Reader.
type Reader struct {
	r       *bufio.Reader
	maxLine int
	line    int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxLineSize sets the maximum line length (default: 16 MiB).
func WithMaxLineSize(max int) ReaderOption {
	return func(r *Reader) {
		r.maxLine = max
	}
}

// NewReader creates a new row reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:       bufio.NewReader(r),
		maxLine: MaxLineSize,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// Next reads and returns the next row.
// Returns io.EOF when no more rows are available.
func (r *Reader) Next() (*Row, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' || !json.Valid(line) {
			return nil, &ParseError{Line: r.line, Reason: "expected a JSON object"}
		}
		return &Row{Line: r.line, Data: line}, nil
	}
}

// readLine returns the next line without its terminator. The final line may
// lack a newline.
func (r *Reader) readLine() ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		n := len(buf)
		if err == nil {
			n-- // terminator
		}
		if n > r.maxLine {
			r.line++
			return nil, &ParseError{Line: r.line, Reason: fmt.Sprintf("line too long: > %d bytes", r.maxLine)}
		}
		switch {
		case err == nil:
			r.line++
			return buf[:n], nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return nil, io.EOF
			}
			r.line++
			return buf, nil
		default:
			return nil, fmt.Errorf("read line: %w", err)
		}
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// ReadAll reads all rows until EOF.
func (r *Reader) ReadAll() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}
