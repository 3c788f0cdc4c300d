// Package dataset reads the labelled transaction CSV replayed by the publisher.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LabelColumn is the ground-truth column removed before publishing.
const LabelColumn = "Class"

// Reader yields dataset rows as feature maps keyed by column name.
type Reader struct {
	csv    *csv.Reader
	header []string
	closer io.Closer
	line   int
}

// Open opens the CSV file at path and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.closer = f

	return r, nil
}

// NewReader reads the header from src and returns a row reader.
func NewReader(src io.Reader) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	return &Reader{csv: cr, header: cols, line: 1}, nil
}

// Next returns the next row without the label column. It returns io.EOF after the last row.
func (r *Reader) Next() (map[string]float64, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("failed to read dataset line %d: %w", r.line+1, err)
	}

	r.line++

	row := make(map[string]float64, len(r.header))
	for i, name := range r.header {
		if name == LabelColumn {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d column %s: %w", r.line, name, err)
		}

		row[name] = v
	}

	return row, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}
