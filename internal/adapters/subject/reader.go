// Package subject reads a subject's per-probe methylation values from a
// header-free CSV file of (probe, value) rows.
package subject

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/okian/epiclock/internal/domain/scoring"
)

const (
	probeField = 0
	// valueField is the only subject column consumed; further columns are ignored.
	valueField = 1
	minFields  = valueField + 1
	gzipSuffix = ".gz"
)

// Reader streams readings from CSV input. It implements scoring.Source.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	rows   int
}

var _ scoring.Source = (*Reader)(nil)

// NewReader wraps r. Every row must have the field count of the first row,
// and at least two fields. Lines starting with '#' are skipped. A stray quote
// inside an unquoted field is kept as literal text, so a value like `0.5"`
// reaches scoring as an unparseable value rather than a malformed row.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Open opens a subject file, transparently decompressing paths ending in .gz.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}
	if !strings.HasSuffix(path, gzipSuffix) {
		r := NewReader(f)
		r.closer = f
		return r, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrInputAccess, path, err)
	}
	r := NewReader(zr)
	r.closer = multiCloser{zr, f}
	return r, nil
}

// Next returns the next reading, or io.EOF at end of input.
func (r *Reader) Next() (scoring.Reading, error) {
	rec, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return scoring.Reading{}, io.EOF
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return scoring.Reading{}, fmt.Errorf("%w: %w", ErrInputRowParse, err)
		}
		return scoring.Reading{}, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}
	r.rows++
	if len(rec) < minFields {
		line, _ := r.csv.FieldPos(0)
		return scoring.Reading{}, fmt.Errorf("%w: line %d: expected at least %d fields, got %d", ErrInputRowParse, line, minFields, len(rec))
	}
	return scoring.Reading{Probe: rec[probeField], Value: rec[valueField]}, nil
}

// Rows returns the number of rows read so far.
func (r *Reader) Rows() int {
	return r.rows
}

// Close releases the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
