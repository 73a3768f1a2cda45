// Package coefficient parses the probe weight tables that back each clock.
package coefficient

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// InterceptKey is the reserved pseudo-probe holding a model's base offset.
const InterceptKey = "intercept"

const fieldsPerRow = 2

// Table maps probe identifiers to their regression weight.
// A Table is never mutated after Load returns it.
type Table map[string]float32

// Weight returns the weight of a probe and whether the table knows it.
func (t Table) Weight(probe string) (float32, bool) {
	w, ok := t[probe]
	return w, ok
}

// Intercept returns the intercept entry, if present.
func (t Table) Intercept() (float32, bool) {
	return t.Weight(InterceptKey)
}

// Probes returns the probe identifiers in lexical order, excluding the intercept.
func (t Table) Probes() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		if k == InterceptKey {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load parses a header-free, two column CSV resource of (probe, weight) rows.
func Load(resource []byte) (Table, error) {
	r := csv.NewReader(bytes.NewReader(resource))
	r.FieldsPerRecord = fieldsPerRow
	r.ReuseRecord = true

	t := make(Table)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResourceParse, err)
		}

		line, _ := r.FieldPos(0)
		key := rec[0]
		w, err := strconv.ParseFloat(rec[1], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: weight %q for %s: %w", ErrResourceParse, line, rec[1], key, err)
		}
		if _, dup := t[key]; dup {
			return nil, fmt.Errorf("%w: line %d: %s", ErrDuplicateKey, line, key)
		}
		t[key] = float32(w)
	}
	return t, nil
}

// LoadFile reads and parses a coefficient table from disk.
func LoadFile(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coefficient table %s: %w", path, err)
	}
	t, err := Load(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
