// Package clock describes epigenetic clocks: a coefficient table paired with
// the adjustment that turns its weighted sum into an age.
package clock

import (
	"fmt"

	"github.com/okian/epiclock/internal/domain/coefficient"
)

// Model is an immutable, pre-trained linear clock.
type Model struct {
	// Key is the short identifier used in configuration, e.g. "horvath".
	Key          string
	Name         string
	Coefficients coefficient.Table
	Adjustment   Adjustment
	// Published is the probe count of the published clock, or zero when
	// unknown.
	Published int
}

// New builds a model from an already loaded table.
func New(key, name string, table coefficient.Table, adj Adjustment) *Model {
	return &Model{
		Key:          key,
		Name:         name,
		Coefficients: table,
		Adjustment:   adj,
	}
}

// Partial reports whether the table holds fewer probes than the published
// clock.
func (m *Model) Partial() bool {
	return m.Published > 0 && len(m.Coefficients.Probes()) < m.Published
}

// Intercept returns the model's base offset, if its table has one.
func (m *Model) Intercept() (float32, bool) {
	return m.Coefficients.Intercept()
}

// Weight returns the probe weight, or zero for probes the model ignores.
func (m *Model) Weight(probe string) float32 {
	w, _ := m.Coefficients.Weight(probe)
	return w
}

// Adjust converts an accumulated sum into the reported age.
func (m *Model) Adjust(sum float32) float32 {
	return Apply(m.Adjustment, sum)
}

// Set is an ordered collection of models evaluated together.
type Set []*Model

// Names returns the model names in evaluation order.
func (s Set) Names() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.Name
	}
	return out
}

// Select returns the models whose keys are listed, preserving the set's order.
// An empty selection returns the whole set.
func (s Set) Select(keys ...string) (Set, error) {
	if len(keys) == 0 {
		return s, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := make(Set, 0, len(keys))
	for _, m := range s {
		if want[m.Key] {
			out = append(out, m)
			delete(want, m.Key)
		}
	}
	for k := range want {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, k)
	}
	return out, nil
}
