package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/epiclock/internal/domain/clock"
	"gopkg.in/yaml.v3"
)

// ModelInfo describes one loaded model for the models listing.
type ModelInfo struct {
	Key        string  `json:"key" yaml:"key"`
	Name       string  `json:"name" yaml:"name"`
	Probes     int     `json:"probes" yaml:"probes"`
	Intercept  float32 `json:"intercept" yaml:"intercept"`
	Adjustment string  `json:"adjustment" yaml:"adjustment"`
	Published  int     `json:"published_probes,omitempty" yaml:"published_probes,omitempty"`
	Partial    bool    `json:"partial" yaml:"partial"`
}

// Describe summarizes each model of set. A model without an intercept is
// listed with a zero intercept; scoring reports that case.
func Describe(set clock.Set) []ModelInfo {
	out := make([]ModelInfo, 0, len(set))
	for _, m := range set {
		icpt, _ := m.Intercept()
		out = append(out, ModelInfo{
			Key:        m.Key,
			Name:       m.Name,
			Probes:     len(m.Coefficients.Probes()),
			Intercept:  icpt,
			Adjustment: m.Adjustment.String(),
			Published:  m.Published,
			Partial:    m.Partial(),
		})
	}
	return out
}

// WriteModels renders a models listing to w in the given format.
func WriteModels(w io.Writer, format string, models []ModelInfo) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(models)
	case FormatYAML:
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(models)
	}

	keyWidth, nameWidth := 0, 0
	for _, m := range models {
		keyWidth = max(keyWidth, len(m.Key))
		nameWidth = max(nameWidth, len(m.Name))
	}
	for _, m := range models {
		if _, err := fmt.Fprintf(w, "%-*s  %-*s  %4d probes  intercept %.6f  adjustment %s",
			keyWidth, m.Key, nameWidth, m.Name, m.Probes, m.Intercept, m.Adjustment); err != nil {
			return err
		}
		if m.Partial {
			if _, err := fmt.Fprintf(w, "  partial (%d of %d published probes)", m.Probes, m.Published); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
