// Package report renders scoring results for people and machines.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/epiclock/internal/domain/scoring"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Report is the document produced for one subject.
type Report struct {
	RunID  string         `json:"run_id" yaml:"run_id"`
	Input  string         `json:"input" yaml:"input"`
	Result scoring.Result `json:"result" yaml:"result"`
}

// ParseFormat normalizes a format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, s, strings.Join(Formats, ", "))
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, format string, r Report) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(r)
	case FormatYAML:
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(r)
	default:
		return writeText(w, r.Result)
	}
}

// writeText prints one "<name> : <age> years" line per model with names
// padded to a common width.
func writeText(w io.Writer, res scoring.Result) error {
	width := 0
	for _, m := range res.Models {
		width = max(width, len(m.Name))
	}
	for _, m := range res.Models {
		if _, err := fmt.Fprintf(w, "%-*s : %.2f years\n", width, m.Name, m.Age); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll renders several reports. A single report is written as by Write.
// Otherwise JSON and YAML hold a list of reports, and text prefixes each
// block with its input path.
func WriteAll(w io.Writer, format string, reps []Report) error {
	if len(reps) == 1 {
		return Write(w, format, reps[0])
	}
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(reps)
	case FormatYAML:
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(reps)
	}

	for i, r := range reps {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s:\n", r.Input); err != nil {
			return err
		}
		if err := writeText(w, r.Result); err != nil {
			return err
		}
	}
	return nil
}
