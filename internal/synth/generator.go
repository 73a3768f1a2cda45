// Package synth writes synthetic subject files that cover every probe of a
// model set, for smoke tests and demos.
package synth

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"

	"github.com/okian/epiclock/internal/domain/clock"
	"github.com/okian/epiclock/internal/domain/coefficient"
)

const (
	defaultSeed = 42
	// betaPrecision is the number of decimals written per value.
	betaPrecision = 4
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed sets the pseudo-random seed. Equal seeds produce equal files.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithMissingRatio leaves roughly this share of values empty, exercising the
// masked-value path of the scorer.
func WithMissingRatio(ratio float64) Option {
	return func(g *Generator) {
		if ratio >= 0 && ratio <= 1 {
			g.missing = ratio
		}
	}
}

// WithExtraProbes adds n probes unknown to every model.
func WithExtraProbes(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.extra = n
		}
	}
}

// Generator produces subject rows.
type Generator struct {
	seed    int64
	missing float64
	extra   int
}

// NewGenerator creates a generator with a fixed default seed.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{seed: defaultSeed}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Stats summarizes a generated file.
type Stats struct {
	Rows    int
	Missing int
}

// Write emits one (probe, beta) row per distinct probe across models, in
// lexical probe order, followed by any extra unknown probes.
func (g *Generator) Write(w io.Writer, models clock.Set) (Stats, error) {
	rng := rand.New(rand.NewSource(g.seed)) //nolint:gosec // reproducible synthetic data
	cw := csv.NewWriter(w)

	var st Stats
	write := func(probe string) error {
		val := ""
		if rng.Float64() >= g.missing {
			val = strconv.FormatFloat(rng.Float64(), 'f', betaPrecision, 64)
		} else {
			st.Missing++
		}
		st.Rows++
		return cw.Write([]string{probe, val})
	}

	for _, p := range probes(models) {
		if err := write(p); err != nil {
			return st, fmt.Errorf("writing probe %s: %w", p, err)
		}
	}
	for i := 0; i < g.extra; i++ {
		if err := write(fmt.Sprintf("synthetic%06d", i)); err != nil {
			return st, fmt.Errorf("writing extra probe: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return st, fmt.Errorf("flushing synthetic subject: %w", err)
	}
	return st, nil
}

func probes(models clock.Set) []string {
	seen := make(map[string]struct{})
	for _, m := range models {
		for p := range m.Coefficients {
			if p == coefficient.InterceptKey {
				continue
			}
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
