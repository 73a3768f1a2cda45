// Package scoring evaluates a set of clocks against a subject's methylation
// readings in a single pass.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/epiclock/internal/domain/clock"
	"github.com/okian/epiclock/internal/domain/transform"
	"github.com/okian/epiclock/pkg/logger"
	"github.com/okian/epiclock/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Reading is one subject row: a probe and its raw, unparsed value.
type Reading struct {
	Probe string
	Value string
}

// Source yields readings in input order and returns io.EOF once exhausted.
type Source interface {
	Next() (Reading, error)
}

// ModelResult is the outcome of one model.
type ModelResult struct {
	Key  string  `json:"key" yaml:"key"`
	Name string  `json:"name" yaml:"name"`
	Sum  float32 `json:"sum" yaml:"sum"`
	Age  float32 `json:"age" yaml:"age"`

	// Matched counts readings whose probe the model weights.
	Matched int `json:"matched_probes" yaml:"matched_probes"`
}

// Result holds the ages of one pass, in the order the models were given.
type Result struct {
	Models    []ModelResult  `json:"models" yaml:"models"`
	Rows      int            `json:"rows" yaml:"rows"`
	Masked    int            `json:"masked_values" yaml:"masked_values"`
	Transform transform.Kind `json:"transform" yaml:"transform"`
	Duration  time.Duration  `json:"duration_ns" yaml:"duration"`
}

// Ages returns the reported ages in model order.
func (r Result) Ages() []float32 {
	out := make([]float32, len(r.Models))
	for i, m := range r.Models {
		out[i] = m.Age
	}
	return out
}

// Engine runs scoring passes. It holds no per-pass state and can be reused.
type Engine struct {
	transformKind transform.Kind
	transform     transform.Func
	parallel      bool
	logger        logger.Logger
	metrics       *metrics.Manager
}

// NewEngine creates an engine using the identity transform.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		transformKind: transform.KindIdentity,
		transform:     transform.Identity,
		logger:        logger.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// value is a parsed and transformed reading.
type value struct {
	probe string
	v     float32
}

// Score consumes src exactly once and returns one age per model.
//
// Empty or unparseable values count as zero. Errors from src abort the pass.
func (e *Engine) Score(ctx context.Context, models clock.Set, src Source) (Result, error) {
	start := time.Now()
	if len(models) == 0 {
		return Result{}, ErrNoModels
	}

	sums := make([]float32, len(models))
	for i, m := range models {
		ic, ok := m.Intercept()
		if !ok {
			return Result{}, fmt.Errorf("%w: model %s", ErrMissingIntercept, m.Name)
		}
		sums[i] = ic
	}

	res := Result{
		Models:    make([]ModelResult, len(models)),
		Transform: e.transformKind,
	}
	matched := make([]int, len(models))

	var err error
	if e.parallel {
		err = e.scoreParallel(ctx, models, src, sums, matched, &res)
	} else {
		err = e.scoreSequential(ctx, models, src, sums, matched, &res)
	}
	if err != nil {
		return Result{}, err
	}

	for i, m := range models {
		res.Models[i] = ModelResult{
			Key:     m.Key,
			Name:    m.Name,
			Sum:     sums[i],
			Age:     m.Adjust(sums[i]),
			Matched: matched[i],
		}
	}
	res.Duration = time.Since(start)

	e.record(ctx, res)
	return res, nil
}

func (e *Engine) scoreSequential(ctx context.Context, models clock.Set, src Source, sums []float32, matched []int, res *Result) error {
	for {
		rv, ok, err := e.next(ctx, src, res)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		for i, m := range models {
			if w, ok := m.Coefficients.Weight(rv.probe); ok {
				sums[i] += w * rv.v
				matched[i]++
			}
		}
	}
}

// scoreParallel buffers the stream, then gives each model its own goroutine.
// Workers read only the buffer and their model; each writes only its own slot.
func (e *Engine) scoreParallel(ctx context.Context, models clock.Set, src Source, sums []float32, matched []int, res *Result) error {
	var buf []value
	for {
		rv, ok, err := e.next(ctx, src, res)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		buf = append(buf, rv)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range models {
		g.Go(func() error {
			sum, n := sums[i], 0
			for j, rv := range buf {
				if j%cancelCheckInterval == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				if w, ok := m.Coefficients.Weight(rv.probe); ok {
					sum += w * rv.v
					n++
				}
			}
			sums[i], matched[i] = sum, n
			return nil
		})
	}
	return g.Wait()
}

const cancelCheckInterval = 1024

// next reads, parses and transforms one reading. ok is false at end of input.
func (e *Engine) next(ctx context.Context, src Source, res *Result) (value, bool, error) {
	if err := ctx.Err(); err != nil {
		return value{}, false, err
	}
	r, err := src.Next()
	if errors.Is(err, io.EOF) {
		return value{}, false, nil
	}
	if err != nil {
		return value{}, false, err
	}
	res.Rows++

	v, parsed := parseValue(r.Value)
	if !parsed {
		// Masked values contribute zero under every transform.
		res.Masked++
		e.logger.Debug(ctx, "value masked to zero", logger.String("probe", r.Probe), logger.String("value", r.Value))
		return value{probe: r.Probe}, true, nil
	}
	tv, err := e.transform(v)
	if err != nil {
		return value{}, false, fmt.Errorf("probe %s: %w", r.Probe, err)
	}
	return value{probe: r.Probe, v: tv}, true, nil
}

// parseValue parses a subject value, falling back to zero when the field is
// empty or not a number. Sparse panels routinely leave probes unmeasured.
func parseValue(s string) (float32, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

func (e *Engine) record(ctx context.Context, res Result) {
	e.metrics.RecordReadings(res.Rows)
	e.metrics.RecordMasked(res.Masked)
	e.metrics.ObservePass(res.Duration)
	for _, m := range res.Models {
		e.metrics.RecordMatched(m.Key, m.Matched)
		e.metrics.SetAge(m.Key, m.Age)
	}

	e.logger.Debug(ctx, "scoring pass finished",
		logger.Int("rows", res.Rows),
		logger.Int("masked", res.Masked),
		logger.String("transform", string(res.Transform)),
		logger.Duration("duration", res.Duration),
		logger.Bool("parallel", e.parallel),
	)
}
