// Package service ties the model set, subject input, scoring engine, metrics
// and report together for one epiclock run.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/epiclock/internal/adapters/subject"
	"github.com/okian/epiclock/internal/config"
	"github.com/okian/epiclock/internal/domain/clock"
	"github.com/okian/epiclock/internal/domain/scoring"
	"github.com/okian/epiclock/internal/domain/transform"
	"github.com/okian/epiclock/internal/report"
	"github.com/okian/epiclock/pkg/logger"
	"github.com/okian/epiclock/pkg/metrics"
)

// Service scores subject files against a fixed model set.
type Service struct {
	models clock.Set

	// Scoring configuration
	mValues  bool
	parallel bool

	engine  *scoring.Engine
	metrics *metrics.Manager
	logger  logger.Logger
	newID   func() string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMValues converts subject M-values to beta-values before weighting.
func WithMValues(enabled bool) Option {
	return func(s *Service) {
		s.mValues = enabled
	}
}

// WithParallelModels evaluates each model on its own goroutine.
func WithParallelModels(enabled bool) Option {
	return func(s *Service) {
		s.parallel = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records run statistics on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRunIDFunc overrides run ID generation.
func WithRunIDFunc(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a Service over models. The model set is owned by the caller
// and never mutated.
func New(models clock.Set, opts ...Option) *Service {
	s := &Service{
		models: models,
		logger: logger.Nop(),
		newID:  func() string { return uuid.NewString() },
	}

	for _, opt := range opts {
		opt(s)
	}

	kind, fn := transform.For(s.mValues)
	s.engine = scoring.NewEngine(
		scoring.WithTransform(kind, fn),
		scoring.WithParallelModels(s.parallel),
		scoring.WithLogger(s.logger.Named("scoring")),
		scoring.WithMetrics(s.metrics),
	)

	for _, m := range models {
		probes := len(m.Coefficients.Probes())
		s.metrics.SetTableSize(m.Key, probes)
		if m.Partial() {
			s.logger.Warn(context.Background(), "clock uses a partial coefficient table, ages are approximate",
				logger.String("model", m.Name),
				logger.Int("probes", probes),
				logger.Int("published_probes", m.Published),
				logger.String("hint", "set --coefficients-dir to the full published tables"),
			)
		}
	}
	return s
}

// Models returns the models the service evaluates.
func (s *Service) Models() clock.Set {
	return s.models
}

// ScoreFile opens path and scores it.
func (s *Service) ScoreFile(ctx context.Context, path string) (report.Report, error) {
	r, err := subject.Open(path)
	if err != nil {
		s.metrics.RecordRun(metrics.OutcomeFailure, time.Now())
		return report.Report{}, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			s.logger.Warn(ctx, "closing subject file", logger.String("path", path), logger.Error(cerr))
		}
	}()
	return s.Score(ctx, path, r)
}

// Score runs one pass over src. input names the source in the report.
func (s *Service) Score(ctx context.Context, input string, src scoring.Source) (report.Report, error) {
	id := s.newID()
	s.logger.Debug(ctx, "scoring subject",
		logger.String("run_id", id),
		logger.String("input", input),
		logger.Int("models", len(s.models)),
		logger.Bool("m_values", s.mValues),
	)

	res, err := s.engine.Score(ctx, s.models, src)
	if err != nil {
		s.metrics.RecordRun(metrics.OutcomeFailure, time.Now())
		return report.Report{}, fmt.Errorf("scoring %s: %w", input, err)
	}
	s.metrics.RecordRun(metrics.OutcomeSuccess, time.Now())

	if res.Masked > 0 {
		s.logger.Warn(ctx, "some subject values were empty or unparseable and counted as zero",
			logger.String("run_id", id),
			logger.Int("masked", res.Masked),
			logger.Int("rows", res.Rows),
		)
	}
	for _, m := range res.Models {
		s.logger.Info(ctx, "model evaluated",
			logger.String("run_id", id),
			logger.String("model", m.Name),
			logger.Int("matched_probes", m.Matched),
			logger.Float32("age", m.Age),
		)
	}

	return report.Report{RunID: id, Input: input, Result: res}, nil
}

// LoadModels builds the model set named by cfg: the built-in clocks, read from
// cfg.CoefficientsDir when set, narrowed to cfg.Models.
func LoadModels(cfg *config.Config) (clock.Set, error) {
	set, err := clock.BuiltinFrom(cfg.CoefficientsDir)
	if err != nil {
		return nil, err
	}
	return set.Select(cfg.Models...)
}
