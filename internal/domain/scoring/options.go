package scoring

import (
	"github.com/okian/epiclock/internal/domain/transform"
	"github.com/okian/epiclock/pkg/logger"
	"github.com/okian/epiclock/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTransform sets the transform applied to every parsed subject value.
func WithTransform(kind transform.Kind, fn transform.Func) Option {
	return func(e *Engine) {
		if fn != nil {
			e.transformKind = kind
			e.transform = fn
		}
	}
}

// WithParallelModels evaluates each model on its own goroutine over a
// buffered copy of the readings.
func WithParallelModels(enabled bool) Option {
	return func(e *Engine) {
		e.parallel = enabled
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records pass statistics on the given manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}
