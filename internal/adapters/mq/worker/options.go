package worker

import (
	"github.com/okian/epiclock/pkg/logger"
	"github.com/okian/epiclock/pkg/metrics"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics records worker activity on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(w *InMemoryWorker) {
		w.metrics = m
	}
}
