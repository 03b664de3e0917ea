package worker

import (
	"github.com/okian/beeline/pkg/logger"
)

// Option applies a configuration option to the CycleWorker.
type Option func(*CycleWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *CycleWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *CycleWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
