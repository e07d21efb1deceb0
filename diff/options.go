package diff

import "github.com/arloliu/keysplit/types"

// Option configures a DatasetDiff.
type Option func(*options)

type options struct {
	logger  types.Logger
	metrics types.DiffMetrics
}

// WithLogger sets a logger.
func WithLogger(l types.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets a metrics collector.
func WithMetrics(m types.DiffMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
