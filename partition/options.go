package partition

import (
	"github.com/arloliu/keysplit/internal/logger"
	"github.com/arloliu/keysplit/internal/metrics"
	"github.com/arloliu/keysplit/types"
)

// Option configures a Partitioner or KeyspacePartitioner.
type Option func(*options)

type options struct {
	logger  types.Logger
	metrics types.PlannerMetrics
}

// WithLogger sets a logger.
//
// Parameters:
//   - l: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewPartitioner and NewKeyspacePartitioner
func WithLogger(l types.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - m: PlannerMetrics implementation
//
// Returns:
//   - Option: Functional option for NewPartitioner and NewKeyspacePartitioner
func WithMetrics(m types.PlannerMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func applyOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}

	return o
}
