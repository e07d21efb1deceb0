package keysplit

// Option configures a Planner with optional dependencies.
type Option func(*plannerOptions)

type plannerOptions struct {
	logger  Logger
	metrics MetricsCollector
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewPlanner
//
// Example:
//
//	logger := zap.NewExample().Sugar()
//	planner, err := keysplit.NewPlanner(&cfg, keysplit.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *plannerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewPlanner
//
// Example:
//
//	collector := myPrometheusCollector
//	planner, err := keysplit.NewPlanner(&cfg, keysplit.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *plannerOptions) {
		o.metrics = metrics
	}
}
