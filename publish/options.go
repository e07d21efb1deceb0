package publish

import (
	"time"

	"github.com/arloliu/keysplit/types"
)

// Option configures a PlanPublisher.
type Option func(*PlanPublisher)

// WithLogger sets the publisher logger.
func WithLogger(l types.Logger) Option {
	return func(p *PlanPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics collector for published plans.
func WithMetrics(m types.PublishMetrics) Option {
	return func(p *PlanPublisher) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock replaces time.Now for the PublishedAt stamp.
func WithClock(now func() time.Time) Option {
	return func(p *PlanPublisher) {
		if now != nil {
			p.now = now
		}
	}
}
