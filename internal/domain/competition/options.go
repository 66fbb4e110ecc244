package competition

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/dancefloor/internal/domain/heats"
	"github.com/okian/dancefloor/internal/domain/ledger"
	"github.com/okian/dancefloor/internal/domain/ranking"
	"github.com/okian/dancefloor/pkg/logger"
)

// Option applies a configuration option to the Competition.
type Option func(*Competition)

// WithAllocator replaces the heat allocator.
func WithAllocator(a *heats.Allocator) Option {
	return func(c *Competition) {
		if a != nil {
			c.allocator = a
		}
	}
}

// WithRanker replaces the ranking engine.
func WithRanker(r *ranking.Engine) Option {
	return func(c *Competition) {
		if r != nil {
			c.ranker = r
		}
	}
}

// WithLedger replaces the score ledger.
func WithLedger(l *ledger.Ledger) Option {
	return func(c *Competition) {
		if l != nil {
			c.ledger = l
		}
	}
}

// WithFeed sets where committed snapshots are announced.
func WithFeed(f Feed) Option {
	return func(c *Competition) {
		c.feed = f
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Competition) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer for transition spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Competition) {
		if t != nil {
			c.tracer = t
		}
	}
}
