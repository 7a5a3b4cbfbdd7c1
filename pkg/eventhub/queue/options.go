package queue

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/randalmurphal/eventhub/pkg/eventhub/diagnostics"
	eherrors "github.com/randalmurphal/eventhub/pkg/eventhub/errors"
	"github.com/randalmurphal/eventhub/pkg/eventhub/observability"
)

// DefaultConcurrency is used when New is given a concurrency below one.
const DefaultConcurrency = 3

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger. Default: slog.Default().
// Pass nil to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: observability.NoopMetrics{}.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(q *Queue) {
		if m != nil {
			q.metrics = m
		}
	}
}

// WithSpanManager sets the span manager. Default: observability.NoopSpanManager{}.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(q *Queue) {
		if sm != nil {
			q.spans = sm
		}
	}
}

// WithRetry retries transient task failures according to cfg.
func WithRetry(cfg eherrors.RetryConfig) Option {
	return func(q *Queue) {
		q.retry = &cfg
	}
}

// WithRateLimit waits on limiter before starting each task.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(q *Queue) {
		q.limiter = limiter
	}
}

// WithFailureSink records every task that finishes with an error.
func WithFailureSink(sink diagnostics.Sink) Option {
	return func(q *Queue) {
		q.sink = sink
	}
}
