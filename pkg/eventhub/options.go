package eventhub

import (
	"log/slog"

	"github.com/randalmurphal/eventhub/pkg/eventhub/diagnostics"
	"github.com/randalmurphal/eventhub/pkg/eventhub/observability"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. Default: slog.Default().
// Pass nil to disable logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: observability.NoopMetrics{}.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(r *Router) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithFailureSink records every recovered callback panic in sink.
func WithFailureSink(sink diagnostics.Sink) Option {
	return func(r *Router) {
		r.sink = sink
	}
}

// WithOnCallbackPanic sets a hook called for every recovered callback panic.
func WithOnCallbackPanic(fn func(*CallbackPanicError)) Option {
	return func(r *Router) {
		r.onPanic = fn
	}
}

// SubscribeOption configures a single Subscribe call.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	withLastValue bool
	group         Group
}

// WithLastValue replays the cached payload, if one has been recorded, to the
// callback before it is registered. Cached false, zero, and empty values are
// replayed too.
func WithLastValue() SubscribeOption {
	return func(c *subscribeConfig) {
		c.withLastValue = true
	}
}

// WithGroup appends the new handle to g[name]. A nil group is ignored.
func WithGroup(g Group) SubscribeOption {
	return func(c *subscribeConfig) {
		c.group = g
	}
}
