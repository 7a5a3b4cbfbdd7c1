// Package hubfx assembles a router, task queue, failure sink, and logger
// from config.Settings, either as an fx module or directly with New.
package hubfx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"

	"github.com/randalmurphal/eventhub/pkg/eventhub"
	"github.com/randalmurphal/eventhub/pkg/eventhub/config"
	"github.com/randalmurphal/eventhub/pkg/eventhub/diagnostics"
	"github.com/randalmurphal/eventhub/pkg/eventhub/observability"
	"github.com/randalmurphal/eventhub/pkg/eventhub/queue"
)

// Hub bundles the components built from one set of settings.
type Hub struct {
	Logger *slog.Logger
	Sink   diagnostics.Sink
	Router *eventhub.Router
	Queue  *queue.Queue
}

// Close drains the queue, then closes the failure sink.
func (h *Hub) Close(ctx context.Context) error {
	return multierr.Combine(h.Queue.Close(ctx), h.Sink.Close())
}

// Module provides *slog.Logger, observability.MetricsRecorder,
// observability.SpanManager, diagnostics.Sink, *eventhub.Router,
// *queue.Queue, and *Hub. Stopping the app closes the queue and the sink.
func Module(settings config.Settings) fx.Option {
	return fx.Module("eventhub",
		fx.Provide(
			func() (config.Settings, error) {
				if err := settings.Validate(); err != nil {
					return config.Settings{}, fmt.Errorf("eventhub settings: %w", err)
				}
				return settings, nil
			},
			ProvideLogger,
			ProvideMetrics,
			ProvideSpans,
			ProvideSink,
			ProvideRouter,
			ProvideQueue,
			newHub,
		),
		fx.Invoke(registerLifecycle),
	)
}

// WithSlogEvents routes fx's own lifecycle events to the provided logger at
// debug level. Use it alongside Module at the top level of fx.New.
func WithSlogEvents() fx.Option {
	return fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
		l := &fxevent.SlogLogger{Logger: logger}
		l.UseLogLevel(slog.LevelDebug)
		return l
	})
}

// New builds the same components as Module without an fx app. The caller
// must Close the returned Hub.
func New(settings config.Settings) (*Hub, error) {
	return NewWithWriter(settings, os.Stderr)
}

// NewWithWriter is New with logs written to w.
func NewWithWriter(settings config.Settings, w io.Writer) (*Hub, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("eventhub settings: %w", err)
	}

	logger := settings.Logger(w)
	sink, err := ProvideSink(settings)
	if err != nil {
		return nil, err
	}
	metrics := ProvideMetrics(settings)

	return &Hub{
		Logger: logger,
		Sink:   sink,
		Router: ProvideRouter(logger, metrics, sink),
		Queue:  ProvideQueue(settings, logger, metrics, ProvideSpans(settings), sink),
	}, nil
}

// ProvideLogger builds the process logger on stderr.
func ProvideLogger(s config.Settings) *slog.Logger {
	return s.Logger(os.Stderr)
}

// ProvideMetrics returns OTel metrics when enabled, otherwise a no-op recorder.
func ProvideMetrics(s config.Settings) observability.MetricsRecorder {
	if !s.MetricsEnabled {
		return observability.NoopMetrics{}
	}
	return observability.NewMetricsRecorder()
}

// ProvideSpans returns OTel tracing when enabled, otherwise a no-op span manager.
func ProvideSpans(s config.Settings) observability.SpanManager {
	if !s.TracingEnabled {
		return observability.NoopSpanManager{}
	}
	return observability.NewSpanManager()
}

// ProvideSink returns a SQLite-backed sink when FailuresPath is set, with an
// in-memory copy for quick reads, otherwise an in-memory sink alone.
func ProvideSink(s config.Settings) (diagnostics.Sink, error) {
	mem := diagnostics.NewMemorySink(s.FailuresCapacity)
	if s.FailuresPath == "" {
		return mem, nil
	}

	db, err := diagnostics.NewSQLiteSink(s.FailuresPath)
	if err != nil {
		return nil, fmt.Errorf("open failure sink: %w", err)
	}
	return diagnostics.NewMultiSink(db, mem), nil
}

// ProvideRouter builds the router.
func ProvideRouter(logger *slog.Logger, metrics observability.MetricsRecorder, sink diagnostics.Sink) *eventhub.Router {
	return eventhub.New(
		eventhub.WithLogger(logger),
		eventhub.WithMetrics(metrics),
		eventhub.WithFailureSink(sink),
	)
}

// ProvideQueue builds the task queue.
func ProvideQueue(
	s config.Settings,
	logger *slog.Logger,
	metrics observability.MetricsRecorder,
	spans observability.SpanManager,
	sink diagnostics.Sink,
) *queue.Queue {
	opts := []queue.Option{
		queue.WithLogger(logger),
		queue.WithMetrics(metrics),
		queue.WithSpanManager(spans),
		queue.WithFailureSink(sink),
	}
	if retry := s.RetryConfig(); retry != nil {
		opts = append(opts, queue.WithRetry(*retry))
	}
	if limiter := s.RateLimiter(); limiter != nil {
		opts = append(opts, queue.WithRateLimit(limiter))
	}
	return queue.New(s.QueueConcurrency, opts...)
}

type hubParams struct {
	fx.In

	Logger *slog.Logger
	Sink   diagnostics.Sink
	Router *eventhub.Router
	Queue  *queue.Queue
}

func newHub(p hubParams) *Hub {
	return &Hub{Logger: p.Logger, Sink: p.Sink, Router: p.Router, Queue: p.Queue}
}

func registerLifecycle(lc fx.Lifecycle, hub *Hub) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			err := hub.Close(ctx)
			if err != nil {
				hub.Logger.Error("eventhub shutdown", "error", err)
			}
			return err
		},
	})
}
