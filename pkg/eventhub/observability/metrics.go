package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records eventhub metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNotify records one notify call and the number of callbacks it reached.
	RecordNotify(ctx context.Context, event string, delivered int)

	// RecordCallbackPanic records a subscriber callback that panicked.
	RecordCallbackPanic(ctx context.Context, event string)

	// RecordSubscription records a subscription being added (+1) or removed (-1).
	RecordSubscription(ctx context.Context, event string, delta int64)

	// RecordTask records a queued task finishing with its duration and error status.
	RecordTask(ctx context.Context, name string, duration time.Duration, err error)

	// RecordQueueDepth records tasks entering (+1) or leaving (-1) the queue.
	RecordQueueDepth(ctx context.Context, delta int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	notifications metric.Int64Counter
	deliveries    metric.Int64Counter
	panics        metric.Int64Counter
	subscriptions metric.Int64UpDownCounter
	tasks         metric.Int64Counter
	taskLatency   metric.Float64Histogram
	taskErrors    metric.Int64Counter
	queueDepth    metric.Int64UpDownCounter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventhub")

	notifications, err := meter.Int64Counter("eventhub.notify.count",
		metric.WithDescription("Number of notify calls per event name"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("eventhub.delivery.count",
		metric.WithDescription("Number of callback invocations caused by notify"),
	)
	if err != nil {
		return nil, err
	}

	panics, err := meter.Int64Counter("eventhub.callback.panics",
		metric.WithDescription("Number of subscriber callbacks that panicked"),
	)
	if err != nil {
		return nil, err
	}

	subscriptions, err := meter.Int64UpDownCounter("eventhub.subscriptions.active",
		metric.WithDescription("Number of active subscriptions"),
	)
	if err != nil {
		return nil, err
	}

	tasks, err := meter.Int64Counter("eventhub.task.count",
		metric.WithDescription("Number of queued tasks executed"),
	)
	if err != nil {
		return nil, err
	}

	taskLatency, err := meter.Float64Histogram("eventhub.task.latency_ms",
		metric.WithDescription("Queued task latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	taskErrors, err := meter.Int64Counter("eventhub.task.errors",
		metric.WithDescription("Number of queued tasks that failed"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64UpDownCounter("eventhub.queue.depth",
		metric.WithDescription("Number of tasks waiting to start"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		notifications: notifications,
		deliveries:    deliveries,
		panics:        panics,
		subscriptions: subscriptions,
		tasks:         tasks,
		taskLatency:   taskLatency,
		taskErrors:    taskErrors,
		queueDepth:    queueDepth,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordNotify records a notify call.
func (m *otelMetrics) RecordNotify(ctx context.Context, event string, delivered int) {
	attrs := metric.WithAttributes(attribute.String("event", event))
	m.notifications.Add(ctx, 1, attrs)
	if delivered > 0 {
		m.deliveries.Add(ctx, int64(delivered), attrs)
	}
}

// RecordCallbackPanic records a panicking callback.
func (m *otelMetrics) RecordCallbackPanic(ctx context.Context, event string) {
	m.panics.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordSubscription records a subscription change.
func (m *otelMetrics) RecordSubscription(ctx context.Context, event string, delta int64) {
	m.subscriptions.Add(ctx, delta, metric.WithAttributes(attribute.String("event", event)))
}

// RecordTask records a finished task.
func (m *otelMetrics) RecordTask(ctx context.Context, name string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("task_name", name))

	m.tasks.Add(ctx, 1, attrs)
	m.taskLatency.Record(ctx, float64(duration.Milliseconds()), attrs)

	if err != nil {
		m.taskErrors.Add(ctx, 1, attrs)
	}
}

// RecordQueueDepth records a queue depth change.
func (m *otelMetrics) RecordQueueDepth(ctx context.Context, delta int64) {
	m.queueDepth.Add(ctx, delta)
}
