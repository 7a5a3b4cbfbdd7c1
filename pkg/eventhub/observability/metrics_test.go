package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the int64 sum data point value whose attribute key equals val.
func sumFor(t *testing.T, m *metricdata.Metrics, key, val string) (int64, bool) {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	for _, dp := range sum.DataPoints {
		for _, attr := range dp.Attributes.ToSlice() {
			if string(attr.Key) == key && attr.Value.AsString() == val {
				return dp.Value, true
			}
		}
	}
	return 0, false
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordNotify(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNotify(ctx, "temp", 2)
	m.RecordNotify(ctx, "temp", 0)

	rm := collectMetrics(t, reader)

	notifies := findMetric(rm, "eventhub.notify.count")
	require.NotNil(t, notifies)
	v, found := sumFor(t, notifies, "event", "temp")
	require.True(t, found)
	assert.Equal(t, int64(2), v)

	deliveries := findMetric(rm, "eventhub.delivery.count")
	require.NotNil(t, deliveries)
	v, found = sumFor(t, deliveries, "event", "temp")
	require.True(t, found)
	assert.Equal(t, int64(2), v)
}

func TestRecordCallbackPanic(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordCallbackPanic(context.Background(), "ready")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "eventhub.callback.panics")
	require.NotNil(t, metric)
	v, found := sumFor(t, metric, "event", "ready")
	require.True(t, found)
	assert.Equal(t, int64(1), v)
}

func TestRecordSubscription(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSubscription(ctx, "temp", 1)
	m.RecordSubscription(ctx, "temp", 1)
	m.RecordSubscription(ctx, "temp", -1)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "eventhub.subscriptions.active")
	require.NotNil(t, metric)
	v, found := sumFor(t, metric, "event", "temp")
	require.True(t, found)
	assert.Equal(t, int64(1), v)
}

func TestRecordTask(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records count and latency", func(t *testing.T) {
		m.RecordTask(ctx, "resize", 40*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		count := findMetric(rm, "eventhub.task.count")
		require.NotNil(t, count)
		v, found := sumFor(t, count, "task_name", "resize")
		require.True(t, found)
		assert.GreaterOrEqual(t, v, int64(1))

		latency := findMetric(rm, "eventhub.task.latency_ms")
		require.NotNil(t, latency)
		hist, ok := latency.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})

	t.Run("records errors when present", func(t *testing.T) {
		m.RecordTask(ctx, "upload", time.Millisecond, errors.New("network"))

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "eventhub.task.errors")
		require.NotNil(t, metric)
		v, found := sumFor(t, metric, "task_name", "upload")
		require.True(t, found)
		assert.Equal(t, int64(1), v)
	})
}

func TestRecordQueueDepth(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordQueueDepth(ctx, 3)
	m.RecordQueueDepth(ctx, -1)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "eventhub.queue.depth")
	require.NotNil(t, metric)
	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}
