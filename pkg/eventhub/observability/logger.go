// Package observability wraps slog and OpenTelemetry for the router and the
// task queue.
//
// Metrics and tracing use the global OTel providers. Both have no-op
// implementations for when they are disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds a component name to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "router")
//	enriched.Info("ready") // includes component=router
func EnrichLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("component", component))
}

// LogNotify logs a notification and how many subscribers received it.
func LogNotify(logger *slog.Logger, event string, delivered int, hasChannel bool) {
	if logger == nil {
		return
	}
	logger.Debug("event notified",
		slog.String("event", event),
		slog.Int("delivered", delivered),
		slog.Bool("has_channel", hasChannel),
	)
}

// LogSubscribe logs a new subscription.
func LogSubscribe(logger *slog.Logger, event string, subscriptionID uint64, replayed bool) {
	if logger == nil {
		return
	}
	logger.Debug("subscription added",
		slog.String("event", event),
		slog.Uint64("subscription_id", subscriptionID),
		slog.Bool("replayed", replayed),
	)
}

// LogUnsubscribe logs a cancelled subscription.
func LogUnsubscribe(logger *slog.Logger, event string, subscriptionID uint64) {
	if logger == nil {
		return
	}
	logger.Debug("subscription cancelled",
		slog.String("event", event),
		slog.Uint64("subscription_id", subscriptionID),
	)
}

// LogCallbackPanic logs a subscriber callback that panicked during delivery.
func LogCallbackPanic(logger *slog.Logger, event string, subscriptionID uint64, recovered any) {
	if logger == nil {
		return
	}
	logger.Error("subscriber callback panicked",
		slog.String("event", event),
		slog.Uint64("subscription_id", subscriptionID),
		slog.Any("panic", recovered),
	)
}

// LogTaskStart logs a queued task starting.
func LogTaskStart(logger *slog.Logger, taskID, name string) {
	if logger == nil {
		return
	}
	logger.Debug("task starting",
		slog.String("task_id", taskID),
		slog.String("task_name", name),
	)
}

// LogTaskComplete logs successful task completion.
func LogTaskComplete(logger *slog.Logger, taskID string, durationMs float64, attempts int) {
	if logger == nil {
		return
	}
	logger.Debug("task completed",
		slog.String("task_id", taskID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("attempts", attempts),
	)
}

// LogTaskError logs task failure.
func LogTaskError(logger *slog.Logger, taskID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("task failed",
		slog.String("task_id", taskID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogQueueDrain logs the queue becoming idle.
func LogQueueDrain(logger *slog.Logger, processed int64) {
	if logger == nil {
		return
	}
	logger.Debug("queue drained",
		slog.Int64("processed", processed),
	)
}

// LogHookPanic logs a lifecycle hook that panicked (non-fatal).
func LogHookPanic(logger *slog.Logger, hook string, recovered any) {
	if logger == nil {
		return
	}
	logger.Warn("hook panicked",
		slog.String("hook", hook),
		slog.Any("panic", recovered),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
