package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	eherrors "github.com/randalmurphal/eventhub/pkg/eventhub/errors"
)

// Setting keys.
const (
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyQueueConcurrency = "queue.concurrency"
	KeyQueueRate        = "queue.rate_per_second"
	KeyQueueBurst       = "queue.burst"
	KeyRetryAttempts    = "queue.retry_attempts"
	KeyRetryBackoff     = "queue.retry_backoff"
	KeyMetricsEnabled   = "metrics.enabled"
	KeyTracingEnabled   = "tracing.enabled"
	KeyFailuresPath     = "failures.path"
	KeyFailuresCapacity = "failures.capacity"
)

// Settings are the knobs a process hosting a router and task queue exposes.
type Settings struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string

	// QueueConcurrency bounds running tasks. Below one means the queue default.
	QueueConcurrency int

	// QueueRatePerSecond limits task starts. Zero disables limiting.
	QueueRatePerSecond float64

	// QueueBurst is the limiter burst. Below one means one.
	QueueBurst int

	// RetryAttempts is the total attempts per task. One or less disables retry.
	RetryAttempts int

	// RetryBackoff is the wait before the first retry.
	RetryBackoff time.Duration

	MetricsEnabled bool
	TracingEnabled bool

	// FailuresPath is a SQLite file for the failure sink. Empty keeps
	// failures in memory only.
	FailuresPath string

	// FailuresCapacity bounds the in-memory failure sink.
	FailuresCapacity int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:         "info",
		LogFormat:        "text",
		QueueConcurrency: 3,
		QueueBurst:       1,
		RetryAttempts:    1,
		RetryBackoff:     100 * time.Millisecond,
		FailuresCapacity: 1000,
	}
}

// SettingsFrom reads settings from c, using DefaultSettings for anything
// missing or malformed.
func SettingsFrom(c Config) Settings {
	d := DefaultSettings()
	return Settings{
		LogLevel:           strings.ToLower(c.String(KeyLogLevel, d.LogLevel)),
		LogFormat:          strings.ToLower(c.String(KeyLogFormat, d.LogFormat)),
		QueueConcurrency:   c.Int(KeyQueueConcurrency, d.QueueConcurrency),
		QueueRatePerSecond: c.Float(KeyQueueRate, d.QueueRatePerSecond),
		QueueBurst:         c.Int(KeyQueueBurst, d.QueueBurst),
		RetryAttempts:      c.Int(KeyRetryAttempts, d.RetryAttempts),
		RetryBackoff:       c.Duration(KeyRetryBackoff, d.RetryBackoff),
		MetricsEnabled:     c.Bool(KeyMetricsEnabled, d.MetricsEnabled),
		TracingEnabled:     c.Bool(KeyTracingEnabled, d.TracingEnabled),
		FailuresPath:       c.String(KeyFailuresPath, d.FailuresPath),
		FailuresCapacity:   c.Int(KeyFailuresCapacity, d.FailuresCapacity),
	}
}

// Map returns s keyed by the Key constants.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyLogLevel:         s.LogLevel,
		KeyLogFormat:        s.LogFormat,
		KeyQueueConcurrency: s.QueueConcurrency,
		KeyQueueRate:        s.QueueRatePerSecond,
		KeyQueueBurst:       s.QueueBurst,
		KeyRetryAttempts:    s.RetryAttempts,
		KeyRetryBackoff:     s.RetryBackoff.String(),
		KeyMetricsEnabled:   s.MetricsEnabled,
		KeyTracingEnabled:   s.TracingEnabled,
		KeyFailuresPath:     s.FailuresPath,
		KeyFailuresCapacity: s.FailuresCapacity,
	}
}

// Validate reports settings that cannot be used.
func (s Settings) Validate() error {
	if _, err := parseLevel(s.LogLevel); err != nil {
		return err
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", s.LogFormat)
	}
	if s.QueueRatePerSecond < 0 {
		return fmt.Errorf("invalid queue rate %v: must not be negative", s.QueueRatePerSecond)
	}
	if s.RetryBackoff < 0 {
		return fmt.Errorf("invalid retry backoff %s: must not be negative", s.RetryBackoff)
	}
	return nil
}

// Level returns the slog level for LogLevel, defaulting to info.
func (s Settings) Level() slog.Level {
	level, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q", s)
}

// Logger returns a logger writing to w in LogFormat at LogLevel.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.Level()}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RetryConfig returns the task retry policy, or nil when retry is disabled.
func (s Settings) RetryConfig() *eherrors.RetryConfig {
	if s.RetryAttempts <= 1 {
		return nil
	}
	cfg := eherrors.NewRetryConfig(
		eherrors.WithMaxAttempts(s.RetryAttempts),
		eherrors.WithInitialBackoff(s.RetryBackoff),
	)
	return &cfg
}

// RateLimiter returns the task start limiter, or nil when unlimited.
func (s Settings) RateLimiter() *rate.Limiter {
	if s.QueueRatePerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.QueueRatePerSecond), max(s.QueueBurst, 1))
}
