package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventhub/pkg/eventhub/config"
)

// TestNew verifies Config creation from maps.
func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.Equal(t, "v", config.New(map[string]any{"k": "v"}).String("k", ""))
}

// TestDottedLookup verifies nested sections resolve through dotted keys.
func TestDottedLookup(t *testing.T) {
	cfg := config.New(map[string]any{
		"queue": map[string]any{
			"concurrency": 4,
			"retry": map[string]any{
				"attempts": 2,
			},
		},
		"flat.key": "exact",
		"yaml":     map[any]any{"legacy": true},
	})

	tests := []struct {
		name string
		key  string
		want any
	}{
		{"nested", "queue.concurrency", 4},
		{"deeply nested", "queue.retry.attempts", 2},
		{"exact match wins", "flat.key", "exact"},
		{"map with any keys", "yaml.legacy", true},
		{"missing leaf", "queue.missing", nil},
		{"through a scalar", "queue.concurrency.x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Any(tt.key, nil))
			assert.Equal(t, tt.want != nil, cfg.Has(tt.key))
		})
	}
}

// TestSub verifies section extraction.
func TestSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"queue": map[string]any{"concurrency": 4},
		"name":  "hub",
	})

	assert.Equal(t, 4, cfg.Sub("queue").Int("concurrency", 0))
	assert.Empty(t, cfg.Sub("name").Raw())
	assert.Empty(t, cfg.Sub("missing").Raw())
}

// TestString verifies string extraction with defaults.
func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"exists", map[string]any{"name": "alice"}, "alice"},
		{"missing", map[string]any{"other": "x"}, "default"},
		{"empty string", map[string]any{"name": ""}, ""},
		{"wrong type", map[string]any{"name": 123}, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("name", "default"))
		})
	}
}

// TestDuration verifies duration extraction with various input types.
func TestDuration(t *testing.T) {
	def := 10 * time.Second
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"duration string", "1m30s", 90 * time.Second},
		{"numeric string", "2.5", 2500 * time.Millisecond},
		{"invalid string", "soon", def},
		{"int seconds", 30, 30 * time.Second},
		{"int64 seconds", int64(5), 5 * time.Second},
		{"float seconds", 0.25, 250 * time.Millisecond},
		{"duration", 3 * time.Millisecond, 3 * time.Millisecond},
		{"wrong type", true, def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"d": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("d", def))
		})
	}

	assert.Equal(t, def, config.New(nil).Duration("d", def))
}

// TestBool verifies boolean extraction, including env-style strings.
func TestBool(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"true", true, true},
		{"false", false, false},
		{"string true", "true", true},
		{"string 0", "0", false},
		{"garbage", "maybe", true},
		{"wrong type", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"b": tt.value})
			assert.Equal(t, tt.want, cfg.Bool("b", true))
		})
	}
}

// TestInt verifies integer extraction with conversions.
func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 7, 7},
		{"int64", int64(8), 8},
		{"whole float", 9.0, 9},
		{"fractional float", 9.5, -1},
		{"string", " 12 ", 12},
		{"bad string", "twelve", -1},
		{"wrong type", true, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"n": tt.value})
			assert.Equal(t, tt.want, cfg.Int("n", -1))
		})
	}
}

// TestFloat verifies float extraction with conversions.
func TestFloat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float", 1.5, 1.5},
		{"int", 2, 2},
		{"int64", int64(3), 3},
		{"string", "4.25", 4.25},
		{"bad string", "x", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"f": tt.value})
			assert.InDelta(t, tt.want, cfg.Float("f", -1), 1e-9)
		})
	}
}

// TestStringSlice verifies list extraction.
func TestStringSlice(t *testing.T) {
	def := []string{"default"}
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", "b"}, []string{"a", "b"}},
		{"mixed any slice", []any{"a", 1}, def},
		{"comma separated", "a, b ,c", []string{"a", "b", "c"}},
		{"empty string", "", []string{}},
		{"wrong type", 5, def},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"s": tt.value})
			assert.Equal(t, tt.want, cfg.StringSlice("s", def))
		})
	}
}

// TestFromFile verifies loading by extension.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "hub.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("queue:\n  concurrency: 5\nlog:\n  level: debug\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Int("queue.concurrency", 0))
	assert.Equal(t, "debug", cfg.String("log.level", ""))

	jsonPath := filepath.Join(dir, "hub.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"queue":{"concurrency":6}}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Int("queue.concurrency", 0))

	_, err = config.FromFile(filepath.Join(dir, "hub.toml"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(badPath, []byte("x"), 0o600))
	_, err = config.FromFile(badPath)
	assert.ErrorContains(t, err, "unsupported config file extension")
}

// TestFromYAMLInvalid verifies parse errors surface.
func TestFromYAMLInvalid(t *testing.T) {
	_, err := config.FromYAML([]byte("a: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml")

	_, err = config.FromJSON([]byte("{"))
	assert.ErrorContains(t, err, "parse json")
}

// TestLoad verifies defaults, file, and environment layering.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eventhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue:\n  concurrency: 8\nlog:\n  format: json\n"), 0o600))

	t.Setenv("EVENTHUB_LOG_FORMAT", "text")
	t.Setenv("EVENTHUB_QUEUE_RATE_PER_SECOND", "2.5")

	cfg, err := config.Load(path, "EVENTHUB")
	require.NoError(t, err)

	s := config.SettingsFrom(cfg)
	assert.Equal(t, 8, s.QueueConcurrency, "file overrides default")
	assert.Equal(t, "text", s.LogFormat, "env overrides file")
	assert.InDelta(t, 2.5, s.QueueRatePerSecond, 1e-9)
	assert.Equal(t, "info", s.LogLevel, "default kept")
	assert.Equal(t, 100*time.Millisecond, s.RetryBackoff)
}

// TestLoadWithoutFile verifies env-only loading.
func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("HUBTEST_METRICS_ENABLED", "true")

	cfg, err := config.Load("", "HUBTEST")
	require.NoError(t, err)
	assert.True(t, config.SettingsFrom(cfg).MetricsEnabled)
}

// TestLoadMissingFile verifies a missing file is an error.
func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

// TestSettingsDefaults verifies an empty config yields DefaultSettings.
func TestSettingsDefaults(t *testing.T) {
	s := config.SettingsFrom(config.New(nil))
	assert.Equal(t, config.DefaultSettings(), s)
	assert.NoError(t, s.Validate())
	assert.Nil(t, s.RetryConfig())
	assert.Nil(t, s.RateLimiter())
}

// TestSettingsRoundTripThroughMap verifies Map keys feed SettingsFrom.
func TestSettingsRoundTripThroughMap(t *testing.T) {
	s := config.DefaultSettings()
	s.QueueConcurrency = 9
	s.RetryAttempts = 4
	s.RetryBackoff = time.Second
	s.FailuresPath = "/tmp/f.db"

	assert.Equal(t, s, config.SettingsFrom(config.New(s.Map())))
}

// TestSettingsValidate verifies invalid settings are reported.
func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Settings)
		errMsg string
	}{
		{"bad level", func(s *config.Settings) { s.LogLevel = "loud" }, "invalid log level"},
		{"bad format", func(s *config.Settings) { s.LogFormat = "xml" }, "invalid log format"},
		{"negative rate", func(s *config.Settings) { s.QueueRatePerSecond = -1 }, "invalid queue rate"},
		{"negative backoff", func(s *config.Settings) { s.RetryBackoff = -time.Second }, "invalid retry backoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSettings()
			tt.modify(&s)
			assert.ErrorContains(t, s.Validate(), tt.errMsg)
		})
	}
}

// TestSettingsLogger verifies level and format are applied.
func TestSettingsLogger(t *testing.T) {
	var buf bytes.Buffer
	s := config.DefaultSettings()
	s.LogLevel = "warn"
	s.LogFormat = "json"

	logger := s.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

// TestSettingsRetryAndRate verifies the derived queue policies.
func TestSettingsRetryAndRate(t *testing.T) {
	s := config.DefaultSettings()
	s.RetryAttempts = 3
	s.RetryBackoff = 50 * time.Millisecond
	s.QueueRatePerSecond = 10
	s.QueueBurst = 0

	retry := s.RetryConfig()
	require.NotNil(t, retry)
	assert.Equal(t, 3, retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, retry.InitialBackoff)

	limiter := s.RateLimiter()
	require.NotNil(t, limiter)
	assert.Equal(t, 1, limiter.Burst())
	assert.InDelta(t, 10, float64(limiter.Limit()), 1e-9)
}
