/*
Package config loads settings for processes that host an eventhub router
and task queue.

# Config

Config wraps decoded YAML, JSON, or viper data and extracts typed values,
returning a default whenever a key is missing or holds something
unconvertible. Keys may be dotted paths into nested sections:

	cfg, err := config.FromFile("eventhub.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	workers := cfg.Int("queue.concurrency", 3)
	backoff := cfg.Duration("queue.retry_backoff", 100*time.Millisecond)
	queueCfg := cfg.Sub("queue")

String values are parsed by the numeric, boolean, and duration accessors,
so settings overridden from the environment behave like file values.

# Load

Load layers defaults, an optional file, and environment variables:

	cfg, err := config.Load("eventhub.yaml", "EVENTHUB")
	// EVENTHUB_LOG_LEVEL=debug overrides log.level

# Settings

Settings is the typed form used by the hubfx package to build a logger,
failure sink, router, and queue:

	s := config.SettingsFrom(cfg)
	if err := s.Validate(); err != nil {
	    log.Fatal(err)
	}
	logger := s.Logger(os.Stderr)
*/
package config
