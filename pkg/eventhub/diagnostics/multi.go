package diagnostics

import (
	"context"

	"go.uber.org/multierr"
)

// MultiSink fans every record out to several sinks.
// Reads are served by the first sink.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks; nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Record implements Sink. Every sink is attempted even if an earlier one fails.
func (m *MultiSink) Record(ctx context.Context, f *Failure) error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.Record(ctx, f))
	}
	return err
}

// List implements Sink.
func (m *MultiSink) List(ctx context.Context, limit int) ([]*Failure, error) {
	if len(m.sinks) == 0 {
		return nil, nil
	}
	return m.sinks[0].List(ctx, limit)
}

// Count implements Sink.
func (m *MultiSink) Count(ctx context.Context) (int, error) {
	if len(m.sinks) == 0 {
		return 0, nil
	}
	return m.sinks[0].Count(ctx)
}

// Close implements Sink.
func (m *MultiSink) Close() error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}
