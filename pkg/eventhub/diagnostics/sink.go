// Package diagnostics records delivery and task failures for later inspection.
//
// The router reports recovered subscriber panics here, and the task queue
// reports tasks that failed after their retries ran out. Nothing in the
// router reads these records back; they exist for operators and tests.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Failure sources.
const (
	SourceRouter = "router"
	SourceQueue  = "queue"
)

// Failure describes one failed callback or task.
type Failure struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// Source is the component that reported the failure.
	Source string `json:"source"`

	// Subject is the event name or task name involved.
	Subject string `json:"subject"`

	// Message is the panic value or error text.
	Message string `json:"message"`

	// Detail holds a stack trace or other free-form context.
	Detail string `json:"detail,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewFailure creates a Failure stamped with a fresh ID and the current time.
func NewFailure(source, subject string, cause any) *Failure {
	return &Failure{
		ID:         uuid.New().String(),
		Source:     source,
		Subject:    subject,
		Message:    fmt.Sprint(cause),
		OccurredAt: time.Now().UTC(),
	}
}

// WithDetail sets the detail field and returns the failure.
func (f *Failure) WithDetail(detail string) *Failure {
	f.Detail = detail
	return f
}

// Sink stores failures.
// Implementations must be safe for concurrent use.
type Sink interface {
	// Record stores a failure.
	Record(ctx context.Context, f *Failure) error

	// List returns up to limit failures, most recent first.
	// A limit <= 0 returns all of them.
	List(ctx context.Context, limit int) ([]*Failure, error)

	// Count returns the number of stored failures.
	Count(ctx context.Context) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// ErrSinkClosed indicates the sink has been closed.
var ErrSinkClosed = errors.New("diagnostics sink closed")
