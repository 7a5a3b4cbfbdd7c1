package queue

import (
	"time"

	"github.com/randalmurphal/eventhub/pkg/eventhub/observability"
)

// TaskInfo describes a task passed to entry and exit hooks.
type TaskInfo struct {
	ID   string
	Name string

	EnqueuedAt time.Time
	StartedAt  time.Time

	// FinishedAt and Attempts are set for exit hooks only.
	FinishedAt time.Time
	Attempts   int
}

// Duration returns how long the task ran. Zero until it has finished.
func (t TaskInfo) Duration() time.Duration {
	if t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// OnEntry registers fn to run on the worker goroutine just before each task starts.
func (q *Queue) OnEntry(fn func(TaskInfo)) {
	if fn == nil {
		return
	}
	q.hooksMu.Lock()
	q.onEntry = append(q.onEntry, fn)
	q.hooksMu.Unlock()
}

// OnExit registers fn to run after each task finishes, with the task's final error.
func (q *Queue) OnExit(fn func(TaskInfo, error)) {
	if fn == nil {
		return
	}
	q.hooksMu.Lock()
	q.onExit = append(q.onExit, fn)
	q.hooksMu.Unlock()
}

// OnDrain registers fn to run each time the queue becomes empty with no
// task running.
func (q *Queue) OnDrain(fn func()) {
	if fn == nil {
		return
	}
	q.hooksMu.Lock()
	q.onDrain = append(q.onDrain, fn)
	q.hooksMu.Unlock()
}

func (q *Queue) fireEntry(info TaskInfo) {
	q.hooksMu.RLock()
	hooks := q.onEntry
	q.hooksMu.RUnlock()

	for _, fn := range hooks {
		q.safeHook("entry", func() { fn(info) })
	}
}

func (q *Queue) fireExit(info TaskInfo, err error) {
	q.hooksMu.RLock()
	hooks := q.onExit
	q.hooksMu.RUnlock()

	for _, fn := range hooks {
		q.safeHook("exit", func() { fn(info, err) })
	}
}

func (q *Queue) fireDrain() {
	q.hooksMu.RLock()
	hooks := q.onDrain
	q.hooksMu.RUnlock()

	for _, fn := range hooks {
		q.safeHook("drain", fn)
	}
}

func (q *Queue) safeHook(kind string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			observability.LogHookPanic(q.logger, kind, rec)
		}
	}()
	fn()
}
