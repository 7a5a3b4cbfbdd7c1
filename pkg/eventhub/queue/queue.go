package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/randalmurphal/eventhub/pkg/eventhub/diagnostics"
	eherrors "github.com/randalmurphal/eventhub/pkg/eventhub/errors"
	"github.com/randalmurphal/eventhub/pkg/eventhub/observability"
	"github.com/randalmurphal/eventhub/pkg/eventhub/util"
)

// ErrClosed is returned by TryPush after Close has been called.
var ErrClosed = errors.New("queue closed")

// Task is a unit of work. The context is cancelled when the queue is
// closed before the task finishes.
type Task func(ctx context.Context) error

type item struct {
	id       string
	name     string
	task     Task
	enqueued time.Time
}

// Queue runs tasks in FIFO start order with bounded concurrency.
type Queue struct {
	concurrency int
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	retry       *eherrors.RetryConfig
	limiter     *rate.Limiter
	sink        diagnostics.Sink

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	pending []*item
	running int
	closed  bool
	idle    chan struct{} // closed while nothing is pending or running

	hooksMu sync.RWMutex
	onEntry []func(TaskInfo)
	onExit  []func(TaskInfo, error)
	onDrain []func()

	processed atomic.Int64
}

// New creates a queue running up to concurrency tasks at once and starts
// its dispatcher. A concurrency below one means DefaultConcurrency.
// Call Close to release the dispatcher.
func New(concurrency int, opts ...Option) *Queue {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	idle := make(chan struct{})
	close(idle)

	q := &Queue{
		concurrency: concurrency,
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		sem:         semaphore.NewWeighted(int64(concurrency)),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		idle:        idle,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = observability.EnrichLogger(q.logger, "queue")
	q.ctx, q.cancel = context.WithCancel(context.Background())

	go q.dispatch()
	return q
}

// Concurrency returns the maximum number of tasks run at once.
func (q *Queue) Concurrency() int {
	return q.concurrency
}

// Push enqueues task and returns its ID. After Close, the task is dropped,
// a warning is logged, and the returned ID is empty.
func (q *Queue) Push(task Task) string {
	return q.PushNamed("", task)
}

// PushNamed is Push with a name used in logs, spans, metrics, and hooks.
func (q *Queue) PushNamed(name string, task Task) string {
	id, err := q.TryPushNamed(name, task)
	if err != nil && q.logger != nil {
		q.logger.Warn("task dropped", "name", name, "error", err)
	}
	return id
}

// TryPush is Push that reports ErrClosed instead of logging.
func (q *Queue) TryPush(task Task) (string, error) {
	return q.TryPushNamed("", task)
}

// TryPushNamed is PushNamed that reports ErrClosed instead of logging.
func (q *Queue) TryPushNamed(name string, task Task) (string, error) {
	if task == nil {
		return "", errors.New("nil task")
	}

	it := &item{
		id:       util.NewShortID("task"),
		name:     name,
		task:     task,
		enqueued: time.Now(),
	}
	if it.name == "" {
		it.name = it.id
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", ErrClosed
	}
	if q.isIdleLocked() {
		q.idle = make(chan struct{})
	}
	q.pending = append(q.pending, it)
	q.mu.Unlock()

	q.metrics.RecordQueueDepth(context.Background(), 1)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return it.id, nil
}

// Len returns the number of tasks waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Running returns the number of tasks that have left the queue and not yet
// finished.
func (q *Queue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Processed returns the number of tasks that have finished, successfully or not.
func (q *Queue) Processed() int64 {
	return q.processed.Load()
}

// Wait blocks until nothing is pending or running, or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 && q.running == 0 {
			q.mu.Unlock()
			return nil
		}
		idle := q.idle
		q.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting tasks and waits for queued and running tasks to
// finish. If ctx ends first, running tasks have their contexts cancelled,
// tasks that never started are discarded, and Close returns without waiting
// for the cancelled tasks to return.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	waitErr := q.Wait(ctx)

	q.cancel()
	<-q.done

	var discardErr error
	q.mu.Lock()
	discarded := len(q.pending)
	q.pending = nil
	drained := discarded > 0 && q.markIdleLocked()
	q.mu.Unlock()

	if discarded > 0 {
		q.metrics.RecordQueueDepth(context.Background(), -int64(discarded))
		discardErr = fmt.Errorf("%d queued tasks discarded", discarded)
	}
	if drained {
		q.fireDrain()
	}

	if err := multierr.Combine(waitErr, discardErr); err != nil {
		return fmt.Errorf("close queue: %w", err)
	}
	return nil
}

// dispatch starts tasks in FIFO order as semaphore slots free up.
func (q *Queue) dispatch() {
	defer close(q.done)

	for {
		if err := q.sem.Acquire(q.ctx, 1); err != nil {
			return
		}

		it, ok := q.take()
		if !ok {
			q.sem.Release(1)
			return
		}

		if q.limiter != nil {
			if err := q.limiter.Wait(q.ctx); err != nil {
				q.putBack(it)
				q.sem.Release(1)
				return
			}
		}

		go q.run(it)
	}
}

// take pops the oldest pending task, blocking until one exists or the queue
// shuts down. The task counts as running from here on.
func (q *Queue) take() (*item, bool) {
	for {
		if q.ctx.Err() != nil {
			return nil, false
		}

		q.mu.Lock()
		if len(q.pending) > 0 {
			it := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.running++
			q.mu.Unlock()

			q.metrics.RecordQueueDepth(context.Background(), -1)
			return it, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.ctx.Done():
			return nil, false
		}
	}
}

func (q *Queue) putBack(it *item) {
	q.mu.Lock()
	q.pending = append([]*item{it}, q.pending...)
	q.running--
	q.mu.Unlock()
	q.metrics.RecordQueueDepth(context.Background(), 1)
}

func (q *Queue) run(it *item) {
	defer q.sem.Release(1)

	info := TaskInfo{
		ID:         it.id,
		Name:       it.name,
		EnqueuedAt: it.enqueued,
		StartedAt:  time.Now(),
	}
	q.fireEntry(info)
	observability.LogTaskStart(q.logger, it.id, it.name)

	ctx, span := q.spans.StartTaskSpan(q.ctx, it.id, it.name)
	attempts, err := q.execute(ctx, it)
	q.spans.EndSpanWithError(span, err)

	info.FinishedAt = time.Now()
	info.Attempts = attempts
	duration := info.Duration()
	durationMs := float64(duration.Microseconds()) / 1000

	q.metrics.RecordTask(ctx, it.name, duration, err)
	if err != nil {
		observability.LogTaskError(q.logger, it.id, err, durationMs)
		q.recordFailure(it, err)
	} else {
		observability.LogTaskComplete(q.logger, it.id, durationMs, attempts)
	}

	q.fireExit(info, err)
	q.finish()
}

// execute runs the task, retrying when configured. Returns the attempt count.
func (q *Queue) execute(ctx context.Context, it *item) (int, error) {
	if q.retry == nil {
		return 1, runTask(ctx, it.task)
	}

	cfg := *q.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
			q.spans.AddSpanEvent(ctx, "task.retry")
			if q.logger != nil {
				q.logger.Debug("retrying task", "task_id", it.id, "attempt", attempt, "wait", wait, "error", err)
			}
		}
	}

	res := eherrors.WithRetryContext(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, runTask(ctx, it.task)
	})
	return res.Attempts, res.Err
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &eherrors.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}

func (q *Queue) recordFailure(it *item, err error) {
	if q.sink == nil {
		return
	}

	f := diagnostics.NewFailure(diagnostics.SourceQueue, it.name, err)
	var perr *eherrors.PanicError
	if errors.As(err, &perr) {
		f.WithDetail(string(perr.Stack))
	}
	if serr := q.sink.Record(context.Background(), f); serr != nil && q.logger != nil {
		q.logger.Warn("failed to record task failure", "task_id", it.id, "error", serr)
	}
}

func (q *Queue) finish() {
	n := q.processed.Add(1)

	q.mu.Lock()
	q.running--
	drained := q.markIdleLocked()
	q.mu.Unlock()

	if drained {
		observability.LogQueueDrain(q.logger, n)
		q.fireDrain()
	}
}

func (q *Queue) isIdleLocked() bool {
	select {
	case <-q.idle:
		return true
	default:
		return false
	}
}

// markIdleLocked closes the idle channel if the queue just became idle.
func (q *Queue) markIdleLocked() bool {
	if len(q.pending) > 0 || q.running > 0 || q.isIdleLocked() {
		return false
	}
	close(q.idle)
	return true
}
