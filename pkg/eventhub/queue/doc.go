// Package queue runs pushed tasks with bounded concurrency.
//
// Tasks start in the order they were pushed, with at most N running at once.
// Hooks observe each task as it starts (OnEntry) and finishes (OnExit), and
// observe the queue as it goes idle (OnDrain).
//
//	q := queue.New(4, queue.WithLogger(logger))
//	q.OnDrain(func() { logger.Info("all caught up") })
//
//	q.Push(func(ctx context.Context) error {
//	    return sync(ctx)
//	})
//
//	if err := q.Close(ctx); err != nil { ... }
//
// Failed tasks may be retried with WithRetry; only errors that
// errors.IsRetryable reports as transient are retried. A panicking task is
// recovered into an *errors.PanicError and treated as a permanent failure.
package queue
