package notify

import (
	"context"
	"errors"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
)

const DefaultPollWait = 5 * time.Second

// Worker drains a RedisQueue and delivers each task through a Mailer.
type Worker struct {
	queue  *RedisQueue
	mailer *Mailer
	wait   time.Duration
	logger auth.Logger
}

// NewWorker builds a worker. wait <= 0 uses DefaultPollWait.
func NewWorker(queue *RedisQueue, mailer *Mailer, wait time.Duration, logger auth.Logger) *Worker {
	if wait <= 0 {
		wait = DefaultPollWait
	}
	if logger == nil {
		logger = auth.NewLogrusLogger(nil, "notify.worker")
	}
	return &Worker{queue: queue, mailer: mailer, wait: wait, logger: logger}
}

// Run processes tasks until ctx is done. Delivery errors are logged and the
// task is dropped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("activation worker started", "queue", w.queue.key)
	for {
		if ctx.Err() != nil {
			w.logger.Info("activation worker stopped")
			return nil
		}

		if _, err := w.ProcessOne(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("activation worker dequeue failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne waits for a single task and delivers it. It reports whether a
// task was taken off the queue.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx, w.wait)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	if err := w.mailer.Deliver(ctx, *task); err != nil {
		w.logger.Error("activation email delivery failed", "identity_id", task.IdentityID, "error", err)
	}
	return true, nil
}
