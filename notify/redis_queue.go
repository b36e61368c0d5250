package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey       = "auth:activation:queue"
	DefaultEnqueueTimeout = 2 * time.Second
)

// RedisQueue is a RegistrationNotifier that pushes activation tasks onto a
// Redis list for the Worker to pick up.
type RedisQueue struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	now     func() time.Time
	logger  auth.Logger
}

var _ auth.RegistrationNotifier = (*RedisQueue)(nil)

// QueueOption configures a RedisQueue
type QueueOption func(*RedisQueue)

// WithQueueKey overrides the list key
func WithQueueKey(key string) QueueOption {
	return func(q *RedisQueue) {
		if key != "" {
			q.key = key
		}
	}
}

// WithEnqueueTimeout bounds how long NotifyRegistration may block.
func WithEnqueueTimeout(d time.Duration) QueueOption {
	return func(q *RedisQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithQueueLogger sets the logger
func WithQueueLogger(logger auth.Logger) QueueOption {
	return func(q *RedisQueue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithQueueClock injects the clock used for EnqueuedAt.
func WithQueueClock(now func() time.Time) QueueOption {
	return func(q *RedisQueue) {
		if now != nil {
			q.now = now
		}
	}
}

// NewRedisQueue returns a queue on client.
func NewRedisQueue(client *redis.Client, opts ...QueueOption) *RedisQueue {
	q := &RedisQueue{
		client:  client,
		key:     DefaultQueueKey,
		timeout: DefaultEnqueueTimeout,
		now:     time.Now,
		logger:  auth.NewLogrusLogger(nil, "notify"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// NotifyRegistration enqueues an activation task. Failures are logged and
// swallowed, registration does not depend on them.
func (q *RedisQueue) NotifyRegistration(ctx context.Context, email, identityID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
	defer cancel()

	task := ActivationTask{Email: email, IdentityID: identityID, EnqueuedAt: q.now().UTC()}
	if err := q.Enqueue(ctx, task); err != nil {
		q.logger.Error("failed to enqueue activation task", "identity_id", identityID, "error", err)
		return
	}
	q.logger.Debug("activation task enqueued", "identity_id", identityID)
}

// Enqueue pushes task onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, task ActivationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Dequeue blocks up to wait for a task. (nil, nil) means the wait elapsed.
func (q *RedisQueue) Dequeue(ctx context.Context, wait time.Duration) (*ActivationTask, error) {
	res, err := q.client.BRPop(ctx, wait, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(res) != 2 {
		return nil, errors.New("notify: unexpected BRPOP reply")
	}

	var task ActivationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		q.logger.Error("dropping undecodable activation task", "error", err)
		return nil, nil
	}
	return &task, nil
}

// Len returns the number of pending tasks
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
