package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
)

// DispatcherConfig controls in-process buffering.
type DispatcherConfig struct {
	BufferSize int
	DropIfFull bool
	// SendTimeout bounds each delivery. Zero means 30 seconds.
	SendTimeout time.Duration
}

// Dispatcher is an in-process RegistrationNotifier for deployments without
// Redis. Tasks are delivered on a background goroutine.
type Dispatcher struct {
	cfg       DispatcherConfig
	mailer    *Mailer
	logger    auth.Logger
	ch        chan ActivationTask
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	now       func() time.Time
}

var _ auth.RegistrationNotifier = (*Dispatcher)(nil)

// NewDispatcher starts the delivery goroutine. Call Close to drain it.
func NewDispatcher(cfg DispatcherConfig, mailer *Mailer, logger auth.Logger) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = auth.NewLogrusLogger(nil, "notify.dispatcher")
	}

	d := &Dispatcher{
		cfg:    cfg,
		mailer: mailer,
		logger: logger,
		ch:     make(chan ActivationTask, cfg.BufferSize),
		done:   make(chan struct{}),
		now:    time.Now,
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case task := <-d.ch:
			d.deliver(task)
		case <-d.done:
			for {
				select {
				case task := <-d.ch:
					d.deliver(task)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(task ActivationTask) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()
	if err := d.mailer.Deliver(ctx, task); err != nil {
		d.logger.Error("activation email delivery failed", "identity_id", task.IdentityID, "error", err)
	}
}

// NotifyRegistration queues the task without waiting for delivery. Tasks
// that reach the buffer are always delivered, Close included.
func (d *Dispatcher) NotifyRegistration(ctx context.Context, email, identityID string) {
	if d == nil {
		return
	}
	task := ActivationTask{Email: email, IdentityID: identityID, EnqueuedAt: d.now().UTC()}

	// Close waits for in-flight sends before it stops the run loop.
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.logger.Warn("activation task dropped, dispatcher closed", "identity_id", identityID)
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- task:
		default:
			d.dropped.Add(1)
			d.logger.Warn("activation task dropped, buffer full", "identity_id", identityID)
		}
		return
	}

	select {
	case d.ch <- task:
	case <-ctx.Done():
		d.dropped.Add(1)
		d.logger.Warn("activation task not queued", "identity_id", identityID, "error", ctx.Err())
	}
}

// Close stops accepting tasks and waits for buffered ones to be delivered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.done)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// Dropped returns how many tasks were never queued: buffer full, context
// done, or dispatcher closed.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
