// Package queue serializes outbound probes through a single worker so remote
// hosts see a bounded request rate.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/link-health/internal/metrics"
	"github.com/jonesrussell/north-cloud/link-health/internal/probe"
)

// DefaultDelay is the pause after each executed task.
const DefaultDelay = 100 * time.Millisecond

var (
	// ErrQueueStopped is returned to callers whose task can no longer run.
	ErrQueueStopped = errors.New("probe queue stopped")
	// ErrAlreadyRunning is returned when Run is called on a running queue.
	ErrAlreadyRunning = errors.New("probe queue already running")
)

// Job is a deferred probe. It runs with the submitter's context.
type Job func(ctx context.Context) probe.Result

type task struct {
	ctx      context.Context
	job      Job
	enqueued time.Time
	done     chan probe.Result
}

// Queue is an unbounded FIFO drained by one worker goroutine.
type Queue struct {
	delay   time.Duration
	log     logger.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	pending []*task
	notify  chan struct{}

	running  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once
}

// New returns a stopped queue; call Run to start draining. delay < 0 uses
// DefaultDelay.
func New(delay time.Duration, log logger.Logger, m *metrics.Metrics) *Queue {
	if delay < 0 {
		delay = DefaultDelay
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Queue{
		delay:   delay,
		log:     log.With(logger.String("component", "probe_queue")),
		metrics: m,
		notify:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Submit enqueues job and blocks until it has run, ctx ends or the queue
// stops.
func (q *Queue) Submit(ctx context.Context, job Job) (probe.Result, error) {
	select {
	case <-q.stopped:
		return probe.Result{}, ErrQueueStopped
	default:
	}
	if err := ctx.Err(); err != nil {
		return probe.Result{}, err
	}

	t := &task{ctx: ctx, job: job, enqueued: time.Now(), done: make(chan probe.Result, 1)}
	q.push(t)

	select {
	case r := <-t.done:
		return r, nil
	case <-ctx.Done():
		return probe.Result{}, ctx.Err()
	case <-q.stopped:
		select {
		case r := <-t.done:
			return r, nil
		default:
			return probe.Result{}, ErrQueueStopped
		}
	}
}

// Run drains the queue until ctx ends. Tasks whose submitter has gone away are
// skipped without a delay. Run may be called once.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.stop()

	q.log.Info("Probe queue started", logger.Duration("delay", q.delay))

	for {
		t, ok := q.next(ctx)
		if !ok {
			q.log.Info("Probe queue stopped", logger.Int("abandoned", q.Len()))
			return ctx.Err()
		}

		if t.ctx.Err() != nil {
			q.log.Debug("Skipping cancelled probe task")
			continue
		}

		q.metrics.ObserveQueueWait(time.Since(t.enqueued))
		t.done <- t.job(t.ctx)

		if q.delay > 0 {
			timer := time.NewTimer(q.delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
}

// Len returns the number of tasks waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) push(t *task) {
	q.mu.Lock()
	q.pending = append(q.pending, t)
	depth := len(q.pending)
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) next(ctx context.Context) (*task, bool) {
	for {
		if ctx.Err() != nil {
			return nil, false
		}

		q.mu.Lock()
		if len(q.pending) > 0 {
			t := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			depth := len(q.pending)
			q.mu.Unlock()

			q.metrics.SetQueueDepth(depth)
			return t, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (q *Queue) stop() {
	q.stopOnce.Do(func() {
		close(q.stopped)
		q.mu.Lock()
		q.pending = nil
		q.mu.Unlock()
		q.metrics.SetQueueDepth(0)
	})
}
