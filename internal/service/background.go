package service

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/blog_dashboard/internal/logging"
)

// Background runs side effects (event publishing, search index sync) off the
// request path. Jobs sharing a key land on the same worker and run in
// submission order. A full queue drops the job instead of blocking the
// caller.
type Background struct {
	queues  []chan job
	timeout time.Duration

	mu     sync.RWMutex
	closed bool

	pending sync.WaitGroup
	workers sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	fn   func(context.Context) error
}

func NewBackground(workers, queueSize int, timeout time.Duration) *Background {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	b := &Background{
		queues:  make([]chan job, workers),
		timeout: timeout,
	}
	for i := range b.queues {
		q := make(chan job, queueSize)
		b.queues[i] = q
		b.workers.Add(1)
		go b.run(q)
	}
	return b
}

// Submit enqueues fn and returns immediately. fn gets a context that keeps
// the request's values but not its cancellation. A nil Background runs fn
// inline.
func (b *Background) Submit(ctx context.Context, key uint64, name string, fn func(context.Context) error) bool {
	if b == nil {
		runJob(job{ctx: context.WithoutCancel(ctx), name: name, fn: fn}, 0)
		return true
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	l := logging.FromContext(ctx)
	if b.closed {
		l.Warn("background_job_dropped", "job", name, "reason", "runner closed")
		return false
	}

	b.pending.Add(1)
	select {
	case b.queues[key%uint64(len(b.queues))] <- job{ctx: context.WithoutCancel(ctx), name: name, fn: fn}:
		return true
	default:
		b.pending.Done()
		l.Warn("background_job_dropped", "job", name, "reason", "queue full")
		return false
	}
}

func (b *Background) run(q <-chan job) {
	defer b.workers.Done()
	for j := range q {
		runJob(j, b.timeout)
		b.pending.Done()
	}
}

func runJob(j job, timeout time.Duration) {
	ctx := j.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := j.fn(ctx); err != nil {
		logging.FromContext(ctx).Warn(j.name+"_failed", "error", err)
	}
}

// Wait blocks until every job submitted so far has finished.
func (b *Background) Wait() {
	if b == nil {
		return
	}
	b.pending.Wait()
}

// Close stops accepting jobs and drains what is already queued.
func (b *Background) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, q := range b.queues {
		close(q)
	}
	b.mu.Unlock()

	b.workers.Wait()
}
