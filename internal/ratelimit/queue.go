package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// HostQueue serializes calls against the GitHub API through a single worker
// so the host's secondary rate limit is never tripped by concurrent bursts.
// Tasks run strictly in submission order with at least delay between the
// completion of one task and the start of the next. A task failure rejects
// only that task; the worker keeps draining.
type HostQueue struct {
	tasks chan hostTask
	delay time.Duration

	closeOnce sync.Once
	done      chan struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

type hostTask struct {
	ctx   context.Context
	run   func(ctx context.Context) error
	reply chan error
}

func NewHostQueue(delay time.Duration) *HostQueue {
	q := &HostQueue{
		tasks: make(chan hostTask, 64),
		delay: delay,
		done:  make(chan struct{}),
		sleep: sleepCtx,
	}
	go q.drain()
	return q
}

func (q *HostQueue) Do(ctx context.Context, task func(ctx context.Context) error) error {
	t := hostTask{ctx: ctx, run: task, reply: make(chan error, 1)}
	select {
	case q.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return context.Canceled
	}
	select {
	case err := <-t.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return context.Canceled
	}
}

// Close stops the worker. Buffered and future Do calls settle with
// context.Canceled instead of blocking.
func (q *HostQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

func (q *HostQueue) drain() {
	for {
		select {
		case <-q.done:
			q.flush()
			return
		default:
		}
		select {
		case <-q.done:
			q.flush()
			return
		case t := <-q.tasks:
			q.runOne(t)
			// spacing floor between consecutive host calls
			_ = q.sleep(context.Background(), q.delay)
		}
	}
}

// flush rejects every task still buffered at shutdown so no Do caller is
// left waiting on a reply that will never come.
func (q *HostQueue) flush() {
	for {
		select {
		case t := <-q.tasks:
			t.reply <- context.Canceled
		default:
			return
		}
	}
}

func (q *HostQueue) runOne(t hostTask) {
	if err := t.ctx.Err(); err != nil {
		t.reply <- err
		return
	}
	err := t.run(t.ctx)
	if err != nil {
		logutil.GetLogger(t.ctx).Warn("host task failed", zap.Error(err))
	}
	t.reply <- err
}
