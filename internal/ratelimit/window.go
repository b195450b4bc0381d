package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WindowLimiter throttles calls to the generation/embedding backend with a
// sliding window: at most max admissions inside any window. A caller that
// finds the window full blocks until the oldest admission expires; other
// callers keep queueing on the mutex independently. A failed task costs an
// extra cooldown before the error is returned so callers cannot hammer the
// backend with immediate retries.
type WindowLimiter struct {
	mu       sync.Mutex
	admitted []time.Time

	max      int
	window   time.Duration
	cooldown time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWindowLimiter(max int, window, cooldown time.Duration) *WindowLimiter {
	return &WindowLimiter{
		max:      max,
		window:   window,
		cooldown: cooldown,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (l *WindowLimiter) Do(ctx context.Context, task func(ctx context.Context) error) error {
	if err := l.admit(ctx); err != nil {
		return err
	}
	if err := task(ctx); err != nil {
		logutil.GetLogger(ctx).Warn("rate limited task failed", zap.Error(err))
		if serr := l.sleep(ctx, l.cooldown); serr != nil {
			return serr
		}
		return err
	}
	return nil
}

func (l *WindowLimiter) admit(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.purge(now)
		if len(l.admitted) < l.max {
			l.admitted = append(l.admitted, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.admitted[0])
		l.mu.Unlock()
		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// purge drops admissions older than the window. Callers hold mu.
func (l *WindowLimiter) purge(now time.Time) {
	idx := 0
	for idx < len(l.admitted) && now.Sub(l.admitted[idx]) >= l.window {
		idx++
	}
	if idx > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[idx:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
