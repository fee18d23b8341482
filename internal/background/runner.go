// Package background runs detached, best-effort side effects (emails, analytics, events).
// Tasks outlive the request that started them and their errors only reach the log.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Runner struct {
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRunner(log *zap.Logger, timeout time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log, timeout: timeout}
}

// Go starts fn detached from parent's cancellation but keeping its values.
func (r *Runner) Go(parent context.Context, name string, fn func(ctx context.Context) error) {
	ctx := context.WithoutCancel(parent)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		if err := r.run(ctx, fn); err != nil {
			r.log.Warn("background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

func (r *Runner) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
