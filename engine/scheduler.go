package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	fx "github.com/gofhir/extractor"
)

// scheduler runs tasks FIFO under a concurrency bound, applying the
// per-window deadline to each. Tasks that never start because the run
// deadline elapsed are recorded as timeouts, not silently dropped.
type scheduler struct {
	sem           *semaphore.Weighted
	windowTimeout time.Duration
	logger        *zap.Logger
}

// schedulerOutcome summarizes what the run() loop observed.
type schedulerOutcome struct {
	// fatal aborts the whole run: the provider was unreachable on the
	// very first call, before anything succeeded.
	fatal error
	// deadlineHit means at least one task was cut off or skipped by the
	// run deadline.
	deadlineHit bool
	// degraded means at least one task failed mid-run.
	degraded bool
}

func newScheduler(concurrency int, windowTimeout time.Duration, logger *zap.Logger) *scheduler {
	return &scheduler{
		sem:           semaphore.NewWeighted(int64(concurrency)),
		windowTimeout: windowTimeout,
		logger:        logger,
	}
}

// run dispatches every task and folds their outputs into result. It
// returns once all dispatched tasks finished or the run context ended.
func (s *scheduler) run(ctx context.Context, tasks []*task, result *fx.Result) schedulerOutcome {
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		out       schedulerOutcome
		mu        sync.Mutex
	)

	for i, t := range tasks {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			// Run deadline elapsed while waiting for a slot. Everything
			// not yet started is recorded and skipped.
			mu.Lock()
			out.deadlineHit = true
			mu.Unlock()
			for _, skipped := range tasks[i:] {
				result.AddIssue(fx.Issue{
					Severity:    fx.SeverityWarning,
					Code:        fx.IssueTypeTimeout,
					Diagnostics: "run deadline elapsed before window was scheduled",
					Model:       skipped.target.Model,
					Window:      skipped.window.Index,
				})
			}
			break
		}

		wg.Add(1)
		go func(idx int, t *task) {
			defer wg.Done()
			defer s.sem.Release(1)

			taskCtx := ctx
			if s.windowTimeout > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(ctx, s.windowTimeout)
				defer cancel()
			}

			output := t.run(taskCtx)

			for _, issue := range output.issues {
				result.AddIssue(issue)
			}
			for _, item := range output.items {
				result.Add(t.target.Model, item)
			}

			if output.err == nil {
				succeeded.Add(1)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(output.err, fx.ErrProviderUnavailable) && succeeded.Load() == 0 && idx == 0 {
				// Nothing has worked and the first call could not reach
				// the provider: abort instead of burning the budget on
				// calls that will all fail the same way.
				out.fatal = output.err
				return
			}
			out.degraded = true
			s.logger.Warn("window task failed",
				zap.String("target", t.target.String()),
				zap.Int("window", t.window.Index),
				zap.Error(output.err))
		}(i, t)

		// The first task gates the run: a provider that is down fails
		// fast instead of fanning out.
		if i == 0 {
			wg.Wait()
			mu.Lock()
			fatal := out.fatal
			mu.Unlock()
			if fatal != nil {
				return out
			}
		}
	}

	wg.Wait()
	return out
}
