// Package runner drives a worklist through one browser session, one item at
// a time, and collects an Outcome for every item.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/pagecheck/executor"
	"github.com/use-agent/pagecheck/models"
)

// Session is the browser session the runner draws pages from.
type Session interface {
	NewPage(ctx context.Context) (executor.Page, error)
	Close() error
}

// Opener starts a Session. It is called once per Run.
type Opener func(ctx context.Context) (Session, error)

// Executor performs one work item on a page.
type Executor interface {
	Execute(ctx context.Context, page executor.Page, item models.WorkItem) (models.OperationResult, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithRateLimit paces page acquisitions to rps per second. rps <= 0
// disables pacing.
func WithRateLimit(rps float64) Option {
	return func(r *Runner) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			r.limiter = nil
		}
	}
}

// WithMaxAcquireFailures aborts the run after n consecutive page acquisition
// failures. n <= 0 never aborts.
func WithMaxAcquireFailures(n int) Option {
	return func(r *Runner) { r.maxAcquireFailures = n }
}

// Runner executes worklists sequentially.
type Runner struct {
	open Opener
	exec Executor

	limiter            *rate.Limiter
	maxAcquireFailures int
	now                func() time.Time
}

// New creates a Runner.
func New(open Opener, exec Executor, opts ...Option) *Runner {
	r := &Runner{
		open:               open,
		exec:               exec,
		maxAcquireFailures: 3,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run opens a session and executes items in order, returning exactly one
// Outcome per item. Item failures are recorded in their Outcome. The error
// is non-nil only when the run could not continue: the session failed to
// launch, or pages could not be acquired MaxAcquireFailures times in a row.
// Both are fatal and return no results.
func (r *Runner) Run(ctx context.Context, items []models.WorkItem) (models.ResultSet, error) {
	session, err := r.open(ctx)
	if err != nil {
		if models.CodeOf(err) == "" {
			err = models.NewRunError(models.ErrCodeLaunch, "failed to start browser session", err)
		}
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			slog.Warn("browser session close failed", "error", cerr)
		}
	}()

	results := make(models.ResultSet, 0, len(items))
	consecutive := 0

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results = append(results, Classify(item, nil,
				models.NewRunError(models.ErrCodeCanceled, "run canceled before item started", err)))
			continue
		}

		slog.Debug("item started", "index", i, "label", item.Label, "target", item.Target, "operation", item.Operation)
		out, acquireErr := r.runOne(ctx, session, item)
		results = append(results, out)
		logOutcome(out)

		if acquireErr == nil {
			consecutive = 0
			continue
		}
		consecutive++
		if r.maxAcquireFailures > 0 && consecutive >= r.maxAcquireFailures {
			slog.Error("browser has no capacity left, aborting run",
				"attempted", len(results), "remaining", len(items)-len(results))
			return nil, models.NewRunError(models.ErrCodeAborted,
				fmt.Sprintf("%d consecutive page acquisition failures", consecutive), acquireErr)
		}
	}
	return results, nil
}

// runOne executes a single item on a fresh page. The page is closed on every
// path, and a panic anywhere in the item becomes a failed Outcome.
// acquireErr is set when no page could be obtained.
func (r *Runner) runOne(ctx context.Context, session Session, item models.WorkItem) (out models.Outcome, acquireErr error) {
	start := r.now()
	defer func() {
		out.DurationMs = r.now().Sub(start).Milliseconds()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic while running item",
				"label", item.Label, "panic", rec, "stack", string(debug.Stack()))
			out = Classify(item, nil, models.NewRunError(models.ErrCodeInternal, fmt.Sprintf("panic: %v", rec), nil))
		}
	}()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return Classify(item, nil, models.NewRunError(models.ErrCodeCanceled, "waiting for rate limiter", err)), nil
		}
	}

	page, err := session.NewPage(ctx)
	if err != nil {
		if models.CodeOf(err) == "" {
			err = models.NewRunError(models.ErrCodeResourceExhausted, "failed to acquire page", err)
		}
		return Classify(item, nil, err), err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			slog.Warn("page close failed", "label", item.Label, "error", cerr)
		}
	}()

	result, err := r.exec.Execute(ctx, page, item)
	return Classify(item, result, err), nil
}

func logOutcome(out models.Outcome) {
	attrs := []any{
		"label", out.Label,
		"operation", out.Operation,
		"duration_ms", out.DurationMs,
	}
	switch {
	case out.Success:
		slog.Info("item passed", attrs...)
	case out.Error != nil:
		slog.Warn("item failed", append(attrs, "code", out.Error.Code, "error", out.Error.Message)...)
	default:
		slog.Warn("item rejected", attrs...)
	}
}
