// Package executor performs a single work item against a browser page:
// navigation with a wait condition, then one of the page operations.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/pagecheck/models"
)

// Options configures an Executor.
type Options struct {
	// Prober supplies the HTTP status when the browser reports none.
	// Nil disables the fallback.
	Prober StatusProber

	// BlockedResourceTypes and BlockAds apply to non-screenshot operations
	// only; screenshots always load every resource.
	BlockedResourceTypes []string
	BlockAds             bool

	// SettleDelay is the pause after the wait condition fires, used when
	// the item does not set its own.
	SettleDelay time.Duration

	// DefaultTimeout bounds items that do not set TimeoutMs.
	DefaultTimeout time.Duration
}

// Executor runs work items. It holds no per-item state and may be reused
// across a whole batch.
type Executor struct {
	opts Options
}

// New creates an Executor.
func New(opts Options) *Executor {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = time.Duration(models.DefaultTimeoutMs) * time.Millisecond
	}
	return &Executor{opts: opts}
}

// Execute navigates page to item.Target and performs item.Operation.
// The whole item, navigation included, is bounded by the item timeout.
// Errors are *models.RunError with a navigation or operation code.
func (e *Executor) Execute(ctx context.Context, page Page, item models.WorkItem) (models.OperationResult, error) {
	timeout := item.Timeout()
	if item.TimeoutMs <= 0 {
		timeout = e.opts.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if item.Viewport != nil {
		if err := page.SetViewport(ctx, *item.Viewport); err != nil {
			return nil, categorizeError(err, models.ErrCodeOperation, "set viewport")
		}
	}

	nav, err := e.navigate(ctx, page, item)
	if err != nil {
		return nil, err
	}

	if len(item.Actions) > 0 {
		if err := page.RunActions(ctx, item.Actions); err != nil {
			return nil, categorizeError(err, models.ErrCodeOperation, "run page actions")
		}
	}

	switch item.Operation {
	case models.OpScreenshot:
		return screenshot(ctx, page, item)
	case models.OpExtractMetaImage:
		return extractMetaImage(ctx, page, nav)
	case models.OpValidateContent:
		return validateContent(ctx, page, nav)
	default:
		return nil, models.NewRunError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown operation %q", item.Operation), nil)
	}
}

// navigate loads the target, resolves its status and waits out the settle
// delay. Every failure here is a navigation failure.
func (e *Executor) navigate(ctx context.Context, page Page, item models.WorkItem) (*Navigation, error) {
	opts := NavigateOptions{
		Wait:    item.WaitCondition,
		Headers: item.Headers,
	}
	if item.Operation != models.OpScreenshot {
		opts.BlockedResourceTypes = e.opts.BlockedResourceTypes
		opts.BlockAds = e.opts.BlockAds
	}

	nav, err := page.Navigate(ctx, item.Target, opts)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeNavigation, "navigate to "+item.Target)
	}
	if nav.FinalURL == "" {
		nav.FinalURL = item.Target
	}

	switch {
	case item.IsLocalFile():
		nav.StatusCode = 200
	case nav.StatusCode == 0 && e.opts.Prober != nil && isHTTP(nav.FinalURL):
		status, perr := e.opts.Prober.Probe(ctx, nav.FinalURL)
		if perr != nil {
			slog.Warn("status probe failed", "target", item.Target, "url", nav.FinalURL, "error", perr)
		} else {
			slog.Debug("status from probe", "target", item.Target, "status", status)
			nav.StatusCode = status
		}
	}

	delay := item.SettleDelay()
	if item.SettleDelayMs <= 0 {
		delay = e.opts.SettleDelay
	}
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, categorizeError(ctx.Err(), models.ErrCodeNavigation, "settle delay")
		}
	}
	return nav, nil
}

// categorizeError maps an engine error to a RunError. A hit deadline is
// always a navigation timeout and a cancelled run is RUN_CANCELED; anything
// else gets code, with the engine message preserved.
func categorizeError(err error, code, msg string) *models.RunError {
	var runErr *models.RunError
	if errors.As(err, &runErr) {
		return runErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewRunError(models.ErrCodeNavigationTimeout, msg+": deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return models.NewRunError(models.ErrCodeCanceled, msg+": canceled", err)
	default:
		return models.NewRunError(code, msg, err)
	}
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
