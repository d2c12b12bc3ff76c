package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pagecheck/models"
)

// scrollPause lets lazy-loaded content react between scroll steps.
const scrollPause = 100 * time.Millisecond

// RunActions runs actions in order under ctx. The error names the failing
// action and how many completed before it.
func (p *Page) RunActions(ctx context.Context, actions []models.Action) error {
	pg := p.page.Context(ctx)
	for i, action := range actions {
		if err := runAction(pg, action); err != nil {
			return fmt.Errorf("action %d (%s) failed after %d completed: %w", i, action.Type, i, err)
		}
	}
	return nil
}

func runAction(p *rod.Page, action models.Action) error {
	switch action.Type {
	case models.ActionWait:
		return actionWait(p, action)
	case models.ActionClick:
		return actionClick(p, action)
	case models.ActionScroll:
		return actionScroll(p, action)
	case models.ActionEval:
		return actionEval(p, action)
	default:
		return fmt.Errorf("unknown action type: %s", action.Type)
	}
}

// actionWait waits for a selector to match, or sleeps for a fixed time.
func actionWait(p *rod.Page, action models.Action) error {
	if action.Selector != "" {
		return p.WaitElementsMoreThan(action.Selector, 0)
	}
	if action.Milliseconds > 0 {
		return sleepCtx(p.GetContext(), time.Duration(action.Milliseconds)*time.Millisecond)
	}
	return nil
}

func actionClick(p *rod.Page, action models.Action) error {
	if action.Selector == "" {
		return fmt.Errorf("click action requires a selector")
	}
	el, err := p.Element(action.Selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", action.Selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// actionScroll scrolls by whole viewports.
func actionScroll(p *rod.Page, action models.Action) error {
	amount := action.Amount
	if amount <= 0 {
		amount = 1
	}

	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	delta := float64(res.Value.Int())
	if action.Direction == "up" {
		delta = -delta
	}

	for i := 0; i < amount; i++ {
		if err := p.Mouse.Scroll(0, delta, 0); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		if err := sleepCtx(p.GetContext(), scrollPause); err != nil {
			return err
		}
	}
	return nil
}

func actionEval(p *rod.Page, action models.Action) error {
	if action.Code == "" {
		return fmt.Errorf("eval action requires code")
	}
	_, err := p.Eval(action.Code)
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
