package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/pagecheck/executor"
	"github.com/use-agent/pagecheck/models"
	"github.com/ysmood/gson"
)

// Page is a rod tab handed out by Session.NewPage.
type Page struct {
	session *Session
	page    *rod.Page

	router    *rod.HijackRouter
	closeOnce sync.Once
	closeErr  error
}

var _ executor.Page = (*Page)(nil)

// SetViewport overrides device metrics. rod remembers the override, so a
// later full-page screenshot keeps the scale factor.
func (p *Page) SetViewport(ctx context.Context, vp models.Viewport) error {
	scale := vp.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	return p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: scale,
		Mobile:            false,
	})
}

// Navigate loads target and waits for the requested lifecycle event.
//
// Order matters: headers and the hijack router only apply to navigations
// started after they are installed, and the lifecycle listener must exist
// before Navigate or the event can be missed.
func (p *Page) Navigate(ctx context.Context, target string, opts executor.NavigateOptions) (*executor.Navigation, error) {
	pg := p.page.Context(ctx)

	if len(opts.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(opts.Headers),
		}).Call(pg); err != nil {
			return nil, fmt.Errorf("set extra headers: %w", err)
		}
	}

	if p.router == nil {
		p.router = setupHijack(p.page, opts.BlockedResourceTypes, opts.BlockAds)
	}

	wait := pg.WaitNavigation(lifecycleEvent(opts.Wait))
	if err := pg.Navigate(target); err != nil {
		return nil, err
	}
	wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	finalURL := evalStringOrEmpty(pg, `() => window.location.href`)
	if finalURL == "" {
		finalURL = target
	}

	return &executor.Navigation{
		FinalURL:   finalURL,
		StatusCode: navigationStatus(pg),
	}, nil
}

// HTML returns the rendered document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// InnerText returns document.body.innerText, or "" for a page without a body.
func (p *Page) InnerText(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ''`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Screenshot captures the page as PNG.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(fullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close stops request interception, closes the tab and releases it from the
// session. It uses the original page reference so cleanup succeeds even
// after the item deadline expired.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		if p.router != nil {
			if err := p.router.Stop(); err != nil {
				slog.Debug("hijack router stop failed", "error", err)
			}
		}
		p.closeErr = p.page.Close()
		p.session.release(p)
	})
	return p.closeErr
}

// lifecycleEvent maps a settle condition to the CDP lifecycle event name.
func lifecycleEvent(w models.WaitCondition) proto.PageLifecycleEventName {
	if w == models.WaitDOMContentLoaded {
		return proto.PageLifecycleEventNameDOMContentLoaded
	}
	return proto.PageLifecycleEventNameNetworkIdle
}

// navigationStatus reads the main document status from the Navigation
// Timing entry. It returns 0 when the browser does not expose it (older
// Chromium, file:// documents).
func navigationStatus(pg *rod.Page) int {
	res, err := pg.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(pg *rod.Page, js string) string {
	res, err := pg.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
