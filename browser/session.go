package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagecheck/config"
	"github.com/use-agent/pagecheck/executor"
	"github.com/use-agent/pagecheck/models"
)

// Session owns the browser process for one run and hands out fresh tabs.
// It is meant to be driven by a single goroutine.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      config.BrowserConfig

	mu        sync.Mutex
	pages     map[*Page]struct{}
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// Open launches a headless browser and connects to it.
// Any failure is returned as an ErrCodeLaunch RunError.
func Open(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.DefaultProxy != "" {
		l = l.Proxy(cfg.DefaultProxy)
	}

	// Keep automation fingerprints low so article pages serve their
	// normal markup to the headless browser.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("hide-scrollbars"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewRunError(
			models.ErrCodeLaunch,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewRunError(
			models.ErrCodeLaunch,
			"failed to connect to browser",
			err,
		)
	}

	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	cfg.MaxPages = maxPages

	return &Session{
		launcher: l,
		browser:  browser,
		cfg:      cfg,
		pages:    make(map[*Page]struct{}),
	}, nil
}

// NewPage opens a fresh tab. It fails with ErrCodeResourceExhausted when
// MaxPages tabs are already open or the browser refuses to create one.
func (s *Session) NewPage(ctx context.Context) (executor.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, models.NewRunError(
			models.ErrCodeResourceExhausted,
			"browser session is closed",
			nil,
		)
	}
	if len(s.pages) >= s.cfg.MaxPages {
		return nil, models.NewRunError(
			models.ErrCodeResourceExhausted,
			fmt.Sprintf("page limit reached (%d open)", len(s.pages)),
			nil,
		)
	}

	rp, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewRunError(
			models.ErrCodeResourceExhausted,
			"failed to create page",
			err,
		)
	}
	// Detach the tab from the acquisition context; operations bind their
	// own deadline.
	rp = rp.Context(context.Background())

	// Stealth must be installed before the first navigation.
	if s.cfg.Stealth {
		if _, evalErr := rp.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	p := &Page{session: s, page: rp}
	s.pages[p] = struct{}{}
	return p, nil
}

// OpenPages returns the number of tabs not yet released.
func (s *Session) OpenPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Close closes any remaining tabs, the browser, and the launcher process.
// It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		leftover := make([]*Page, 0, len(s.pages))
		for p := range s.pages {
			leftover = append(leftover, p)
		}
		s.mu.Unlock()

		if len(leftover) > 0 {
			slog.Warn("session shutting down: closing leftover pages", "count", len(leftover))
		}
		for _, p := range leftover {
			_ = p.Close()
		}

		slog.Info("session shutting down: closing browser")
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
		slog.Info("session shutdown complete")
	})
	return s.closeErr
}

// release forgets a closed page.
func (s *Session) release(p *Page) {
	s.mu.Lock()
	delete(s.pages, p)
	s.mu.Unlock()
}
