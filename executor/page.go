package executor

import (
	"context"

	"github.com/use-agent/pagecheck/models"
)

// Page is a live browser tab, exclusively owned by the executor for the
// duration of one work item.
type Page interface {
	// SetViewport emulates the given device metrics. It must be called
	// before Navigate to affect layout.
	SetViewport(ctx context.Context, vp models.Viewport) error

	// Navigate loads target and blocks until opts.Wait fires or ctx ends.
	Navigate(ctx context.Context, target string, opts NavigateOptions) (*Navigation, error)

	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)

	// InnerText returns the rendered plain text of the document body.
	InnerText(ctx context.Context) (string, error)

	// RunActions performs the given interactions in order, stopping at the
	// first failure.
	RunActions(ctx context.Context, actions []models.Action) error

	// Screenshot rasterizes the page as PNG.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Close releases the tab. It is safe to call more than once.
	Close() error
}

// NavigateOptions tunes a single navigation.
type NavigateOptions struct {
	Wait    models.WaitCondition
	Headers map[string]string

	// BlockedResourceTypes are request types failed before they reach the
	// network ("Image", "Stylesheet", "Font", "Media", "Script").
	BlockedResourceTypes []string

	// BlockAds fails requests to known ad and tracking domains.
	BlockAds bool
}

// Navigation is what the browser reports about a settled navigation.
type Navigation struct {
	// FinalURL is the address after redirects.
	FinalURL string

	// StatusCode is the main document status, or 0 when the browser could
	// not report one.
	StatusCode int
}

// StatusProber fetches the HTTP status of a URL out of band.
type StatusProber interface {
	Probe(ctx context.Context, url string) (int, error)
}
