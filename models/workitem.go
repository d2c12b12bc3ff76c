package models

import (
	"strings"
	"time"
)

// Operation names the terminal page operation of a WorkItem.
type Operation string

const (
	OpScreenshot       Operation = "screenshot"
	OpExtractMetaImage Operation = "extract_meta_image"
	OpValidateContent  Operation = "validate_content"
)

// WaitCondition is the settle condition that ends a navigation.
type WaitCondition string

const (
	WaitNetworkIdle      WaitCondition = "network_idle"
	WaitDOMContentLoaded WaitCondition = "dom_content_loaded"
)

// DefaultTimeoutMs is the per-item deadline when neither the item nor the
// worklist defaults set one.
const DefaultTimeoutMs = 30000

// Viewport is the emulated device metrics applied before navigation.
type Viewport struct {
	Width  int `yaml:"width" json:"width" validate:"gt=0"`
	Height int `yaml:"height" json:"height" validate:"gt=0"`

	// ScaleFactor is the device pixel ratio. Default: 1.
	ScaleFactor float64 `yaml:"scale_factor,omitempty" json:"scale_factor,omitempty" validate:"gte=0"`
}

// WorkItem is one unit of batch work: a target plus the operation to run on it.
// Items are immutable once the batch starts.
type WorkItem struct {
	// Label identifies the item in the report. Required.
	Label string `yaml:"label" json:"label" validate:"required"`

	// Target is an http(s) URL or a file:// URL of a local page. Required.
	Target string `yaml:"target" json:"target" validate:"required"`

	// Operation selects what happens after navigation. Required.
	Operation Operation `yaml:"operation" json:"operation" validate:"required,oneof=screenshot extract_meta_image validate_content"`

	// Viewport is applied before navigation so layout renders at that size.
	Viewport *Viewport `yaml:"viewport,omitempty" json:"viewport,omitempty"`

	// WaitCondition controls when navigation is considered settled.
	// Default: network_idle.
	WaitCondition WaitCondition `yaml:"wait,omitempty" json:"wait,omitempty" validate:"omitempty,oneof=network_idle dom_content_loaded"`

	// TimeoutMs bounds navigation plus operation for this item.
	TimeoutMs int `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty" validate:"gte=0"`

	// SettleDelayMs is an explicit pause after the settle condition fires,
	// for pages that keep rendering after load.
	SettleDelayMs int `yaml:"settle_delay_ms,omitempty" json:"settle_delay_ms,omitempty" validate:"gte=0"`

	// OutputPath is where a screenshot is written. Required for screenshots.
	OutputPath string `yaml:"output,omitempty" json:"output,omitempty" validate:"required_if=Operation screenshot"`

	// FullPage captures the whole scrollable page instead of the viewport.
	// Screenshot only. Default: true.
	FullPage *bool `yaml:"full_page,omitempty" json:"full_page,omitempty"`

	// Headers are extra request headers sent with the navigation.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Actions run in order after the page settles and before the operation.
	Actions []Action `yaml:"actions,omitempty" json:"actions,omitempty" validate:"dive"`
}

// Defaults applies default values to unset fields. TimeoutMs is left
// alone so the executor's configured default can apply.
func (w *WorkItem) Defaults() {
	if w.WaitCondition == "" {
		w.WaitCondition = WaitNetworkIdle
	}
	if w.Viewport != nil && w.Viewport.ScaleFactor == 0 {
		w.Viewport.ScaleFactor = 1
	}
	if w.Operation == OpScreenshot && w.FullPage == nil {
		t := true
		w.FullPage = &t
	}
}

// Timeout returns TimeoutMs as a duration.
func (w WorkItem) Timeout() time.Duration {
	return time.Duration(w.TimeoutMs) * time.Millisecond
}

// SettleDelay returns SettleDelayMs as a duration.
func (w WorkItem) SettleDelay() time.Duration {
	return time.Duration(w.SettleDelayMs) * time.Millisecond
}

// CaptureFullPage reports whether a screenshot should cover the whole page.
func (w WorkItem) CaptureFullPage() bool {
	return w.FullPage == nil || *w.FullPage
}

// IsLocalFile reports whether the target is a local file reference.
func (w WorkItem) IsLocalFile() bool {
	return strings.HasPrefix(strings.ToLower(w.Target), "file:")
}
