package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig
	Runner  RunnerConfig
	Probe   ProbeConfig
	Report  ReportConfig
	Log     LogConfig
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the number of tabs that may be open at once.
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all navigations.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects anti-bot-detection evasions into every page.
	Stealth bool // default: false
}

// RunnerConfig controls how the worklist is executed.
type RunnerConfig struct {
	// Worklist is the YAML worklist path, used when none is given on the command line.
	Worklist string

	// DefaultTimeout is the per-item deadline for items that set none.
	DefaultTimeout time.Duration // default: 30s

	// SettleDelay is the pause after load for items that set none.
	SettleDelay time.Duration // default: 0

	// BlockedResourceTypes lists resource types blocked for non-screenshot
	// operations. default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks known ad/tracking domains for non-screenshot operations.
	BlockAds bool // default: true

	// RequestsPerSecond paces navigations; 0 disables pacing.
	RequestsPerSecond float64 // default: 0

	// MaxAcquireFailures is the number of consecutive page acquisition
	// failures after which the run is aborted.
	MaxAcquireFailures int // default: 3
}

// ProbeConfig controls the HTTP status probe used when the browser cannot
// report a document status.
type ProbeConfig struct {
	Enabled bool          // default: true
	Timeout time.Duration // default: 10s
}

// ReportConfig controls report output.
type ReportConfig struct {
	// JSONPath, when set, receives a JSON copy of the report.
	JSONPath string

	// WebhookURL, when set, receives a run.completed event with the report.
	WebhookURL string

	// WebhookSecret signs webhook bodies with HMAC-SHA256.
	WebhookSecret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     envBoolOr("PAGECHECK_HEADLESS", true),
			MaxPages:     envIntOr("PAGECHECK_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("PAGECHECK_PROXY"),
			NoSandbox:    envBoolOr("PAGECHECK_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("PAGECHECK_BROWSER_BIN"),
			Stealth:      envBoolOr("PAGECHECK_STEALTH", false),
		},
		Runner: RunnerConfig{
			Worklist:       os.Getenv("PAGECHECK_WORKLIST"),
			DefaultTimeout: envDurationOr("PAGECHECK_DEFAULT_TIMEOUT", 30*time.Second),
			SettleDelay:    envDurationOr("PAGECHECK_SETTLE_DELAY", 0),
			BlockedResourceTypes: envSliceOr("PAGECHECK_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds:           envBoolOr("PAGECHECK_BLOCK_ADS", true),
			RequestsPerSecond:  envFloatOr("PAGECHECK_RATE_RPS", 0),
			MaxAcquireFailures: envIntOr("PAGECHECK_MAX_ACQUIRE_FAILURES", 3),
		},
		Probe: ProbeConfig{
			Enabled: envBoolOr("PAGECHECK_PROBE_ENABLED", true),
			Timeout: envDurationOr("PAGECHECK_PROBE_TIMEOUT", 10*time.Second),
		},
		Report: ReportConfig{
			JSONPath:      os.Getenv("PAGECHECK_REPORT_JSON"),
			WebhookURL:    os.Getenv("PAGECHECK_WEBHOOK_URL"),
			WebhookSecret: os.Getenv("PAGECHECK_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("PAGECHECK_LOG_LEVEL", "info"),
			Format: envOr("PAGECHECK_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
