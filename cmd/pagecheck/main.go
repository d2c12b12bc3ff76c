package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/pagecheck/browser"
	"github.com/use-agent/pagecheck/config"
	"github.com/use-agent/pagecheck/executor"
	"github.com/use-agent/pagecheck/models"
	"github.com/use-agent/pagecheck/report"
	"github.com/use-agent/pagecheck/runner"
	"github.com/use-agent/pagecheck/webhook"
	"github.com/use-agent/pagecheck/worklist"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)

	// ── 3. Load the worklist ────────────────────────────────────────
	path := cfg.Runner.Worklist
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		slog.Error("no worklist given", "usage", "pagecheck <worklist.yaml> (or set PAGECHECK_WORKLIST)")
		return 1
	}
	items, err := worklist.Load(path)
	if err != nil {
		slog.Error("failed to load worklist", "path", path, "error", err)
		return 1
	}
	slog.Info("pagecheck starting",
		"worklist", path,
		"items", len(items),
		"headless", cfg.Browser.Headless,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 4. Wire executor and runner ─────────────────────────────────
	opts := executor.Options{
		BlockedResourceTypes: cfg.Runner.BlockedResourceTypes,
		BlockAds:             cfg.Runner.BlockAds,
		SettleDelay:          cfg.Runner.SettleDelay,
		DefaultTimeout:       cfg.Runner.DefaultTimeout,
	}
	if cfg.Probe.Enabled {
		opts.Prober = browser.NewProber(cfg.Browser.DefaultProxy, cfg.Probe.Timeout)
	}

	open := func(ctx context.Context) (runner.Session, error) {
		s, err := browser.Open(ctx, cfg.Browser)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	r := runner.New(open, executor.New(opts),
		runner.WithRateLimit(cfg.Runner.RequestsPerSecond),
		runner.WithMaxAcquireFailures(cfg.Runner.MaxAcquireFailures),
	)

	// ── 5. Run until done or interrupted ────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return execute(ctx, r, items, cfg.Report, os.Stdout)
}

// batchRunner is the part of *runner.Runner that execute drives.
type batchRunner interface {
	Run(ctx context.Context, items []models.WorkItem) (models.ResultSet, error)
}

// execute runs items and publishes the report to out, the JSON file and the
// webhook. It returns the process exit code. A fatal run error publishes
// nothing.
func execute(ctx context.Context, r batchRunner, items []models.WorkItem, cfg config.ReportConfig, out io.Writer) int {
	started := time.Now()
	results, err := r.Run(ctx, items)
	if err != nil {
		if models.IsFatal(err) {
			slog.Error("run aborted, no report produced", "code", models.CodeOf(err), "error", err)
		} else {
			slog.Error("run failed", "code", models.CodeOf(err), "error", err)
		}
		return 1
	}

	// ── 6. Report ───────────────────────────────────────────────────
	if rerr := report.Render(out, results); rerr != nil {
		slog.Error("failed to print report", "error", rerr)
	}
	rep := report.New(results, started)
	if cfg.JSONPath != "" {
		if werr := report.WriteJSON(cfg.JSONPath, rep); werr != nil {
			slog.Error("failed to write JSON report", "path", cfg.JSONPath, "error", werr)
		} else {
			slog.Info("JSON report written", "path", cfg.JSONPath)
		}
	}

	if cfg.WebhookURL != "" {
		// The run context may already be cancelled; the notification still
		// gets its own bounded window.
		wctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if werr := webhook.New(cfg.WebhookURL, cfg.WebhookSecret).
			DeliverWithRetry(wctx, webhook.NewRunCompleted(rep)); werr != nil {
			slog.Error("webhook delivery exhausted all retries", "url", cfg.WebhookURL, "error", werr)
		}
		cancel()
	}

	summary := rep.Summary
	slog.Info("pagecheck finished",
		"passed", summary.Passed,
		"failed", summary.Failed,
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)
	if !results.AllPassed() {
		return 1
	}
	return 0
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// the report owns stdout.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
