package executor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/use-agent/pagecheck/models"
)

func screenshot(ctx context.Context, page Page, item models.WorkItem) (*models.ScreenshotResult, error) {
	data, err := page.Screenshot(ctx, item.CaptureFullPage())
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeOperation, "capture screenshot")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeOperation, "decode screenshot", err)
	}

	if dir := filepath.Dir(item.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, models.NewRunError(models.ErrCodeOperation,
				fmt.Sprintf("create output directory %s", dir), err)
		}
	}
	if err := os.WriteFile(item.OutputPath, data, 0o644); err != nil {
		return nil, models.NewRunError(models.ErrCodeOperation,
			fmt.Sprintf("write screenshot %s", item.OutputPath), err)
	}

	return &models.ScreenshotResult{
		Path:         item.OutputPath,
		BytesWritten: len(data),
		Width:        cfg.Width,
		Height:       cfg.Height,
	}, nil
}
