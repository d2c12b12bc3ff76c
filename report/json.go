package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/pagecheck/models"
)

// New wraps results in a Report with a fresh run ID.
func New(results models.ResultSet, startedAt time.Time) models.Report {
	if results == nil {
		results = models.ResultSet{}
	}
	return models.Report{
		RunID:     uuid.NewString(),
		StartedAt: startedAt.Unix(),
		Summary:   Summarize(results),
		Results:   results,
	}
}

// WriteJSON writes r to path as indented JSON, creating parent directories
// and replacing any existing file.
func WriteJSON(path string, r models.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
