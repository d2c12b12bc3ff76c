package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/pagecheck/models"
)

func strPtr(s string) *string { return &s }

func sampleResults() models.ResultSet {
	return models.ResultSet{
		{
			Label: "about-desktop", Target: "file:///site/about.html", Operation: models.OpScreenshot,
			Success: true,
			Result:  &models.ScreenshotResult{Path: "shots/about.png", BytesWritten: 2048, Width: 1440, Height: 3100},
		},
		{
			Label: "stripe-blog", Target: "https://stripe.com/blog/x", Operation: models.OpExtractMetaImage,
			Success: true,
			Result:  &models.MetadataResult{ImageURL: strPtr("https://images.stripe.com/og.png"), Source: "og:image"},
		},
		{
			Label: "no-preview", Target: "https://example.com/post", Operation: models.OpExtractMetaImage,
			Success: true,
			Result:  &models.MetadataResult{},
		},
		{
			Label: "wayback-empty", Target: "https://web.archive.org/web/2019/x", Operation: models.OpValidateContent,
			Result: &models.ValidationResult{HTTPStatus: 200, FinalURL: "https://web.archive.org/web/20190101/x", ContentLength: 42},
		},
		{
			Label: "slow", Target: "https://slow.example.com", Operation: models.OpValidateContent,
			Error: &models.ErrorDetail{Code: models.ErrCodeNavigationTimeout, Message: "navigate to https://slow.example.com: deadline exceeded"},
		},
	}
}

func TestRender_BlocksInOrderThenSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResults()))
	out := buf.String()

	labels := []string{"about-desktop", "stripe-blog", "no-preview", "wayback-empty", "slow"}
	last := -1
	for _, l := range labels {
		idx := strings.Index(out, l+" [")
		require.GreaterOrEqual(t, idx, 0, "missing block for %s", l)
		assert.Greater(t, idx, last, "block %s out of order", l)
		last = idx
	}

	summary := strings.Index(out, "=== SUMMARY ===")
	require.Greater(t, summary, last)

	assert.Contains(t, out, "shots/about.png (1440x3100, 2048 bytes)")
	assert.Contains(t, out, "https://images.stripe.com/og.png")
	assert.Contains(t, out, "NO IMAGE FOUND")
	assert.Contains(t, out, "Content: No (42 chars)")
	assert.Contains(t, out, "NAVIGATION_TIMEOUT: navigate to https://slow.example.com: deadline exceeded")
	assert.Contains(t, out, "✗ REJECTED")

	tail := out[summary:]
	assert.Contains(t, tail, "Total:    5")
	assert.Contains(t, tail, "Passed:   3")
	assert.Contains(t, tail, "Failed:   2")
	assert.Contains(t, tail, "Rejected: 1")
}

func TestRender_NoColourOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResults()))
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))
	assert.Contains(t, buf.String(), "Total:    0")
	assert.NotContains(t, buf.String(), "Rejected")
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())
	assert.Equal(t, models.Summary{Total: 5, Passed: 3, Failed: 2, Rejected: 1}, s)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := New(sampleResults(), started)
	require.NotEmpty(t, r.RunID)
	require.NoError(t, WriteJSON(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		RunID     string           `json:"run_id"`
		StartedAt int64            `json:"started_at"`
		Summary   models.Summary   `json:"summary"`
		Results   []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, r.RunID, doc.RunID)
	assert.Equal(t, started.Unix(), doc.StartedAt)
	assert.Equal(t, 5, doc.Summary.Total)
	require.Len(t, doc.Results, 5)

	meta := doc.Results[2]["result"].(map[string]any)
	assert.Contains(t, meta, "image_url")
	assert.Nil(t, meta["image_url"])

	assert.Nil(t, doc.Results[4]["result"])
	errDetail := doc.Results[4]["error"].(map[string]any)
	assert.Equal(t, models.ErrCodeNavigationTimeout, errDetail["code"])
}

func TestNew_DistinctRunIDs(t *testing.T) {
	a := New(nil, time.Now())
	b := New(nil, time.Now())
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.NotNil(t, a.Results)
}

func TestRender_RelativeImageShowsDeclaredAndAbsolute(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, models.ResultSet{{
		Label: "relative-card", Target: "https://blog.example.com/posts/1", Operation: models.OpExtractMetaImage,
		Success: true,
		Result: &models.MetadataResult{
			ImageURL:    strPtr("/img/card.png"),
			ResolvedURL: "https://blog.example.com/img/card.png",
			Source:      "twitter:image",
		},
	}}))
	out := buf.String()
	assert.Contains(t, out, "Image:  /img/card.png")
	assert.Contains(t, out, "Abs:    https://blog.example.com/img/card.png")
}
