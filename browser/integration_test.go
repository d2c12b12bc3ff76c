//go:build integration

package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/pagecheck/config"
	"github.com/use-agent/pagecheck/executor"
	"github.com/use-agent/pagecheck/models"
	"github.com/use-agent/pagecheck/runner"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/og", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<meta name="twitter:image" content="https://cdn.example.com/tw.png">
			<meta property="og:image" content="https://cdn.example.com/og.png">
			<title>OG</title></head><body>hello</body></html>`)
	})
	mux.HandleFunc("/twitter-only", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="twitter:image" content="/img/tw.png"></head><body></body></html>`)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Archived Article</title></head><body><p>%s</p></body></html>`,
			strings.Repeat("An archived paragraph about broadcast history. ", 10))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Nothing here.</body></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><body>`+strings.Repeat("not found ", 30)+`</body></html>`)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	})
	mux.HandleFunc("/tall", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body style="margin:0"><div style="height:3000px;background:#def">tall</div></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openSession(t *testing.T, maxPages int) *Session {
	t.Helper()
	cfg := config.BrowserConfig{
		Headless:   true,
		MaxPages:   maxPages,
		NoSandbox:  true,
		BrowserBin: os.Getenv("PAGECHECK_BROWSER_BIN"),
	}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIntegration_Batch(t *testing.T) {
	srv := testServer(t)
	session := openSession(t, 2)
	dir := t.TempDir()

	items := []models.WorkItem{
		{Label: "og", Target: srv.URL + "/og", Operation: models.OpExtractMetaImage},
		{Label: "twitter", Target: srv.URL + "/twitter-only", Operation: models.OpExtractMetaImage},
		{Label: "article", Target: srv.URL + "/moved", Operation: models.OpValidateContent, WaitCondition: models.WaitDOMContentLoaded, SettleDelayMs: 200},
		{Label: "empty", Target: srv.URL + "/empty", Operation: models.OpValidateContent},
		{Label: "missing", Target: srv.URL + "/missing", Operation: models.OpValidateContent},
		{Label: "slow", Target: srv.URL + "/slow", Operation: models.OpValidateContent, TimeoutMs: 1000},
		{Label: "desktop", Target: srv.URL + "/tall", Operation: models.OpScreenshot,
			Viewport: &models.Viewport{Width: 1440, Height: 900}, OutputPath: filepath.Join(dir, "desktop.png")},
		{Label: "mobile", Target: srv.URL + "/tall", Operation: models.OpScreenshot,
			Viewport: &models.Viewport{Width: 390, Height: 844}, OutputPath: filepath.Join(dir, "mobile.png")},
	}
	for i := range items {
		items[i].Defaults()
	}

	open := func(context.Context) (runner.Session, error) { return session, nil }
	exec := executor.New(executor.Options{Prober: NewProber("", 5*time.Second), BlockAds: true})

	results, err := runner.New(open, exec).Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, len(items))

	byLabel := map[string]models.Outcome{}
	for _, o := range results {
		byLabel[o.Label] = o
	}

	og := byLabel["og"].Result.(*models.MetadataResult)
	require.NotNil(t, og.ImageURL)
	assert.Equal(t, "https://cdn.example.com/og.png", *og.ImageURL)

	tw := byLabel["twitter"].Result.(*models.MetadataResult)
	require.NotNil(t, tw.ImageURL)
	assert.Equal(t, "/img/tw.png", *tw.ImageURL)
	assert.Equal(t, srv.URL+"/img/tw.png", tw.ResolvedURL)
	assert.Equal(t, "twitter:image", tw.Source)

	article := byLabel["article"]
	assert.True(t, article.Success)
	v := article.Result.(*models.ValidationResult)
	assert.Equal(t, 200, v.HTTPStatus)
	assert.Equal(t, srv.URL+"/article", v.FinalURL)
	assert.Equal(t, "Archived Article", v.Title)

	assert.True(t, byLabel["empty"].Rejected())
	assert.True(t, byLabel["missing"].Rejected())
	assert.Equal(t, 404, byLabel["missing"].Result.(*models.ValidationResult).HTTPStatus)

	slow := byLabel["slow"]
	require.NotNil(t, slow.Error)
	assert.Equal(t, models.ErrCodeNavigationTimeout, slow.Error.Code)

	desktop := byLabel["desktop"].Result.(*models.ScreenshotResult)
	mobile := byLabel["mobile"].Result.(*models.ScreenshotResult)
	assert.Equal(t, 1440, desktop.Width)
	assert.Equal(t, 390, mobile.Width)
	assert.GreaterOrEqual(t, desktop.Height, 3000)
	assert.FileExists(t, desktop.Path)

	assert.Zero(t, session.OpenPages())
}

func TestIntegration_ViewportOnlyScaled(t *testing.T) {
	srv := testServer(t)
	session := openSession(t, 1)

	page, err := session.NewPage(context.Background())
	require.NoError(t, err)
	defer page.Close()

	out := filepath.Join(t.TempDir(), "card.png")
	res, err := executor.New(executor.Options{}).Execute(context.Background(), page, models.WorkItem{
		Label: "card", Target: srv.URL + "/tall", Operation: models.OpScreenshot,
		Viewport:   &models.Viewport{Width: 1080, Height: 1080, ScaleFactor: 2},
		OutputPath: out,
		FullPage:   func() *bool { b := false; return &b }(),
	})
	require.NoError(t, err)
	shot := res.(*models.ScreenshotResult)
	assert.Equal(t, 2160, shot.Width)
	assert.Equal(t, 2160, shot.Height)
}

func TestIntegration_PageLimit(t *testing.T) {
	session := openSession(t, 1)

	first, err := session.NewPage(context.Background())
	require.NoError(t, err)

	_, err = session.NewPage(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeResourceExhausted, models.CodeOf(err))

	require.NoError(t, first.Close())
	second, err := session.NewPage(context.Background())
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestIntegration_CloseIsIdempotent(t *testing.T) {
	session := openSession(t, 2)
	_, err := session.NewPage(context.Background())
	require.NoError(t, err)

	require.NoError(t, session.Close())
	assert.NoError(t, session.Close())
	assert.Zero(t, session.OpenPages())

	_, err = session.NewPage(context.Background())
	assert.Equal(t, models.ErrCodeResourceExhausted, models.CodeOf(err))
}
