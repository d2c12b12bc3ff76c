package executor

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/pagecheck/models"
)

// Social preview tags in preference order. Both the property= and name=
// spellings occur in the wild for each.
var metaImageTags = []struct {
	source string
	sel    cascadia.Selector
}{
	{"og:image", cascadia.MustCompile(`meta[property="og:image"], meta[name="og:image"]`)},
	{"twitter:image", cascadia.MustCompile(`meta[name="twitter:image"], meta[property="twitter:image"]`)},
}

func extractMetaImage(ctx context.Context, page Page, nav *Navigation) (*models.MetadataResult, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeOperation, "read page html")
	}
	return findMetaImage(html, nav.FinalURL)
}

// findMetaImage returns the first declared social preview image. Only the
// first tag of each kind counts, and one with empty content is treated as
// missing. The content is reported as declared; a relative one also gets
// its absolute form against pageURL.
func findMetaImage(html, pageURL string) (*models.MetadataResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, models.NewRunError(models.ErrCodeOperation, "parse page html", err)
	}

	for _, tag := range metaImageTags {
		content := strings.TrimSpace(doc.FindMatcher(tag.sel).First().AttrOr("content", ""))
		if content == "" {
			continue
		}
		meta := &models.MetadataResult{ImageURL: &content, Source: tag.source}
		if resolved := resolveURL(pageURL, content); resolved != content {
			meta.ResolvedURL = resolved
		}
		return meta, nil
	}
	return &models.MetadataResult{}, nil
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	return b.ResolveReference(r).String()
}
