package executor

import (
	"context"
	nurl "net/url"
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/pagecheck/models"
	"github.com/use-agent/pagecheck/simhash"
)

func validateContent(ctx context.Context, page Page, nav *Navigation) (*models.ValidationResult, error) {
	text, err := page.InnerText(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeOperation, "read page text")
	}

	// Length in UTF-16 code units, as the DOM reports innerText.length.
	length := len(utf16.Encode([]rune(text)))
	result := &models.ValidationResult{
		HTTPStatus:    nav.StatusCode,
		FinalURL:      nav.FinalURL,
		ContentLength: length,
		HasContent:    length > models.MinContentLength,
		Fingerprint:   simhash.Fingerprint(text),
	}

	// The title is a diagnostic; a page that cannot produce one still
	// validates on status and length alone.
	if html, err := page.HTML(ctx); err == nil {
		result.Title = pageTitle(html, nav.FinalURL)
	}
	return result, nil
}

// pageTitle prefers the readability title, which strips site-name suffixes,
// and falls back to the raw <title> element.
func pageTitle(html, pageURL string) string {
	if u, err := nurl.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), u); err == nil {
			if t := strings.TrimSpace(article.Title); t != "" {
				return t
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
