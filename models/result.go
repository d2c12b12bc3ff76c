package models

// OperationResult is the value produced by a successful page operation.
// It is a closed union: ScreenshotResult, MetadataResult or ValidationResult.
type OperationResult interface {
	// Operation returns the operation that produced the result.
	Operation() Operation

	isOperationResult()
}

// ScreenshotResult describes a raster written to disk.
type ScreenshotResult struct {
	// Path is the file the image was written to.
	Path string `json:"path"`

	// BytesWritten is the size of the encoded PNG.
	BytesWritten int `json:"bytes_written"`

	// Width and Height are the raster dimensions in device pixels.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MetadataResult carries the social-preview image of a page.
type MetadataResult struct {
	// ImageURL is the tag's content attribute exactly as declared, trimmed.
	// It is nil when the page declares neither og:image nor twitter:image.
	ImageURL *string `json:"image_url"`

	// ResolvedURL is ImageURL made absolute against the page URL. It is set
	// only when ImageURL is relative.
	ResolvedURL string `json:"resolved_url,omitempty"`

	// Source names the meta tag that supplied ImageURL.
	Source string `json:"source,omitempty"`
}

// ValidationResult describes whether a page rendered usable content.
type ValidationResult struct {
	// HTTPStatus is the status of the main document. Local files report 200.
	HTTPStatus int `json:"http_status"`

	// FinalURL is the settled address after redirects.
	FinalURL string `json:"final_url"`

	// ContentLength is the rendered plain-text length in UTF-16 code units,
	// matching the DOM's innerText.length. Characters outside the BMP count
	// twice.
	ContentLength int `json:"content_length"`

	// HasContent is true when ContentLength exceeds MinContentLength.
	HasContent bool `json:"has_content"`

	// Title is the page title, when one could be determined.
	Title string `json:"title,omitempty"`

	// Fingerprint is a SimHash of the rendered text, for comparing reruns.
	Fingerprint uint64 `json:"fingerprint,omitempty"`
}

// MinContentLength is the rendered text length a page must exceed to count
// as having content.
const MinContentLength = 100

func (ScreenshotResult) Operation() Operation { return OpScreenshot }
func (MetadataResult) Operation() Operation   { return OpExtractMetaImage }
func (ValidationResult) Operation() Operation { return OpValidateContent }

func (ScreenshotResult) isOperationResult() {}
func (MetadataResult) isOperationResult()   {}
func (ValidationResult) isOperationResult() {}

// Acceptable reports whether the validated page passes the content gate:
// a 200 response with more than MinContentLength characters of text.
func (r ValidationResult) Acceptable() bool {
	return r.HTTPStatus == 200 && r.HasContent
}
