// Package fetch acquires page snapshots for extraction, either by
// rendering in a headless browser or with a plain HTTP client.
package fetch

import "context"

// Mode selects how a page is acquired.
type Mode string

const (
	// ModeBrowser renders the page in headless Chrome so JavaScript-built
	// content is present in the snapshot.
	ModeBrowser Mode = "browser"
	// ModeStatic fetches the raw HTML over HTTP without executing scripts.
	ModeStatic Mode = "static"
)

// PageSnapshot is a fully acquired representation of one URL.
type PageSnapshot struct {
	URL        string
	FinalURL   string
	Title      string
	HTML       string
	Text       string
	StatusCode int
}

// Fetcher turns a URL into a PageSnapshot.
type Fetcher interface {
	Fetch(ctx context.Context, url string, mode Mode) (*PageSnapshot, error)
}

// ScreenshotTaker captures sectioned viewport screenshots of a page,
// returned as base64-encoded JPEG data in top-to-bottom order.
type ScreenshotTaker interface {
	Screenshots(ctx context.Context, url string, sections int) ([]string, error)
}
