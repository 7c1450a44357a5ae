package importer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyFetcher fetches a single event page over plain HTTP with a realistic
// browser user agent. Event imports are one page per request, so no crawl
// rules or pagination are involved.
type CollyFetcher struct {
	Timeout time.Duration
}

func NewCollyFetcher() *CollyFetcher {
	return &CollyFetcher{Timeout: 20 * time.Second}
}

func (f *CollyFetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid URL: %q", rawURL)
	}

	c := colly.NewCollector(
		colly.UserAgent(browserUserAgent),
		colly.DetectCharset(),
	)
	timeout := f.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-GB,en;q=0.9")
	})

	var html string
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", rawURL, err)
	})

	if err := c.Visit(rawURL); err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if html == "" {
		return "", fmt.Errorf("fetch %s: empty response body", rawURL)
	}
	return html, nil
}
