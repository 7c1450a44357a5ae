package importer

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer loads a page in a headless browser so client-rendered
// markup becomes visible to the extractor. Engines are tried in order:
// whatever chromedp finds on PATH first, then explicit fallback binaries,
// because deploy environments differ in which one is installed. Allocator
// and browser contexts are cancelled via defer on every path so repeated
// failed imports cannot leak OS processes.
type ChromeRenderer struct {
	// ExecPaths are candidate browser binaries. The empty string means
	// "chromedp's default lookup".
	ExecPaths []string
	Timeout   time.Duration
}

func NewChromeRenderer() *ChromeRenderer {
	paths := []string{""}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		paths = []string{p, ""}
	}
	paths = append(paths, "/usr/bin/chromium", "/usr/bin/chromium-browser")

	return &ChromeRenderer{
		ExecPaths: paths,
		Timeout:   45 * time.Second,
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	var lastErr error
	for _, execPath := range r.ExecPaths {
		html, err := r.renderWith(ctx, execPath, url)
		if err == nil {
			return html, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Printf("[browser] engine %q failed, trying next: %v", engineLabel(execPath), err)
	}
	return "", fmt.Errorf("headless render failed: %w", lastErr)
}

func (r *ChromeRenderer) renderWith(ctx context.Context, execPath, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.UserAgent(browserUserAgent),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		// Client-rendered platforms need a beat to hydrate before the
		// structured data and event DOM exist.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	if html == "" {
		return "", fmt.Errorf("rendered empty document for %s", url)
	}
	return html, nil
}

func engineLabel(execPath string) string {
	if execPath == "" {
		return "default"
	}
	return execPath
}
