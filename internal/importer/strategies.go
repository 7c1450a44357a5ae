package importer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/david/event-finder/internal/platform"
)

const (
	provenanceAPI     = "api"
	provenanceScraped = "scraped"
)

const (
	apiStrategyTimeout     = 15 * time.Second
	httpStrategyTimeout    = 25 * time.Second
	browserStrategyTimeout = 60 * time.Second
)

// fetchStrategy is one way of obtaining raw event data. A nil draft with a
// nil error means "nothing here, advance"; an error also advances but is
// kept as the eventual FetchExhausted cause.
type fetchStrategy struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) (*NormalizedEventDraft, error)
}

// FetchChain orchestrates the ordered fallback across fetch strategies:
// authenticated API, plain HTTP + structured data, headless render +
// structured data, and DOM-selector scraping. First success wins.
type FetchChain struct {
	Fetcher  PageFetcher
	Renderer Renderer
	Location *LocationResolver
	// Client is used for platform API lookups.
	Client *http.Client
}

func NewFetchChain(fetcher PageFetcher, renderer Renderer, location *LocationResolver) *FetchChain {
	return &FetchChain{
		Fetcher:  fetcher,
		Renderer: renderer,
		Location: location,
		Client:   &http.Client{Timeout: apiStrategyTimeout},
	}
}

// Obtain runs the strategy chain for one event. Each strategy gets its own
// bounded timeout so a hung upstream cannot stall the whole chain; a
// timeout is treated like any other strategy failure.
func (c *FetchChain) Obtain(ctx context.Context, p platform.Platform, id, url string) (*NormalizedEventDraft, error) {
	strategies := c.strategiesFor(p, id, url)
	if len(strategies) == 0 {
		return nil, errFetchExhausted(p, url, fmt.Errorf("no fetch strategies for platform %s", p))
	}

	var lastErr error
	for _, strat := range strategies {
		sctx, cancel := context.WithTimeout(ctx, strat.timeout)
		draft, err := strat.run(sctx)
		cancel()

		if err != nil {
			log.Printf("[import] strategy %s failed for %s: %v", strat.name, url, err)
			lastErr = err
			continue
		}
		if draft == nil {
			log.Printf("[import] strategy %s found nothing for %s, advancing", strat.name, url)
			continue
		}
		log.Printf("[import] strategy %s succeeded for %s (%q)", strat.name, url, draft.Title)
		return draft, nil
	}

	return nil, errFetchExhausted(p, url, lastErr)
}

func (c *FetchChain) strategiesFor(p platform.Platform, id, url string) []fetchStrategy {
	cfg := platform.Lookup(p)
	if cfg == nil {
		return nil
	}

	var strategies []fetchStrategy

	if cfg.API.KeyEnvVar != "" && os.Getenv(cfg.API.KeyEnvVar) != "" {
		strategies = append(strategies, fetchStrategy{
			name:    string(p) + "-api",
			timeout: apiStrategyTimeout,
			run: func(ctx context.Context) (*NormalizedEventDraft, error) {
				return c.fetchFromAPI(ctx, p, cfg, id, url)
			},
		})
	}

	if cfg.StructuredData {
		strategies = append(strategies,
			fetchStrategy{
				name:    "http-structured",
				timeout: httpStrategyTimeout,
				run: func(ctx context.Context) (*NormalizedEventDraft, error) {
					html, err := c.Fetcher.FetchHTML(ctx, url)
					if err != nil {
						return nil, err
					}
					raw := ExtractStructuredData(html)
					if raw == nil {
						return nil, nil
					}
					return c.draftFromDescriptor(ctx, raw, p, id, url, provenanceScraped), nil
				},
			},
			fetchStrategy{
				name:    "browser-structured",
				timeout: browserStrategyTimeout,
				run: func(ctx context.Context) (*NormalizedEventDraft, error) {
					html, err := c.Renderer.Render(ctx, url)
					if err != nil {
						return nil, err
					}
					raw := ExtractStructuredData(html)
					if raw == nil {
						return nil, nil
					}
					return c.draftFromDescriptor(ctx, raw, p, id, url, provenanceScraped), nil
				},
			},
		)
	} else {
		strategies = append(strategies, fetchStrategy{
			name:    "browser-dom",
			timeout: browserStrategyTimeout,
			run: func(ctx context.Context) (*NormalizedEventDraft, error) {
				html, err := c.Renderer.Render(ctx, url)
				if err != nil {
					return nil, err
				}
				// A structured block still wins if the platform grew one.
				if raw := ExtractStructuredData(html); raw != nil {
					return c.draftFromDescriptor(ctx, raw, p, id, url, provenanceScraped), nil
				}
				raw := scrapeWithSelectors(html, cfg.Selectors)
				if raw == nil {
					return nil, nil
				}
				return c.draftFromDescriptor(ctx, raw, p, id, url, provenanceScraped), nil
			},
		})
	}

	return strategies
}
