package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/david/event-finder/internal/models"
	"github.com/david/event-finder/internal/platform"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// detachedEnrichTimeout bounds the background enrichment continuation of a
// progressive import.
const detachedEnrichTimeout = 3 * time.Minute

var descriptionPolicy = bluemonday.UGCPolicy()

// ImportResult is the successful outcome of an import. AIProcessing is
// true when enrichment continues in the background after the response.
type ImportResult struct {
	Event        *models.Event `json:"event"`
	Message      string        `json:"message"`
	AIProcessing bool          `json:"ai_processing,omitempty"`
}

// Coordinator ties the pipeline together: detection, duplicate check,
// fetch, persistence, and enrichment. The basic-record write is the commit
// point; once written, the import is successful even if enrichment fails.
type Coordinator struct {
	Store    EventStore
	Guard    *DuplicateGuard
	Chain    DraftFetcher
	Enricher *Enricher
}

func NewCoordinator(store EventStore, chain DraftFetcher, enricher *Enricher) *Coordinator {
	return &Coordinator{
		Store:    store,
		Guard:    &DuplicateGuard{Store: store},
		Chain:    chain,
		Enricher: enricher,
	}
}

// Import runs the synchronous full workflow: the response carries the
// enriched record (or the basic record with defaults if AI is down).
func (c *Coordinator) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	ev, err := c.importBasic(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.Enricher.Available() {
		c.Enricher.EnrichBoth(ctx, ev.ID)
		if enriched, err := c.Store.GetEvent(ctx, ev.ID); err == nil && enriched != nil {
			ev = enriched
		}
	}

	return &ImportResult{Event: ev, Message: "Event imported successfully"}, nil
}

// ImportProgressive returns as soon as the basic record is persisted and
// enriches it as a detached continuation. Callers must not assume
// enrichment has completed when this returns.
func (c *Coordinator) ImportProgressive(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	ev, err := c.importBasic(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Event: ev, Message: "Event imported successfully"}

	if c.Enricher.Available() {
		result.AIProcessing = true
		result.Message = "Event imported; AI enrichment in progress"
		id := ev.ID
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), detachedEnrichTimeout)
			defer cancel()
			c.Enricher.EnrichBoth(bgCtx, id)
		}()
	}

	return result, nil
}

// importBasic walks the terminal states: Detecting, CheckingDuplicate,
// Fetching (location resolution happens inside the chain's mapping), and
// Persisting. Every abort is an *ImportError with a user-safe message.
func (c *Coordinator) importBasic(ctx context.Context, req ImportRequest) (*models.Event, error) {
	p := platform.Detect(req.URL)
	if p == platform.Unknown {
		return nil, errUnsupportedPlatform(req.URL)
	}

	id := platform.ExtractID(req.URL, p)
	if id == "" {
		return nil, errInvalidURLFormat(p, req.URL)
	}

	// The duplicate lookup always runs before any fetch: without force it
	// aborts, with force it locates the identity the update must target.
	existing, err := c.Guard.Existing(ctx, req.URL, id)
	if err != nil {
		return nil, err
	}
	if existing != nil && !req.ForceUpdate {
		return nil, errAlreadyImported(p, req.URL, existing.Title)
	}

	draft, err := c.Chain.Obtain(ctx, p, id, req.URL)
	if err != nil {
		return nil, err
	}

	ev := eventFromDraft(draft)

	if existing != nil {
		// Force update: overwrite content in place, preserving identity
		// and engagement counters.
		if err := c.Store.ReplaceEventContent(ctx, existing.ID, ev); err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
		ev.ID = existing.ID
		ev.ViewCount = existing.ViewCount
		ev.SaveCount = existing.SaveCount
		ev.CreatedAt = existing.CreatedAt
		log.Printf("[import] force-updated %q (%s)", ev.Title, ev.ID)
		return ev, nil
	}

	if err := c.Store.InsertEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	log.Printf("[import] saved %q (%s) via %s", ev.Title, ev.ID, ev.Platform)
	return ev, nil
}

func eventFromDraft(draft *NormalizedEventDraft) *models.Event {
	return &models.Event{
		ID:                    uuid.New(),
		Title:                 draft.Title,
		Description:           descriptionPolicy.Sanitize(draft.Description),
		Date:                  draft.Date,
		Time:                  draft.Time,
		Location:              draft.Location,
		City:                  draft.City,
		CityConfidence:        draft.CityConfidence,
		NeedsCityConfirmation: draft.NeedsCityConfirmation,
		Organizer:             draft.Organizer,
		URL:                   draft.URL,
		ImageURL:              draft.ImageURL,
		Categories:            draft.Categories,
		Platform:              draft.PlatformTag,
		PlatformID:            draft.PlatformID,
	}
}
