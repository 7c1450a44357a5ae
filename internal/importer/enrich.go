package importer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults applied when an enrichment stage fails: the record stays fully
// usable even with the AI capability down.
const (
	DefaultEventType      = "Other"
	DefaultExcitementHook = "Don't miss this event!"
	defaultSummaryMaxLen  = 280
)

const enrichStageTimeout = 60 * time.Second

// Enricher drives the two-stage, non-blocking AI enrichment on top of an
// already-saved basic record. Stages are deliberately decoupled: a record
// can carry neither, either, or both AI field sets. Each stage
// read-modify-writes by identity rather than holding a long-lived
// reference to the record.
type Enricher struct {
	Store EventStore
	AI    AI // nil means enrichment is disabled; stages write defaults
}

func (e *Enricher) Available() bool {
	return e != nil && e.AI != nil
}

// Categorize runs stage 1. An AI failure downgrades to default values and
// leaves ai_categorized false so a later batch pass can retry; it is never
// surfaced as an import failure.
func (e *Enricher) Categorize(ctx context.Context, id uuid.UUID) error {
	ev, err := e.Store.GetEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("categorize: load event %s: %w", id, err)
	}

	eventType, areas := DefaultEventType, []string{}
	succeeded := false

	if e.AI != nil {
		sctx, cancel := context.WithTimeout(ctx, enrichStageTimeout)
		t, a, aiErr := e.AI.ClassifyEvent(sctx, ev.Title, TruncateText(ev.Description, 2000))
		cancel()
		if aiErr != nil {
			log.Printf("[enrich] categorization failed for %q: %v", ev.Title, aiErr)
		} else {
			eventType, areas, succeeded = t, a, true
		}
	}

	if err := e.Store.SetCategorization(ctx, id, eventType, areas, succeeded); err != nil {
		return fmt.Errorf("categorize: persist %s: %w", id, err)
	}
	if succeeded {
		log.Printf("🤖 [enrich] categorized %q as %s", ev.Title, eventType)
	}
	return nil
}

// Summarize runs stage 2. On success it also computes an embedding for
// related-event lookups; embedding failure alone does not fail the stage.
func (e *Enricher) Summarize(ctx context.Context, id uuid.UUID) error {
	ev, err := e.Store.GetEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("summarize: load event %s: %w", id, err)
	}

	summary := TruncateText(ev.Description, defaultSummaryMaxLen)
	if summary == "" {
		summary = ev.Title
	}
	keywords := []string{}
	hook := DefaultExcitementHook
	var embedding []float32
	succeeded := false

	if e.AI != nil {
		sctx, cancel := context.WithTimeout(ctx, enrichStageTimeout)
		s, k, h, aiErr := e.AI.SummarizeEvent(sctx, ev.Title, TruncateText(ev.Description, 4000), ev.Location, ev.Date)
		cancel()
		if aiErr != nil {
			log.Printf("[enrich] summarization failed for %q: %v", ev.Title, aiErr)
		} else {
			summary, keywords, hook, succeeded = s, k, h, true

			ectx, ecancel := context.WithTimeout(ctx, enrichStageTimeout)
			vec, embErr := e.AI.GenerateEmbedding(ectx, ev.Title+"\n"+summary)
			ecancel()
			if embErr != nil {
				log.Printf("[enrich] embedding failed for %q: %v", ev.Title, embErr)
			} else {
				embedding = vec
			}
		}
	}

	if err := e.Store.SetSummary(ctx, id, summary, keywords, hook, embedding, succeeded); err != nil {
		return fmt.Errorf("summarize: persist %s: %w", id, err)
	}
	if succeeded {
		log.Printf("🤖 [enrich] summarized %q", ev.Title)
	}
	return nil
}

// EnrichBoth is the legacy combined mode: both stages run concurrently and
// the call returns once both have settled. Stage errors are logged, never
// propagated; by the time enrichment runs the import already succeeded.
func (e *Enricher) EnrichBoth(ctx context.Context, id uuid.UUID) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := e.Categorize(ctx, id); err != nil {
			log.Printf("[enrich] categorize stage error for %s: %v", id, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := e.Summarize(ctx, id); err != nil {
			log.Printf("[enrich] summarize stage error for %s: %v", id, err)
		}
	}()

	wg.Wait()
}
