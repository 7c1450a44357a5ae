package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/david/event-finder/internal/models"
	"github.com/google/uuid"
)

func seedEvent(store *fakeStore, title, description string) uuid.UUID {
	id := uuid.New()
	store.events[id] = &models.Event{
		ID:          id,
		Title:       title,
		Description: description,
		Date:        "2026-09-12",
		Location:    "The Engine Shed",
		City:        "Bristol",
	}
	return id
}

func TestCategorizeSuccess(t *testing.T) {
	store := newFakeStore()
	id := seedEvent(store, "AI Builders Meetup", "Talks on applied machine learning.")
	enricher := &Enricher{Store: store, AI: &fakeAI{eventType: "Meetup", interestAreas: []string{"AI/ML"}}}

	if err := enricher.Categorize(context.Background(), id); err != nil {
		t.Fatalf("categorize failed: %v", err)
	}

	ev := store.events[id]
	if ev.AIEventType != "Meetup" {
		t.Errorf("expected event type Meetup, got %q", ev.AIEventType)
	}
	if len(ev.AIInterestAreas) != 1 || ev.AIInterestAreas[0] != "AI/ML" {
		t.Errorf("expected interest areas [AI/ML], got %v", ev.AIInterestAreas)
	}
	if !ev.AICategorized {
		t.Error("expected ai_categorized to be set")
	}
}

func TestCategorizeFailureWritesDefaults(t *testing.T) {
	store := newFakeStore()
	id := seedEvent(store, "AI Builders Meetup", "Talks on applied machine learning.")
	enricher := &Enricher{Store: store, AI: &fakeAI{classifyErr: errors.New("rate limited")}}

	if err := enricher.Categorize(context.Background(), id); err != nil {
		t.Fatalf("AI failure must not surface as an error, got: %v", err)
	}

	ev := store.events[id]
	if ev.AIEventType != DefaultEventType {
		t.Errorf("expected default event type %q, got %q", DefaultEventType, ev.AIEventType)
	}
	if ev.AICategorized {
		t.Error("failed categorization must leave ai_categorized false so it can be retried")
	}
}

func TestSummarizeSuccess(t *testing.T) {
	store := newFakeStore()
	id := seedEvent(store, "AI Builders Meetup", "Talks on applied machine learning.")
	enricher := &Enricher{Store: store, AI: &fakeAI{
		summary:   "An evening of applied ML talks in Bristol.",
		keywords:  []string{"machine learning"},
		hook:      "Meet the builders shaping ML in the South West!",
		embedding: []float32{0.1, 0.2},
	}}

	if err := enricher.Summarize(context.Background(), id); err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	ev := store.events[id]
	if ev.AISummary != "An evening of applied ML talks in Bristol." {
		t.Errorf("unexpected summary %q", ev.AISummary)
	}
	if ev.AIExcitementHook == DefaultExcitementHook {
		t.Error("expected the AI hook, not the default")
	}
	if !ev.AISummarized {
		t.Error("expected ai_summarized to be set")
	}
}

func TestSummarizeFailureWritesDefaults(t *testing.T) {
	store := newFakeStore()
	id := seedEvent(store, "AI Builders Meetup", "Talks on applied machine learning.")
	enricher := &Enricher{Store: store, AI: &fakeAI{summarizeErr: errors.New("rate limited")}}

	if err := enricher.Summarize(context.Background(), id); err != nil {
		t.Fatalf("AI failure must not surface as an error, got: %v", err)
	}

	ev := store.events[id]
	if ev.AISummary != "Talks on applied machine learning." {
		t.Errorf("expected truncated description as fallback summary, got %q", ev.AISummary)
	}
	if ev.AIExcitementHook != DefaultExcitementHook {
		t.Errorf("expected default hook, got %q", ev.AIExcitementHook)
	}
	if ev.AISummarized {
		t.Error("failed summarization must leave ai_summarized false so it can be retried")
	}
}

func TestSummarizeToleratesEmbeddingFailure(t *testing.T) {
	store := newFakeStore()
	id := seedEvent(store, "AI Builders Meetup", "Talks on applied machine learning.")
	enricher := &Enricher{Store: store, AI: &fakeAI{
		summary:      "An evening of applied ML talks.",
		hook:         "Don't miss the demos!",
		embeddingErr: errors.New("embedding model down"),
	}}

	if err := enricher.Summarize(context.Background(), id); err != nil {
		t.Fatalf("embedding failure must not fail the stage, got: %v", err)
	}
	if !store.events[id].AISummarized {
		t.Error("summary stage should still succeed when only the embedding fails")
	}
}

func TestEnrichBothIndependentStages(t *testing.T) {
	store := newFakeStore()
	id := seedEvent(store, "AI Builders Meetup", "Talks on applied machine learning.")
	// Categorization fails, summarization succeeds: the stages must not
	// drag each other down.
	enricher := &Enricher{Store: store, AI: &fakeAI{
		classifyErr: errors.New("rate limited"),
		summary:     "An evening of applied ML talks.",
		hook:        "Don't miss the demos!",
	}}

	enricher.EnrichBoth(context.Background(), id)

	ev := store.events[id]
	if ev.AICategorized {
		t.Error("expected categorization to have failed")
	}
	if ev.AIEventType != DefaultEventType {
		t.Errorf("expected default event type after failure, got %q", ev.AIEventType)
	}
	if !ev.AISummarized {
		t.Error("expected summarization to have succeeded independently")
	}
}

func TestEnricherAvailable(t *testing.T) {
	var nilEnricher *Enricher
	if nilEnricher.Available() {
		t.Error("nil enricher must report unavailable")
	}
	if (&Enricher{}).Available() {
		t.Error("enricher without AI must report unavailable")
	}
	if !(&Enricher{AI: &fakeAI{}}).Available() {
		t.Error("enricher with AI must report available")
	}
}
