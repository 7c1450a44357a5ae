package importer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/david/event-finder/internal/models"
	"github.com/david/event-finder/internal/platform"
	"github.com/google/uuid"
)

// fakeStore is an in-memory EventStore for coordinator and enricher
// tests. The mutex matters because EnrichBoth hits it from two goroutines.
type fakeStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]*models.Event
	inserts  int
	replaces int
}

func newFakeStore() *fakeStore {
	return &fakeStore{events: map[uuid.UUID]*models.Event{}}
}

func (s *fakeStore) FindByURLOrPlatformID(ctx context.Context, url, platformID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.URL == url || (platformID != "" && ev.PlatformID == platformID) {
			return ev, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertEvent(ctx context.Context, ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	cp := *ev
	s.events[ev.ID] = &cp
	return nil
}

func (s *fakeStore) ReplaceEventContent(ctx context.Context, id uuid.UUID, ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[id]
	if !ok {
		return errors.New("event not found")
	}
	s.replaces++
	cp := *ev
	cp.ID = existing.ID
	cp.ViewCount = existing.ViewCount
	cp.SaveCount = existing.SaveCount
	cp.CreatedAt = existing.CreatedAt
	s.events[id] = &cp
	return nil
}

func (s *fakeStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (s *fakeStore) SetCategorization(ctx context.Context, id uuid.UUID, eventType string, interestAreas []string, succeeded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return errors.New("event not found")
	}
	ev.AIEventType = eventType
	ev.AIInterestAreas = interestAreas
	ev.AICategorized = succeeded
	return nil
}

func (s *fakeStore) SetSummary(ctx context.Context, id uuid.UUID, summary string, keywords []string, hook string, embedding []float32, succeeded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return errors.New("event not found")
	}
	ev.AISummary = summary
	ev.AITechnicalKeywords = keywords
	ev.AIExcitementHook = hook
	ev.AISummarized = succeeded
	return nil
}

// fakeChain returns a fixed draft, sidestepping any network fetch.
type fakeChain struct {
	draft *NormalizedEventDraft
	err   error
	calls int
}

func (c *fakeChain) Obtain(ctx context.Context, p platform.Platform, id, url string) (*NormalizedEventDraft, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	draft := *c.draft
	draft.PlatformID = id
	draft.PlatformTag = string(p) + "-" + provenanceScraped
	draft.URL = url
	return &draft, nil
}

func testDraft(title string) *NormalizedEventDraft {
	return &NormalizedEventDraft{
		Title:          title,
		Description:    "A very good event.",
		Date:           "2026-09-12",
		Time:           "6:00 PM",
		Location:       "The Engine Shed",
		City:           "Bristol",
		CityConfidence: 1.0,
		Organizer:      "Tech Bristol",
		Categories:     []string{"Scraped"},
	}
}

func TestImportRejectsUnsupportedPlatform(t *testing.T) {
	coord := NewCoordinator(newFakeStore(), &fakeChain{draft: testDraft("X")}, &Enricher{})

	_, err := coord.Import(context.Background(), ImportRequest{URL: "https://www.meetup.com/some-group/events/1234/"})
	ie, ok := AsImportError(err)
	if !ok {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if ie.Kind != FailUnsupportedPlatform {
		t.Errorf("expected kind %s, got %s", FailUnsupportedPlatform, ie.Kind)
	}
	if !strings.Contains(ie.Message, "Luma") {
		t.Errorf("expected message to list supported platforms, got %q", ie.Message)
	}
}

func TestImportRejectsInvalidURLFormat(t *testing.T) {
	coord := NewCoordinator(newFakeStore(), &fakeChain{draft: testDraft("X")}, &Enricher{})

	_, err := coord.Import(context.Background(), ImportRequest{URL: "https://lu.ma/"})
	ie, ok := AsImportError(err)
	if !ok {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if ie.Kind != FailInvalidURLFormat {
		t.Errorf("expected kind %s, got %s", FailInvalidURLFormat, ie.Kind)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	store := newFakeStore()
	chain := &fakeChain{draft: testDraft("Bristol Tech Social")}
	coord := NewCoordinator(store, chain, &Enricher{})
	ctx := context.Background()

	req := ImportRequest{URL: "https://lu.ma/bristol-tech-social"}
	if _, err := coord.Import(ctx, req); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	_, err := coord.Import(ctx, req)
	ie, ok := AsImportError(err)
	if !ok {
		t.Fatalf("expected ImportError on duplicate, got %v", err)
	}
	if ie.Kind != FailAlreadyImported {
		t.Errorf("expected kind %s, got %s", FailAlreadyImported, ie.Kind)
	}
	if ie.ExistingTitle != "Bristol Tech Social" {
		t.Errorf("expected conflict to carry the existing title, got %q", ie.ExistingTitle)
	}
	if !strings.Contains(ie.Message, "Bristol Tech Social") {
		t.Errorf("expected message to name the existing event, got %q", ie.Message)
	}

	if store.inserts != 1 {
		t.Errorf("expected exactly one insert, got %d", store.inserts)
	}
	if chain.calls != 1 {
		t.Errorf("duplicate import must not fetch again; chain was called %d times", chain.calls)
	}
	if len(store.events) != 1 {
		t.Errorf("expected one stored event, got %d", len(store.events))
	}
}

func TestImportForceUpdatePreservesIdentity(t *testing.T) {
	store := newFakeStore()
	coord := NewCoordinator(store, &fakeChain{draft: testDraft("Bristol Tech Social")}, &Enricher{})
	ctx := context.Background()

	req := ImportRequest{URL: "https://lu.ma/bristol-tech-social"}
	first, err := coord.Import(ctx, req)
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	// Simulate engagement between imports.
	store.events[first.Event.ID].ViewCount = 42
	store.events[first.Event.ID].SaveCount = 7

	coord.Chain = &fakeChain{draft: testDraft("Bristol Tech Social v2")}
	req.ForceUpdate = true
	second, err := coord.Import(ctx, req)
	if err != nil {
		t.Fatalf("force update failed: %v", err)
	}

	if second.Event.ID != first.Event.ID {
		t.Errorf("force update must keep the record id: %s vs %s", second.Event.ID, first.Event.ID)
	}
	if second.Event.Title != "Bristol Tech Social v2" {
		t.Errorf("expected refreshed title, got %q", second.Event.Title)
	}
	if second.Event.ViewCount != 42 || second.Event.SaveCount != 7 {
		t.Errorf("engagement counters must survive force update, got views=%d saves=%d",
			second.Event.ViewCount, second.Event.SaveCount)
	}
	if store.inserts != 1 || store.replaces != 1 {
		t.Errorf("expected one insert and one replace, got %d/%d", store.inserts, store.replaces)
	}
}

func TestImportSanitizesDescription(t *testing.T) {
	store := newFakeStore()
	draft := testDraft("Scripted Event")
	draft.Description = `Great talks<script>alert("x")</script> and <b>pizza</b>.`
	coord := NewCoordinator(store, &fakeChain{draft: draft}, &Enricher{})

	result, err := coord.Import(context.Background(), ImportRequest{URL: "https://lu.ma/scripted-event"})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if strings.Contains(result.Event.Description, "<script>") {
		t.Errorf("script tags must be stripped, got %q", result.Event.Description)
	}
	if !strings.Contains(result.Event.Description, "<b>pizza</b>") {
		t.Errorf("benign formatting should survive, got %q", result.Event.Description)
	}
}

func TestImportFetchExhausted(t *testing.T) {
	coord := NewCoordinator(newFakeStore(), &fakeChain{err: errFetchExhausted(platform.Luma, "https://lu.ma/gone", errors.New("404"))}, &Enricher{})

	_, err := coord.Import(context.Background(), ImportRequest{URL: "https://lu.ma/gone"})
	ie, ok := AsImportError(err)
	if !ok {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if ie.Kind != FailFetchExhausted {
		t.Errorf("expected kind %s, got %s", FailFetchExhausted, ie.Kind)
	}
}

func TestImportProgressiveWithoutAI(t *testing.T) {
	coord := NewCoordinator(newFakeStore(), &fakeChain{draft: testDraft("Quiet Event")}, &Enricher{})

	result, err := coord.ImportProgressive(context.Background(), ImportRequest{URL: "https://lu.ma/quiet-event"})
	if err != nil {
		t.Fatalf("progressive import failed: %v", err)
	}
	if result.AIProcessing {
		t.Error("AIProcessing must be false when no AI client is configured")
	}
	if result.Event == nil || result.Event.Title != "Quiet Event" {
		t.Errorf("expected the basic record in the result, got %+v", result.Event)
	}
}

// fakePageFetcher serves canned HTML for the chain's HTTP strategy.
type fakePageFetcher struct {
	html string
	err  error
}

func (f *fakePageFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	return f.html, f.err
}

// failingRenderer should never be reached when an earlier strategy wins.
type failingRenderer struct {
	calls int
}

func (r *failingRenderer) Render(ctx context.Context, url string) (string, error) {
	r.calls++
	return "", errors.New("no browser in tests")
}

func TestImportFromStructuredDataEndToEnd(t *testing.T) {
	t.Setenv("LUMA_API_KEY", "")

	html := `<html><head><script type="application/ld+json">
		{"@type":"Event","name":"Bristol Tech Social","startDate":"2026-09-20T18:30:00+01:00",
		 "description":"Monthly meetup for the Bristol tech scene.",
		 "location":{"@type":"Place","name":"The Engine Shed",
		   "address":{"@type":"PostalAddress","streetAddress":"Station Approach","addressLocality":"Bristol","postalCode":"BS1 6QH"}},
		 "organizer":{"@type":"Organization","name":"Tech Bristol"}}
	</script></head></html>`

	renderer := &failingRenderer{}
	chain := NewFetchChain(&fakePageFetcher{html: html}, renderer, &LocationResolver{})
	store := newFakeStore()
	coord := NewCoordinator(store, chain, &Enricher{})

	result, err := coord.Import(context.Background(), ImportRequest{URL: "https://lu.ma/bristol-tech-social"})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	ev := result.Event
	if ev.Title != "Bristol Tech Social" {
		t.Errorf("expected title from structured data, got %q", ev.Title)
	}
	if ev.City != "Bristol" {
		t.Errorf("expected city Bristol, got %q", ev.City)
	}
	if ev.Platform != "luma-scraped" {
		t.Errorf("expected platform tag luma-scraped, got %q", ev.Platform)
	}
	if ev.PlatformID != "bristol-tech-social" {
		t.Errorf("expected platform id from URL, got %q", ev.PlatformID)
	}
	if ev.Organizer != "Tech Bristol" {
		t.Errorf("expected organizer Tech Bristol, got %q", ev.Organizer)
	}
	if ev.Date != "2026-09-20" {
		t.Errorf("expected date 2026-09-20, got %q", ev.Date)
	}
	if renderer.calls != 0 {
		t.Errorf("browser must not run when plain HTTP already yielded structured data; rendered %d times", renderer.calls)
	}
}

func TestObtainAdvancesToBrowser(t *testing.T) {
	t.Setenv("LUMA_API_KEY", "")

	structured := `<html><head><script type="application/ld+json">
		{"@type":"Event","name":"Rendered Only","startDate":"2026-09-20T18:30:00+01:00"}
	</script></head></html>`

	fetcher := &fakePageFetcher{html: "<html><body>loading...</body></html>"}
	renderer := &fakeRenderer{html: structured}
	chain := NewFetchChain(fetcher, renderer, &LocationResolver{})

	draft, err := chain.Obtain(context.Background(), platform.Luma, "rendered-only", "https://lu.ma/rendered-only")
	if err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	if draft.Title != "Rendered Only" {
		t.Errorf("expected draft from rendered page, got %q", draft.Title)
	}
	if renderer.calls != 1 {
		t.Errorf("expected one render, got %d", renderer.calls)
	}
}

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (r *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	r.calls++
	return r.html, r.err
}

func TestObtainExhaustsAllStrategies(t *testing.T) {
	t.Setenv("LUMA_API_KEY", "")

	fetcher := &fakePageFetcher{err: errors.New("connection refused")}
	renderer := &fakeRenderer{err: errors.New("chrome not found")}
	chain := NewFetchChain(fetcher, renderer, &LocationResolver{})

	_, err := chain.Obtain(context.Background(), platform.Luma, "gone", "https://lu.ma/gone")
	ie, ok := AsImportError(err)
	if !ok {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if ie.Kind != FailFetchExhausted {
		t.Errorf("expected kind %s, got %s", FailFetchExhausted, ie.Kind)
	}
	if !errors.Is(err, renderer.err) {
		t.Errorf("expected the last strategy error as cause, got %v", ie.Err)
	}
}
