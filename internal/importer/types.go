package importer

import (
	"context"

	"github.com/david/event-finder/internal/models"
	"github.com/david/event-finder/internal/platform"
	"github.com/google/uuid"
)

// ImportRequest is created per user action and consumed once.
type ImportRequest struct {
	URL         string `json:"url"`
	ForceUpdate bool   `json:"force_update"`
}

// RawEventDescriptor is the loosely-typed structured data pulled from a
// page. Location, organizer and image vary wildly between platforms, so
// they stay untyped here and are decoded in one place (descriptor.go).
// Transient: it exists only during extraction and is never persisted.
type RawEventDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Location    interface{} `json:"location"`
	Organizer   interface{} `json:"organizer"`
	Image       interface{} `json:"image"`
	URL         string      `json:"url"`
}

// NormalizedEventDraft is the unit handed to persistence and AI enrichment.
// Invariant: Date is always a valid ISO calendar date (today if the source
// had nothing parseable); Time may be "TBD".
type NormalizedEventDraft struct {
	Title                 string
	Description           string
	Date                  string
	Time                  string
	Location              string
	City                  string
	CityConfidence        float64
	NeedsCityConfirmation bool
	Organizer             string
	URL                   string
	ImageURL              string
	Categories            []string
	PlatformID            string
	PlatformTag           string // provenance, e.g. "luma-scraped"
}

// EventStore is the persistence collaborator. db.Store implements it;
// tests substitute an in-memory fake.
type EventStore interface {
	// FindByURLOrPlatformID returns nil, nil when no match exists.
	FindByURLOrPlatformID(ctx context.Context, url, platformID string) (*models.Event, error)
	InsertEvent(ctx context.Context, ev *models.Event) error
	// ReplaceEventContent overwrites all content fields of an existing
	// record while preserving its identity and engagement counters.
	ReplaceEventContent(ctx context.Context, id uuid.UUID, ev *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	SetCategorization(ctx context.Context, id uuid.UUID, eventType string, interestAreas []string, succeeded bool) error
	SetSummary(ctx context.Context, id uuid.UUID, summary string, keywords []string, hook string, embedding []float32, succeeded bool) error
}

// AI is the black-box enrichment capability. Each call carries its own
// timeout/retry policy upstream of this package.
type AI interface {
	ClassifyEvent(ctx context.Context, title, description string) (eventType string, interestAreas []string, err error)
	SummarizeEvent(ctx context.Context, title, description, location, date string) (summary string, keywords []string, hook string, err error)
	InferCity(ctx context.Context, title, description string) (city string, confidence float64, err error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// PageFetcher retrieves raw page HTML over plain HTTP.
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Renderer loads a page in a headless browser and returns the rendered DOM.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// DraftFetcher is what the coordinator needs from the strategy chain.
type DraftFetcher interface {
	Obtain(ctx context.Context, p platform.Platform, id, url string) (*NormalizedEventDraft, error)
}
