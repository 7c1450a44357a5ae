package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is the persisted record: normalized basic fields plus the
// progressively-filled AI enrichment fields. The two AI stages are
// independently settable; either may be present while the other is
// pending or failed.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"` // ISO calendar date (YYYY-MM-DD)
	Time        string    `json:"time"` // display string, possibly a range, may be "TBD"
	Location    string    `json:"location"`
	City        string    `json:"city"`

	CityConfidence        float64 `json:"city_confidence"`
	NeedsCityConfirmation bool    `json:"needs_city_confirmation"`

	Organizer  string   `json:"organizer"`
	URL        string   `json:"url"`
	ImageURL   string   `json:"image_url"`
	Categories []string `json:"categories"` // provenance tags ("Imported", "Scraped")
	Platform   string   `json:"platform"`   // e.g. "luma-scraped", "eventbrite-api"
	PlatformID string   `json:"platform_id"`

	AIEventType         string     `json:"ai_event_type"`
	AIInterestAreas     []string   `json:"ai_interest_areas"`
	AICategorized       bool       `json:"ai_categorized"`
	AICategorizedAt     *time.Time `json:"ai_categorized_at"`
	AISummary           string     `json:"ai_summary"`
	AITechnicalKeywords []string   `json:"ai_technical_keywords"`
	AIExcitementHook    string     `json:"ai_excitement_hook"`
	AISummarized        bool       `json:"ai_summarized"`
	AISummarizedAt      *time.Time `json:"ai_summarized_at"`

	// Engagement counters survive a force re-import.
	ViewCount int `json:"view_count"`
	SaveCount int `json:"save_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
