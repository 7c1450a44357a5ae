package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/david/event-finder/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// selectCols is the column list shared by all event queries.
const selectCols = `id, title, description, event_date, event_time, location, city,
	city_confidence, needs_city_confirmation, organizer, url, image_url,
	categories, platform, platform_id,
	ai_event_type, ai_interest_areas, ai_categorized, ai_categorized_at,
	ai_summary, ai_technical_keywords, ai_excitement_hook, ai_summarized, ai_summarized_at,
	view_count, save_count, created_at, updated_at`

func scanEvent(scan func(dest ...interface{}) error) (*models.Event, error) {
	var ev models.Event
	var eventDate time.Time

	err := scan(
		&ev.ID, &ev.Title, &ev.Description, &eventDate, &ev.Time, &ev.Location, &ev.City,
		&ev.CityConfidence, &ev.NeedsCityConfirmation, &ev.Organizer, &ev.URL, &ev.ImageURL,
		&ev.Categories, &ev.Platform, &ev.PlatformID,
		&ev.AIEventType, &ev.AIInterestAreas, &ev.AICategorized, &ev.AICategorizedAt,
		&ev.AISummary, &ev.AITechnicalKeywords, &ev.AIExcitementHook, &ev.AISummarized, &ev.AISummarizedAt,
		&ev.ViewCount, &ev.SaveCount, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ev.Date = eventDate.Format("2006-01-02")
	return &ev, nil
}

// FindByURLOrPlatformID is the duplicate-check lookup: URL equality OR
// platform id equality, whichever matches first. Returns nil, nil when no
// record exists.
func (s *Store) FindByURLOrPlatformID(ctx context.Context, url, platformID string) (*models.Event, error) {
	query := `SELECT ` + selectCols + ` FROM events
		WHERE url = $1 OR ($2 <> '' AND platform_id = $2)
		LIMIT 1`

	row := s.pool.QueryRow(ctx, query, url, platformID)
	ev, err := scanEvent(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find event by url/platform id: %w", err)
	}
	return ev, nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectCols+` FROM events WHERE id = $1`, id)
	ev, err := scanEvent(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

func (s *Store) InsertEvent(ctx context.Context, ev *models.Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (
			id, title, description, event_date, event_time, location, city,
			city_confidence, needs_city_confirmation, organizer, url, image_url,
			categories, platform, platform_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15
		)`,
		ev.ID, ev.Title, ev.Description, ev.Date, ev.Time, ev.Location, ev.City,
		ev.CityConfidence, ev.NeedsCityConfirmation, ev.Organizer, ev.URL, ev.ImageURL,
		ev.Categories, ev.Platform, ev.PlatformID,
	)
	if err != nil {
		return fmt.Errorf("insert event %q: %w", ev.Title, err)
	}
	return nil
}

// ReplaceEventContent is the force-update write: all content fields are
// overwritten against the existing identity, AI fields reset so the
// record is re-enriched, and engagement counters are left untouched.
func (s *Store) ReplaceEventContent(ctx context.Context, id uuid.UUID, ev *models.Event) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE events SET
			title = $1, description = $2, event_date = $3, event_time = $4,
			location = $5, city = $6, city_confidence = $7, needs_city_confirmation = $8,
			organizer = $9, url = $10, image_url = $11, categories = $12,
			platform = $13, platform_id = $14,
			ai_event_type = '', ai_interest_areas = '{}', ai_categorized = FALSE, ai_categorized_at = NULL,
			ai_summary = '', ai_technical_keywords = '{}', ai_excitement_hook = '', ai_summarized = FALSE, ai_summarized_at = NULL,
			embedding = NULL,
			updated_at = NOW()
		WHERE id = $15`,
		ev.Title, ev.Description, ev.Date, ev.Time,
		ev.Location, ev.City, ev.CityConfidence, ev.NeedsCityConfirmation,
		ev.Organizer, ev.URL, ev.ImageURL, ev.Categories,
		ev.Platform, ev.PlatformID, id,
	)
	if err != nil {
		return fmt.Errorf("replace event content %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("replace event content %s: no such event", id)
	}
	return nil
}

func (s *Store) SetCategorization(ctx context.Context, id uuid.UUID, eventType string, interestAreas []string, succeeded bool) error {
	if interestAreas == nil {
		interestAreas = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE events SET
			ai_event_type = $1,
			ai_interest_areas = $2,
			ai_categorized = $3,
			ai_categorized_at = CASE WHEN $3 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $4`,
		eventType, interestAreas, succeeded, id,
	)
	if err != nil {
		return fmt.Errorf("set categorization %s: %w", id, err)
	}
	return nil
}

func (s *Store) SetSummary(ctx context.Context, id uuid.UUID, summary string, keywords []string, hook string, embedding []float32, succeeded bool) error {
	if keywords == nil {
		keywords = []string{}
	}
	var vec interface{}
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE events SET
			ai_summary = $1,
			ai_technical_keywords = $2,
			ai_excitement_hook = $3,
			ai_summarized = $4,
			ai_summarized_at = CASE WHEN $4 THEN NOW() ELSE NULL END,
			embedding = COALESCE($5, embedding),
			updated_at = NOW()
		WHERE id = $6`,
		summary, keywords, hook, succeeded, vec, id,
	)
	if err != nil {
		return fmt.Errorf("set summary %s: %w", id, err)
	}
	return nil
}

// ListParams filters the public events listing.
type ListParams struct {
	Query     string
	City      string
	EventType string
	Category  string // provenance tag ("Imported"/"Scraped")
	FromDate  string // ISO date, inclusive
	Limit     int
	Offset    int
}

type ListResult struct {
	Events []models.Event `json:"events"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (s *Store) ListEvents(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Query != "" {
		p := arg("%" + params.Query + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s OR organizer ILIKE %s)", p, p, p))
	}
	if params.City != "" {
		conditions = append(conditions, fmt.Sprintf("city = %s", arg(params.City)))
	}
	if params.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("ai_event_type = %s", arg(params.EventType)))
	}
	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("%s = ANY(categories)", arg(params.Category)))
	}
	if params.FromDate != "" {
		conditions = append(conditions, fmt.Sprintf("event_date >= %s", arg(params.FromDate)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM events%s ORDER BY event_date ASC, created_at DESC LIMIT %s OFFSET %s",
		selectCols, where, arg(params.Limit), arg(params.Offset))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events iteration: %w", err)
	}

	return &ListResult{Events: events, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// ListPendingEnrichment returns events with at least one AI stage not yet
// succeeded, oldest first, for the batch re-enrichment tool.
func (s *Store) ListPendingEnrichment(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectCols+` FROM events
		 WHERE NOT ai_categorized OR NOT ai_summarized
		 ORDER BY updated_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending enrichment: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan pending event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// RelatedEvents returns the nearest events by embedding cosine distance.
// Events without an embedding simply never appear.
func (s *Store) RelatedEvents(ctx context.Context, id uuid.UUID, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectCols+` FROM events
		WHERE id <> $1
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM events WHERE id = $1)
		LIMIT $2`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("related events %s: %w", id, err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan related event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func (s *Store) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, "UPDATE events SET view_count = view_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("increment view count %s: %w", id, err)
	}
	return nil
}

// Stats summarizes the listing for the admin dashboard.
type Stats struct {
	TotalEvents int            `json:"total_events"`
	ByCity      map[string]int `json:"by_city"`
	ByPlatform  map[string]int `json:"by_platform"`
	PendingAI   int            `json:"pending_ai"`
	NeedsReview int            `json:"needs_review"`
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByCity: map[string]int{}, ByPlatform: map[string]int{}}

	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("stats total: %w", err)
	}
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM events WHERE NOT ai_categorized OR NOT ai_summarized").Scan(&stats.PendingAI); err != nil {
		return nil, fmt.Errorf("stats pending ai: %w", err)
	}
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM events WHERE needs_city_confirmation").Scan(&stats.NeedsReview); err != nil {
		return nil, fmt.Errorf("stats needs review: %w", err)
	}

	rows, err := s.pool.Query(ctx, "SELECT city, COUNT(*) FROM events GROUP BY city ORDER BY COUNT(*) DESC")
	if err != nil {
		return nil, fmt.Errorf("stats by city: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var city string
		var count int
		if err := rows.Scan(&city, &count); err != nil {
			return nil, fmt.Errorf("stats scan city: %w", err)
		}
		stats.ByCity[city] = count
	}

	platRows, err := s.pool.Query(ctx, "SELECT platform, COUNT(*) FROM events GROUP BY platform")
	if err != nil {
		return nil, fmt.Errorf("stats by platform: %w", err)
	}
	defer platRows.Close()
	for platRows.Next() {
		var platform string
		var count int
		if err := platRows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("stats scan platform: %w", err)
		}
		stats.ByPlatform[platform] = count
	}

	return stats, nil
}
