package importer

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/david/event-finder/internal/platform"
)

// All display times are rendered in UK time regardless of the timezone the
// platform reported, because the listing serves a UK audience.
var londonLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}()

var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// normalizeDateTime derives the ISO calendar date and the display time from
// raw start/end timestamps. Unparseable start falls back to today + "TBD".
func normalizeDateTime(startRaw, endRaw string, now time.Time) (date, display string) {
	// A bare calendar date carries no time; converting its implicit
	// midnight between zones would shift the date, so keep it verbatim.
	if d, err := time.Parse("2006-01-02", strings.TrimSpace(startRaw)); err == nil {
		return d.Format("2006-01-02"), "TBD"
	}

	start, ok := parseEventTimestamp(startRaw)
	if !ok {
		return now.In(londonLocation).Format("2006-01-02"), "TBD"
	}

	start = start.In(londonLocation)
	date = start.Format("2006-01-02")
	display = start.Format("3:04 PM")

	if end, ok := parseEventTimestamp(endRaw); ok {
		display = display + " - " + end.In(londonLocation).Format("3:04 PM")
	}
	return date, display
}

func parseEventTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	hostedByPattern  = regexp.MustCompile(`(?i)(?:organi[sz]ed|hosted|presented|brought to you)\s+by[:\s]+([A-Z][\w&'’.\- ]{2,60})`)
	orgPhrasePattern = regexp.MustCompile(`\b([A-Z][A-Za-z&'’\-]+(?:\s+[A-Z][A-Za-z&'’\-]+){0,4}\s+(?:Network|Foundation|Society|Association|Institute|Labs|Collective|Community|Club|Group))\b`)
)

// extractOrganizer prefers explicit structured names, then free-text
// patterns in the description, then a per-platform placeholder.
func extractOrganizer(structured []string, description string, p platform.Platform) string {
	var names []string
	for _, n := range structured {
		n = cleanText(n)
		if n != "" {
			names = append(names, n)
		}
	}
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}

	if m := hostedByPattern.FindStringSubmatch(description); m != nil {
		return trimOrganizerMatch(m[1])
	}
	if m := orgPhrasePattern.FindStringSubmatch(description); m != nil {
		return trimOrganizerMatch(m[1])
	}

	switch p {
	case platform.Luma:
		return "Luma Event"
	case platform.Eventbrite:
		return "Eventbrite Event"
	default:
		return "Organising Team"
	}
}

// trimOrganizerMatch cuts a greedy regex capture back to something that
// reads like a name: stop at sentence-ish boundaries and lowercase tails.
func trimOrganizerMatch(s string) string {
	s = cleanText(s)
	for _, stop := range []string{". ", " and ", " for ", " to ", " on ", " at "} {
		if idx := strings.Index(s, stop); idx > 0 {
			s = s[:idx]
		}
	}
	return strings.TrimRight(strings.TrimSpace(s), ".,;:")
}

// draftFromDescriptor is the single translation layer from the untyped
// descriptor to a normalized draft. Every fetch strategy that yields
// structured data funnels through here, so the normalization rules apply
// uniformly regardless of how the raw data was obtained.
func (c *FetchChain) draftFromDescriptor(ctx context.Context, raw *RawEventDescriptor, p platform.Platform, id, url, provenance string) *NormalizedEventDraft {
	title := cleanText(raw.Name)
	description := strings.TrimSpace(raw.Description)

	date, display := normalizeDateTime(raw.StartDate, raw.EndDate, time.Now())

	locDisplay, locality := descriptorLocation(raw.Location)
	resolved := c.Location.Resolve(ctx, locDisplay, locality, title, description)

	category := "Scraped"
	if provenance == provenanceAPI {
		category = "Imported"
	}

	return &NormalizedEventDraft{
		Title:                 title,
		Description:           description,
		Date:                  date,
		Time:                  display,
		Location:              resolved.Location,
		City:                  resolved.City,
		CityConfidence:        resolved.Confidence,
		NeedsCityConfirmation: resolved.NeedsConfirmation,
		Organizer:             extractOrganizer(descriptorOrganizers(raw.Organizer), description, p),
		URL:                   url,
		ImageURL:              descriptorImage(raw.Image),
		Categories:            []string{category},
		PlatformID:            id,
		PlatformTag:           string(p) + "-" + provenance,
	}
}

// cleanText collapses whitespace runs and trims the string.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return text[:maxLen-3] + "..."
	}
	return text[:maxLen]
}
