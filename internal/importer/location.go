package importer

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"
)

// CityConfidenceThreshold gates the AI city fallback: inferred cities below
// this confidence are discarded so hallucinated cities never pollute the
// location filters. Tests assert on the exact value.
const CityConfidenceThreshold = 0.90

// CityTBD is the sentinel shown while a city is unresolved.
const CityTBD = "TBD"

const aiCityTimeout = 15 * time.Second

// UKCities is the curated whitelist used both by the rule-based fast path
// and to validate AI-inferred cities.
var UKCities = []string{
	"London", "Manchester", "Birmingham", "Bristol", "Edinburgh", "Glasgow",
	"Leeds", "Liverpool", "Oxford", "Cambridge", "Cardiff", "Newcastle",
	"Sheffield", "Nottingham", "Brighton", "Belfast", "Bath", "York",
	"Reading", "Southampton", "Leicester", "Coventry", "Aberdeen", "Dundee",
	"Exeter", "Norwich", "Durham", "Milton Keynes", "Swansea",
}

// placeholderLocations are non-informative location strings platforms show
// before an address is revealed. Matched case-insensitively; never treated
// as a city candidate.
var placeholderLocations = []string{
	"tbd", "tba", "to be announced", "to be confirmed", "venue tba",
	"register to see", "location coming soon", "coming soon",
	"see description", "details to follow", "address hidden",
	"secret location",
}

var virtualLocationHints = []string{"online", "virtual", "zoom", "google meet", "teams", "webinar", "livestream"}

// Matches ", <City> SW1A 1AA"-style UK address tails; the segment before
// the postcode is the city.
var ukPostcodeSegment = regexp.MustCompile(`,\s*([A-Za-z][A-Za-z .'\-]{1,30}?)\s+[A-Z]{1,2}[0-9][0-9A-Z]?(?:\s*[0-9][A-Z]{2})?\s*(?:,|$)`)

var streetWords = []string{"street", "road", "lane", "avenue", "way", "walk", "house", "floor", "unit", "suite"}

// ResolvedLocation is the explicit result of city resolution. Confidence
// and NeedsConfirmation are part of the return type rather than being
// captured from an outer scope, so callers always see a consistent triple.
type ResolvedLocation struct {
	Location          string
	City              string
	Confidence        float64
	NeedsConfirmation bool
}

// LocationResolver turns a noisy raw location plus event text into a
// (location, city, confidence) tuple. Rule-based extraction runs first
// because it is free and deterministic; the AI fallback covers the long
// tail and is confidence-gated.
type LocationResolver struct {
	AI AI // nil disables the fallback
}

// Resolve implements the two-path design. locality is the structured
// addressLocality when the descriptor had one; it wins outright. The
// display location is never blanked, even when city resolution fails.
func (r *LocationResolver) Resolve(ctx context.Context, rawLocation, locality, title, description string) ResolvedLocation {
	display := cleanText(rawLocation)
	if isPlaceholderLocation(display) {
		display = ""
	}

	out := ResolvedLocation{Location: display, City: CityTBD}

	if locality = cleanText(locality); locality != "" && !isPlaceholderLocation(locality) {
		out.City = locality
		out.Confidence = 1.0
		return out
	}

	if city, ok := r.resolveByRules(display, title, description); ok {
		out.City = city
		out.Confidence = 1.0
		return out
	}

	if r.AI != nil {
		if city, conf, ok := r.resolveByAI(ctx, title, description); ok {
			out.City = city
			out.Confidence = conf
			return out
		}
	}

	// Unresolved: flag for manual review. A TBD city with zero confidence
	// always needs confirmation, whether or not the AI was consulted.
	out.NeedsConfirmation = true
	return out
}

func (r *LocationResolver) resolveByRules(display, title, description string) (string, bool) {
	// (a) direct whitelist match in the location string
	if city, ok := whitelistedCityIn(display); ok {
		return city, true
	}

	// (b) UK address tail: ", <City> <postcode>"
	if m := ukPostcodeSegment.FindStringSubmatch(display); m != nil {
		if candidate := cleanText(m[1]); plausibleCitySegment(candidate) {
			return canonicalCity(candidate), true
		}
	}

	// (c) comma-segment heuristic: prefer a middle segment of city-ish
	// length, fall back to the last plausible one.
	if city, ok := commaSegmentCity(display); ok {
		return city, true
	}

	// (d) whitelist scan over title then description, so events like
	// "Nucleate Manchester Info Session" resolve without an AI call.
	if city, ok := whitelistedCityIn(title); ok {
		return city, true
	}
	if city, ok := whitelistedCityIn(description); ok {
		return city, true
	}

	if isVirtualLocation(display) {
		return "Online", true
	}

	return "", false
}

func (r *LocationResolver) resolveByAI(ctx context.Context, title, description string) (string, float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, aiCityTimeout)
	defer cancel()

	city, confidence, err := r.AI.InferCity(ctx, title, TruncateText(description, 600))
	if err != nil {
		log.Printf("[location] AI city inference failed: %v", err)
		return "", 0, false
	}

	city = cleanText(city)
	if confidence < CityConfidenceThreshold {
		log.Printf("[location] rejecting AI city %q (confidence %.2f below %.2f)", city, confidence, CityConfidenceThreshold)
		return "", 0, false
	}
	if city == "Online" {
		return city, confidence, true
	}
	if canonical, ok := whitelistedCityIn(city); ok {
		return canonical, confidence, true
	}
	log.Printf("[location] rejecting AI city %q (not in UK whitelist)", city)
	return "", 0, false
}

func isPlaceholderLocation(s string) bool {
	lower := strings.ToLower(s)
	if lower == "" {
		return false
	}
	for _, p := range placeholderLocations {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func isVirtualLocation(s string) bool {
	lower := strings.ToLower(s)
	for _, hint := range virtualLocationHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// whitelistedCityIn finds a whole-word whitelist city inside free text and
// returns its canonical casing.
func whitelistedCityIn(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, city := range UKCities {
		cityLower := strings.ToLower(city)
		idx := strings.Index(lower, cityLower)
		for idx >= 0 {
			before := idx == 0 || !isLetter(lower[idx-1])
			afterIdx := idx + len(cityLower)
			after := afterIdx >= len(lower) || !isLetter(lower[afterIdx])
			if before && after {
				return city, true
			}
			next := strings.Index(lower[idx+1:], cityLower)
			if next < 0 {
				break
			}
			idx = idx + 1 + next
		}
	}
	return "", false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func commaSegmentCity(display string) (string, bool) {
	if !strings.Contains(display, ",") {
		return "", false
	}

	segments := strings.Split(display, ",")
	var last string
	for i, seg := range segments {
		seg = cleanText(seg)
		if !plausibleCitySegment(seg) {
			continue
		}
		// Middle segments are the usual home of the city in
		// "Venue, City, Country"-shaped strings.
		if i > 0 && i < len(segments)-1 {
			return canonicalCity(seg), true
		}
		last = seg
	}
	if last != "" {
		return canonicalCity(last), true
	}
	return "", false
}

// plausibleCitySegment rejects segments that are too short/long, purely
// numeric, or clearly part of a street address.
func plausibleCitySegment(seg string) bool {
	if len(seg) < 3 || len(seg) > 20 {
		return false
	}
	hasLetter := false
	for i := 0; i < len(seg); i++ {
		if isLetter(seg[i]) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	lower := strings.ToLower(seg)
	for _, w := range streetWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// canonicalCity maps a candidate onto whitelist casing when it matches,
// otherwise returns it cleaned as-is.
func canonicalCity(candidate string) string {
	for _, city := range UKCities {
		if strings.EqualFold(city, candidate) {
			return city
		}
	}
	return candidate
}
