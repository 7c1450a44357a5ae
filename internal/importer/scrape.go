package importer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/david/event-finder/internal/platform"
)

// Boilerplate strings client-rendered pages show in place of real content.
// A selector match equal to one of these is rejected.
var scrapeBoilerplate = []string{
	"get on the list", "rsvp", "sign in", "log in", "sign up",
	"loading", "see more", "hosted on partiful",
}

const minScrapedTextLen = 3

// scrapeWithSelectors extracts event fields from rendered DOM using the
// platform's prioritized CSS selector candidates, accepting the first
// non-empty plausible match per field. Used for platforms that never embed
// structured data. Returns nil when not even a title can be found.
func scrapeWithSelectors(html string, sel platform.SelectorConfig) *RawEventDescriptor {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	title := scrapeField(doc, sel.Title, 200)
	if title == "" {
		return nil
	}

	raw := &RawEventDescriptor{
		Name:        title,
		Description: scrapeField(doc, sel.Description, 5000),
		StartDate:   scrapeDateTime(doc, sel.DateTime),
	}
	if loc := scrapeField(doc, sel.Location, 200); loc != "" {
		raw.Location = loc
	}
	if org := scrapeField(doc, sel.Organizer, 120); org != "" {
		raw.Organizer = org
	}
	return raw
}

// scrapeField walks selector candidates in priority order and returns the
// first plausible text match.
func scrapeField(doc *goquery.Document, candidates []string, maxLen int) string {
	for _, selector := range candidates {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := selectionText(s)
			if plausibleScrapedText(text) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return TruncateText(found, maxLen)
		}
	}
	return ""
}

// scrapeDateTime prefers a machine-readable datetime attribute over the
// display text, since the display format varies with locale.
func scrapeDateTime(doc *goquery.Document, candidates []string) string {
	for _, selector := range candidates {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if attr, ok := s.Attr("datetime"); ok && strings.TrimSpace(attr) != "" {
				found = strings.TrimSpace(attr)
				return false
			}
			if text := selectionText(s); plausibleScrapedText(text) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// selectionText reads element text, or the content attribute for meta tags.
func selectionText(s *goquery.Selection) string {
	if goquery.NodeName(s) == "meta" {
		content, _ := s.Attr("content")
		return cleanText(content)
	}
	return cleanText(s.Text())
}

func plausibleScrapedText(text string) bool {
	if len(text) < minScrapedTextLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, b := range scrapeBoilerplate {
		if lower == b {
			return false
		}
	}
	return true
}
