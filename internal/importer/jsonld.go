package importer

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractStructuredData scans all embedded JSON-LD blocks in the page and
// returns the first Event descriptor found. A nil result is not an error:
// it signals "try the next fetch strategy". Malformed blocks are skipped.
func ExtractStructuredData(html string) *RawEventDescriptor {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var found *RawEventDescriptor
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if desc := descriptorFromJSON(s.Text()); desc != nil {
			found = desc
			return false
		}
		return true
	})
	if found != nil {
		return found
	}

	// Fallback for app-framework pages that embed the descriptor as an
	// escaped JSON string inside another JSON payload (__NEXT_DATA__ and
	// friends) rather than as a standalone block.
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(text, "{") || !strings.Contains(text, `@type`) {
			return true
		}
		var payload interface{}
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return true
		}
		if desc := findEventNode(payload, 0); desc != nil {
			found = desc
			return false
		}
		return true
	})
	return found
}

// descriptorFromJSON parses one JSON-LD block. Handles a bare object, a
// top-level array, and @graph wrappers.
func descriptorFromJSON(text string) *RawEventDescriptor {
	var payload interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		return nil
	}
	return findEventNode(payload, 0)
}

const maxEventNodeDepth = 12

// findEventNode walks arbitrary decoded JSON looking for an object whose
// @type declares an Event. String leaves are themselves tried as embedded
// JSON, which is how escaped descriptors are recovered.
func findEventNode(node interface{}, depth int) *RawEventDescriptor {
	if depth > maxEventNodeDepth {
		return nil
	}

	switch v := node.(type) {
	case map[string]interface{}:
		if isEventType(v["@type"]) {
			return descriptorFromMap(v)
		}
		if graph, ok := v["@graph"]; ok {
			if desc := findEventNode(graph, depth+1); desc != nil {
				return desc
			}
		}
		for _, child := range v {
			if desc := findEventNode(child, depth+1); desc != nil {
				return desc
			}
		}
	case []interface{}:
		for _, child := range v {
			if desc := findEventNode(child, depth+1); desc != nil {
				return desc
			}
		}
	case string:
		s := strings.TrimSpace(v)
		if len(s) > 1 && (s[0] == '{' || s[0] == '[') && strings.Contains(s, "@type") {
			var inner interface{}
			if err := json.Unmarshal([]byte(s), &inner); err == nil {
				return findEventNode(inner, depth+1)
			}
		}
	}
	return nil
}

// isEventType accepts "Event" and its schema.org subtypes
// ("SocialEvent", "BusinessEvent", ...). @type may be a string or a list.
func isEventType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Event" || strings.HasSuffix(v, "Event")
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && (s == "Event" || strings.HasSuffix(s, "Event")) {
				return true
			}
		}
	}
	return false
}

func descriptorFromMap(m map[string]interface{}) *RawEventDescriptor {
	desc := &RawEventDescriptor{
		Name:        stringField(m, "name"),
		Description: stringField(m, "description"),
		StartDate:   stringField(m, "startDate"),
		EndDate:     stringField(m, "endDate"),
		URL:         stringField(m, "url"),
		Location:    m["location"],
		Organizer:   m["organizer"],
		Image:       m["image"],
	}
	if desc.Name == "" && desc.StartDate == "" {
		// A typed-but-empty node is useless; keep scanning.
		return nil
	}
	return desc
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
