package platform

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected Platform
	}{
		{"Luma short host", "https://lu.ma/abc123", Luma},
		{"Luma long host", "https://luma.com/abc123", Luma},
		{"Eventbrite", "https://eventbrite.com/e/some-event-tickets-123456789", Eventbrite},
		{"Eventbrite with www", "https://www.eventbrite.com/e/some-event-tickets-123456789", Eventbrite},
		{"Eventbrite UK", "https://www.eventbrite.co.uk/e/ai-meetup-tickets-987654321", Eventbrite},
		{"Humanitix", "https://events.humanitix.com/bio-founders-social", Humanitix},
		{"Partiful", "https://partiful.com/e/xYz789", Partiful},
		{"Unsupported host", "https://meetup.com/some-group/events/1234", Unknown},
		{"Empty", "", Unknown},
		{"Garbage", "not a url at all", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.url); got != tt.expected {
				t.Errorf("Detect(%q) = %s, want %s", tt.url, got, tt.expected)
			}
		})
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		platform Platform
		expected string
	}{
		{"Luma slug", "https://lu.ma/abc123", Luma, "abc123"},
		{"Luma slug with query", "https://lu.ma/abc123?utm_source=share", Luma, "abc123"},
		{"Luma bare host", "https://lu.ma/", Luma, ""},
		{"Eventbrite ticket suffix", "https://www.eventbrite.com/e/some-event-tickets-123456789", Eventbrite, "123456789"},
		{"Eventbrite trailing slash", "https://www.eventbrite.com/e/some-event-tickets-123456789/", Eventbrite, "123456789"},
		{"Eventbrite numeric segment", "https://www.eventbrite.com/myevent/555123", Eventbrite, "555123"},
		{"Eventbrite no id", "https://www.eventbrite.com/organizer/some-org", Eventbrite, ""},
		{"Humanitix last segment", "https://events.humanitix.com/bio-founders-social", Humanitix, "bio-founders-social"},
		{"Partiful e path", "https://partiful.com/e/xYz789", Partiful, "xYz789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractID(tt.url, tt.platform); got != tt.expected {
				t.Errorf("ExtractID(%q, %s) = %q, want %q", tt.url, tt.platform, got, tt.expected)
			}
		})
	}
}

func TestDetectExtractRoundTrip(t *testing.T) {
	// Every supported-platform fixture must both detect and yield an id.
	fixtures := map[string]Platform{
		"https://lu.ma/ai-tinkerers-london":                         Luma,
		"https://www.eventbrite.com/e/demo-night-tickets-111222333": Eventbrite,
		"https://events.humanitix.com/climate-tech-mixer":           Humanitix,
		"https://partiful.com/e/AbCd1234":                           Partiful,
	}

	for url, want := range fixtures {
		p := Detect(url)
		if p != want {
			t.Errorf("Detect(%q) = %s, want %s", url, p, want)
			continue
		}
		if id := ExtractID(url, p); id == "" {
			t.Errorf("ExtractID(%q, %s) returned empty id", url, p)
		}
	}
}
