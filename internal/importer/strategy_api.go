package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/david/event-finder/internal/platform"
)

// fetchFromAPI performs the authenticated platform API lookup. Both
// supported APIs return richer, cleaner data than scraping, so this
// strategy runs first whenever a credential is configured.
func (c *FetchChain) fetchFromAPI(ctx context.Context, p platform.Platform, cfg *platform.Config, id, url string) (*NormalizedEventDraft, error) {
	var raw *RawEventDescriptor
	var err error

	switch p {
	case platform.Luma:
		raw, err = c.fetchLumaEvent(ctx, cfg, id)
	case platform.Eventbrite:
		raw, err = c.fetchEventbriteEvent(ctx, cfg, id)
	default:
		return nil, fmt.Errorf("no API integration for platform %s", p)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	return c.draftFromDescriptor(ctx, raw, p, id, url, provenanceAPI), nil
}

type lumaEventResponse struct {
	Event struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		StartAt     string `json:"start_at"`
		EndAt       string `json:"end_at"`
		CoverURL    string `json:"cover_url"`
		GeoAddress  struct {
			Address string `json:"address"`
			City    string `json:"city"`
		} `json:"geo_address_json"`
	} `json:"event"`
	Hosts []struct {
		Name string `json:"name"`
	} `json:"hosts"`
}

func (c *FetchChain) fetchLumaEvent(ctx context.Context, cfg *platform.Config, id string) (*RawEventDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", cfg.API.BaseURL+"?api_id="+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(cfg.API.AuthHeader, os.Getenv(cfg.API.KeyEnvVar))
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("luma api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("luma api returned status: %d", resp.StatusCode)
	}

	var parsed lumaEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode luma response: %w", err)
	}
	if parsed.Event.Name == "" {
		return nil, nil
	}

	var organizers []interface{}
	for _, h := range parsed.Hosts {
		organizers = append(organizers, h.Name)
	}

	return &RawEventDescriptor{
		Name:        parsed.Event.Name,
		Description: parsed.Event.Description,
		StartDate:   parsed.Event.StartAt,
		EndDate:     parsed.Event.EndAt,
		Image:       parsed.Event.CoverURL,
		Organizer:   organizers,
		Location: map[string]interface{}{
			"address": map[string]interface{}{
				"streetAddress":   parsed.Event.GeoAddress.Address,
				"addressLocality": parsed.Event.GeoAddress.City,
			},
		},
	}, nil
}

type eventbriteEventResponse struct {
	Name        struct{ Text string } `json:"name"`
	Description struct{ Text string } `json:"description"`
	Start       struct {
		UTC string `json:"utc"`
	} `json:"start"`
	End struct {
		UTC string `json:"utc"`
	} `json:"end"`
	Logo struct {
		URL string `json:"url"`
	} `json:"logo"`
	Venue struct {
		Name    string `json:"name"`
		Address struct {
			City                    string `json:"city"`
			LocalizedAddressDisplay string `json:"localized_address_display"`
		} `json:"address"`
	} `json:"venue"`
	Organizer struct {
		Name string `json:"name"`
	} `json:"organizer"`
}

func (c *FetchChain) fetchEventbriteEvent(ctx context.Context, cfg *platform.Config, id string) (*RawEventDescriptor, error) {
	endpoint := fmt.Sprintf("%s/%s/?expand=venue,organizer", cfg.API.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv(cfg.API.KeyEnvVar))
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eventbrite api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eventbrite api returned status: %d", resp.StatusCode)
	}

	var parsed eventbriteEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode eventbrite response: %w", err)
	}
	if parsed.Name.Text == "" {
		return nil, nil
	}

	return &RawEventDescriptor{
		Name:        parsed.Name.Text,
		Description: parsed.Description.Text,
		StartDate:   parsed.Start.UTC,
		EndDate:     parsed.End.UTC,
		Image:       parsed.Logo.URL,
		Organizer:   parsed.Organizer.Name,
		Location: map[string]interface{}{
			"name": parsed.Venue.Name,
			"address": map[string]interface{}{
				"streetAddress":   parsed.Venue.Address.LocalizedAddressDisplay,
				"addressLocality": parsed.Venue.Address.City,
			},
		},
	}, nil
}
