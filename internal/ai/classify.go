package ai

import (
	"context"
	"fmt"
	"strings"
)

// EventTypes is the closed taxonomy for the primary event classification.
var EventTypes = []string{
	"Conference", "Workshop", "Meetup", "Hackathon", "Networking",
	"Panel", "Demo Day", "Social", "Talk", "Other",
}

// InterestAreas is the closed taxonomy for topical tags.
var InterestAreas = []string{
	"AI & Machine Learning", "Biotech", "Climate & Energy", "Fintech",
	"Health Tech", "Startups & VC", "Web3 & Crypto", "Robotics",
	"Data Science", "Design & Product", "Cybersecurity", "Deep Tech",
	"Developer Tools", "Gaming", "Science & Research",
}

// ClassifyEvent assigns one event type and topical interest areas from the
// fixed taxonomies. Out-of-taxonomy replies are filtered out; an empty
// event type falls back to "Other".
func (c *Client) ClassifyEvent(ctx context.Context, title, description string) (string, []string, error) {
	systemPrompt := fmt.Sprintf(`You are an expert event classifier for a tech and startup event listing.
Classify events using ONLY these exact lists. Do not invent new tags.

EVENT TYPES: %s
INTEREST AREAS: %s

Respond with JSON only:
{"event_type": "Meetup", "interest_areas": ["AI & Machine Learning"]}

Rules:
1. Pick exactly one event_type; use "Other" if nothing fits.
2. Pick at most three interest_areas that strongly apply; empty list is fine.`,
		strings.Join(EventTypes, ", "), strings.Join(InterestAreas, ", "))

	userPrompt := fmt.Sprintf("EVENT TITLE: %s\n\nEVENT DESCRIPTION: %s", title, description)

	var result struct {
		EventType     string   `json:"event_type"`
		InterestAreas []string `json:"interest_areas"`
	}
	if err := c.completeJSON(ctx, systemPrompt, userPrompt, &result); err != nil {
		return "", nil, err
	}

	eventType := "Other"
	if valid := filterValid([]string{result.EventType}, EventTypes); len(valid) > 0 {
		eventType = valid[0]
	}
	return eventType, filterValid(result.InterestAreas, InterestAreas), nil
}
