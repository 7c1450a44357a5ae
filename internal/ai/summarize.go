package ai

import (
	"context"
	"fmt"
)

// SummarizeEvent produces the listing-card copy: a short summary, the
// technical keywords worth filtering on, and a one-line excitement hook.
func (c *Client) SummarizeEvent(ctx context.Context, title, description, location, date string) (string, []string, string, error) {
	systemPrompt := `You write concise, energetic copy for a tech event listing.
Given an event, respond with JSON only:
{"summary": "...", "technical_keywords": ["...", "..."], "excitement_hook": "..."}

Rules:
1. summary: 1-2 sentences, max 60 words, factual, no hype adjectives.
2. technical_keywords: up to 5 short lowercase phrases naming technologies or topics actually mentioned.
3. excitement_hook: one sentence, max 15 words, why someone should go.`

	userPrompt := fmt.Sprintf("TITLE: %s\nDATE: %s\nLOCATION: %s\n\nDESCRIPTION:\n%s", title, date, location, description)

	var result struct {
		Summary           string   `json:"summary"`
		TechnicalKeywords []string `json:"technical_keywords"`
		ExcitementHook    string   `json:"excitement_hook"`
	}
	if err := c.completeJSON(ctx, systemPrompt, userPrompt, &result); err != nil {
		return "", nil, "", err
	}
	if result.Summary == "" {
		return "", nil, "", fmt.Errorf("ai returned empty summary")
	}
	return result.Summary, result.TechnicalKeywords, result.ExcitementHook, nil
}
