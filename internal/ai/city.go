package ai

import (
	"context"
	"fmt"
)

// InferCity is the single-purpose fallback for events whose location
// strings carry no usable city. The caller validates the returned city
// against its whitelist and confidence threshold; this function only
// enforces the strict output contract.
func (c *Client) InferCity(ctx context.Context, title, description string) (string, float64, error) {
	systemPrompt := `You determine which UK city an event takes place in.
Respond with JSON only:
{"city": "Manchester", "confidence": 0.95}

Rules:
1. city must be a single UK city name, or "Online" for virtual events.
2. confidence is a number between 0 and 1 reflecting how certain the text makes you.
3. If the text gives no real signal, return {"city": "", "confidence": 0}.`

	userPrompt := fmt.Sprintf("EVENT TITLE: %s\n\nEVENT DESCRIPTION: %s", title, description)

	var result struct {
		City       string  `json:"city"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.completeJSON(ctx, systemPrompt, userPrompt, &result); err != nil {
		return "", 0, err
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return "", 0, fmt.Errorf("ai returned out-of-range confidence %v", result.Confidence)
	}
	return result.City, result.Confidence, nil
}
