package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Client wraps the OpenAI API for the three single-purpose calls the
// pipeline makes (classify, summarize, infer city) plus embeddings.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewClientFromEnv returns nil when OPENAI_API_KEY is unset. Callers treat
// a nil client as "AI unavailable" and degrade gracefully.
func NewClientFromEnv() *Client {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: 0.1,
	}
}

// completeJSON sends one prompt and unmarshals the JSON reply into out.
func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("no response choices from openai")
	}

	content := cleanJSONResponse(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse ai json: %w. Response: %s", err, content)
	}
	return nil
}

// cleanJSONResponse strips markdown code fences some models wrap around
// JSON even in JSON mode.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// GenerateEmbedding returns a vector for related-event similarity queries.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.SmallEmbedding3,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// filterValid keeps only tags from the allowed list, mapping
// case-insensitive matches back onto their canonical form so model
// hallucinations never reach the taxonomy.
func filterValid(tags []string, allowed []string) []string {
	valid := make([]string, 0, len(tags))
	for _, t := range tags {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(t), a) {
				valid = append(valid, a)
				break
			}
		}
	}
	return valid
}
