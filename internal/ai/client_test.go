package ai

import (
	"testing"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain JSON", `{"city": "Leeds"}`, `{"city": "Leeds"}`},
		{"Fenced with language", "```json\n{\"city\": \"Leeds\"}\n```", `{"city": "Leeds"}`},
		{"Fenced without language", "```\n{\"city\": \"Leeds\"}\n```", `{"city": "Leeds"}`},
		{"Surrounding whitespace", "  \n{\"city\": \"Leeds\"}\n  ", `{"city": "Leeds"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFilterValid(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		expected []string
	}{
		{"Exact match", []string{"Meetup"}, []string{"Meetup"}},
		{"Case-insensitive canonicalized", []string{"meetup", " WORKSHOP "}, []string{"Meetup", "Workshop"}},
		{"Hallucinated tag dropped", []string{"Meetup", "Rave"}, []string{"Meetup"}},
		{"All invalid", []string{"Rave", "Seance"}, []string{}},
		{"Empty input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterValid(tt.tags, EventTypes)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %q at %d, got %q", tt.expected[i], i, got[i])
				}
			}
		})
	}
}

func TestNewClientFromEnvWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if c := NewClientFromEnv(); c != nil {
		t.Fatal("expected nil client without OPENAI_API_KEY")
	}
}
