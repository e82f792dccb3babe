package search

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"unicode/utf8"

	"stuud-backend/internal/llm"
)

const (
	DefaultMinQueryLength = 3
	suggestionMaxTokens   = 200
)

// Suggester asks a backend for completions of a partial search query.
type Suggester struct {
	backend  llm.Backend
	minQuery int
}

// NewSuggester creates a Suggester. Queries shorter than minQuery runes make no request.
func NewSuggester(backend llm.Backend, minQuery int) *Suggester {
	if minQuery <= 0 {
		minQuery = DefaultMinQueryLength
	}
	return &Suggester{backend: backend, minQuery: minQuery}
}

// Accepts reports whether query is long enough to ask for suggestions.
func (s *Suggester) Accepts(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= s.minQuery
}

// Suggest returns 3-5 suggested queries, or an empty result when the query is
// too short or anything goes wrong.
func (s *Suggester) Suggest(ctx context.Context, query string, data Context) []string {
	if !s.Accepts(query) {
		return nil
	}
	q := strings.TrimSpace(query)

	section, err := dataSection(data)
	if err != nil {
		log.Printf("Error building suggestion prompt: %v", err)
		return []string{}
	}
	system := "You are a helpful college services assistant. " +
		"Based on the data below and the user's partial query, suggest 3-5 complete search queries they might be looking for.\n\n" +
		section +
		"\nReply with a JSON object of the form {\"suggestions\": [\"...\"]} and nothing else."

	reply, err := s.backend.Complete(ctx, llm.Request{
		System:      system,
		Turns:       []llm.Turn{{Role: llm.RoleUser, Content: `Partial query: "` + q + `"`}},
		Temperature: llm.DefaultTemperature,
		MaxTokens:   suggestionMaxTokens,
		JSON:        true,
	})
	if err != nil {
		log.Printf("Error generating search suggestions: %v", err)
		return []string{}
	}

	suggestions, err := decodeSuggestions(reply)
	if err != nil {
		log.Printf("Error decoding search suggestions: %v", err)
		return []string{}
	}
	return suggestions
}

// decodeSuggestions accepts {"suggestions": [...]} or a bare array.
func decodeSuggestions(reply string) ([]string, error) {
	raw := strings.TrimSpace(reply)
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, err
		}
		return nonEmpty(list), nil
	}

	var obj struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, err
	}
	return nonEmpty(obj.Suggestions), nil
}

func nonEmpty(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
