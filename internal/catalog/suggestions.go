package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MinSuggestionQuery is the shortest trimmed query that gets suggestions.
const MinSuggestionQuery = 2

// Suggester proposes search terms while the shopper types.
type Suggester struct {
	gen    Generator
	logger *slog.Logger
}

func NewSuggester(gen Generator, logger *slog.Logger) *Suggester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Suggester{gen: gen, logger: logger}
}

// Suggest returns up to SuggestionCount suggestions. It never fails: short
// queries and upstream errors both yield an empty list.
func (s *Suggester) Suggest(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSuggestionQuery {
		return []string{}
	}

	text, err := s.gen.Generate(ctx, GenerateRequest{
		Prompt:      suggestionPrompt(query),
		Schema:      suggestionSchema(),
		Temperature: Temperature(0.2),
	})
	if err != nil {
		s.logger.Warn("Search suggestions failed", slog.String("error", err.Error()))
		return []string{}
	}

	var raw []string
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		s.logger.Warn("Search suggestions are not a string array", slog.String("error", err.Error()))
		return []string{}
	}

	out := make([]string, 0, SuggestionCount)
	for _, sug := range raw {
		if sug = strings.TrimSpace(sug); sug == "" {
			continue
		}
		out = append(out, sug)
		if len(out) == SuggestionCount {
			break
		}
	}
	return out
}
