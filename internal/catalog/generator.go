// Package catalog produces deal catalogs from a generative model and answers
// the shopper-facing AI features (search suggestions, shopping assistant).
package catalog

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyCompletion is returned when a model answers without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// GenerateRequest is a single JSON-mode completion.
type GenerateRequest struct {
	Prompt string
	// Schema describes the expected JSON document using the OpenAPI subset
	// understood by Gemini (type names in upper case).
	Schema map[string]any
	// Temperature is left to the provider default when nil.
	Temperature *float64
}

// Generator returns the raw JSON text produced for a request.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}

func (f GeneratorFunc) Name() string { return "func" }

// Temperature returns a pointer for GenerateRequest.Temperature.
func Temperature(t float64) *float64 { return &t }

// cleanJSON strips surrounding whitespace and markdown code fences that some
// models wrap around JSON output.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
