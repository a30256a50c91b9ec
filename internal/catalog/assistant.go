package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/model"
)

// AssistantReply is the assistant's answer and the products it refers to.
type AssistantReply struct {
	ResponseText       string   `json:"responseText"`
	RelevantProductIDs []string `json:"relevantProductIds"`
}

// Assistant answers free-form shopping questions grounded on a product list.
type Assistant struct {
	gen    Generator
	logger *slog.Logger
}

func NewAssistant(gen Generator, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{gen: gen, logger: logger}
}

// Ask sends the query with the product context. A reply without text or
// without an id list is rejected.
func (a *Assistant) Ask(ctx context.Context, query string, products []model.Product) (*AssistantReply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationError("query", "query is required")
	}

	prompt, err := assistantPrompt(query, products)
	if err != nil {
		return nil, apperror.AssistantFailed(err)
	}

	text, err := a.gen.Generate(ctx, GenerateRequest{Prompt: prompt, Schema: assistantSchema()})
	if err != nil {
		a.logger.Error("Assistant call failed", slog.String("error", err.Error()))
		return nil, apperror.AssistantFailed(err)
	}

	var payload struct {
		ResponseText       string    `json:"responseText"`
		RelevantProductIDs *[]string `json:"relevantProductIds"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &payload); err != nil {
		a.logger.Error("Assistant reply is not valid JSON", slog.String("error", err.Error()))
		return nil, apperror.AssistantFailed(fmt.Errorf("decoding assistant reply: %w", err))
	}
	if strings.TrimSpace(payload.ResponseText) == "" || payload.RelevantProductIDs == nil {
		a.logger.Error("Assistant reply has an invalid format")
		return nil, apperror.AssistantFailed(errors.New("invalid response format"))
	}

	return &AssistantReply{
		ResponseText:       payload.ResponseText,
		RelevantProductIDs: *payload.RelevantProductIDs,
	}, nil
}
