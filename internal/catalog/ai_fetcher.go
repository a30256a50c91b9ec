package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/logger"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// AIFetcher generates a deal catalog with a Generator.
type AIFetcher struct {
	gen    Generator
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func NewAIFetcher(gen Generator, loc *time.Location, logger *slog.Logger) *AIFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AIFetcher{gen: gen, loc: loc, logger: logger, now: time.Now}
}

// Source names the backing generator, recorded on snapshots.
func (f *AIFetcher) Source() string { return f.gen.Name() }

type dealResponse struct {
	Products []RawProduct `json:"products"`
}

// FetchDeals asks the model for a catalog. Every failure is reported as
// apperror.ErrFetchFailed with the shopper-facing fetch message.
func (f *AIFetcher) FetchDeals(ctx context.Context, q model.FetchQuery) ([]model.Product, error) {
	log := logger.Enrich(ctx, f.logger)
	start := time.Now()
	text, err := f.gen.Generate(ctx, GenerateRequest{
		Prompt: dealPrompt(q, datetime.DateOf(f.now(), f.loc)),
		Schema: dealSchema(),
	})
	if err != nil {
		log.Error("Deal generation failed",
			slog.String("generator", f.gen.Name()),
			slog.String("error", err.Error()),
		)
		return nil, apperror.FetchFailed(err)
	}

	var resp dealResponse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &resp); err != nil {
		log.Error("Deal response is not valid JSON",
			slog.String("generator", f.gen.Name()),
			slog.String("error", err.Error()),
		)
		return nil, apperror.FetchFailed(fmt.Errorf("decoding deal response: %w", err))
	}

	products, rejected := Normalize(resp.Products)
	for _, r := range rejected {
		log.Debug("Dropped generated product",
			slog.String("id", r.Product.ID),
			slog.String("name", r.Product.Name),
			slog.String("reason", string(r.Reason)),
		)
	}

	log.Info("Deals generated",
		slog.String("generator", f.gen.Name()),
		slog.Int("products", len(products)),
		slog.Int("dropped", len(rejected)),
		slog.Duration("duration", time.Since(start)),
	)
	return products, nil
}
