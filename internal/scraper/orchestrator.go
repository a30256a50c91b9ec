package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/akciovadasz/backend/internal/apperror"
	"github.com/akciovadasz/backend/internal/catalog"
	"github.com/akciovadasz/backend/internal/logger"
	"github.com/akciovadasz/backend/internal/model"
)

// OrchestratorConfig holds configuration for the scraper orchestrator
type OrchestratorConfig struct {
	// MinDelay is the minimum delay between scraping different stores
	MinDelay time.Duration
	// MaxDelay is the maximum delay between scraping different stores
	MaxDelay time.Duration
	// RequestTimeout is the timeout for individual flyer requests
	RequestTimeout time.Duration
	RetryConfig    RetryConfig
}

// DefaultOrchestratorConfig returns the default orchestrator configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MinDelay:       1 * time.Second,
		MaxDelay:       3 * time.Second,
		RequestTimeout: 30 * time.Second,
		RetryConfig:    DefaultRetryConfig(),
	}
}

// NewHTTPClient builds the client shared by the store scrapers.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}
}

// ScrapeResult holds the result of scraping a single store
type ScrapeResult struct {
	Store           string
	Products        []model.Product
	Success         bool
	Error           error
	Duration        time.Duration
	ProductsScraped int
	Dropped         int
}

// Orchestrator scrapes every configured store and merges the flyers into
// one catalog.
type Orchestrator struct {
	config   OrchestratorConfig
	scrapers []StoreScraper
	metrics  *MetricsCollector
	logger   *slog.Logger
}

func NewOrchestrator(cfg OrchestratorConfig, scrapers []StoreScraper, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		config:   cfg,
		scrapers: scrapers,
		metrics:  NewMetricsCollector(),
		logger:   logger,
	}
}

// NewOrchestratorFromSources builds one scraper per source.
func NewOrchestratorFromSources(cfg OrchestratorConfig, sources []FlyerSource, renderer Renderer, loc *time.Location, logger *slog.Logger) (*Orchestrator, error) {
	client := NewHTTPClient(cfg.RequestTimeout)
	scrapers := make([]StoreScraper, 0, len(sources))
	for _, src := range sources {
		s, err := NewStoreScraper(src, client, renderer, loc)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return NewOrchestrator(cfg, scrapers, logger), nil
}

// Source names the catalog origin recorded on snapshots.
func (o *Orchestrator) Source() string { return "flyers" }

// ScrapeAll scrapes all stores in order with a random pause between them
func (o *Orchestrator) ScrapeAll(ctx context.Context) ([]ScrapeResult, error) {
	o.logger.Info("Starting scrape of all stores",
		slog.Int("store_count", len(o.scrapers)),
	)

	results := make([]ScrapeResult, 0, len(o.scrapers))

	for i, s := range o.scrapers {
		select {
		case <-ctx.Done():
			o.logger.Warn("Scrape cancelled",
				slog.Int("completed", i),
				slog.Int("total", len(o.scrapers)),
			)
			o.metrics.FinishRun()
			return results, ctx.Err()
		default:
		}

		results = append(results, o.scrapeStore(ctx, s))

		if i < len(o.scrapers)-1 {
			delay := o.randomDelay()
			o.logger.Debug("Waiting before next store",
				slog.String("next_store", o.scrapers[i+1].Store()),
				slog.Duration("delay", delay),
			)

			select {
			case <-ctx.Done():
				o.metrics.FinishRun()
				return results, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	o.metrics.FinishRun()

	var successCount, failCount, total int
	for _, r := range results {
		if r.Success {
			successCount++
			total += r.ProductsScraped
		} else {
			failCount++
		}
	}

	o.logger.Info("Scrape completed",
		slog.Int("successful", successCount),
		slog.Int("failed", failCount),
		slog.Int("total_products", total),
	)

	return results, nil
}

func (o *Orchestrator) scrapeStore(ctx context.Context, s StoreScraper) ScrapeResult {
	store := s.Store()
	o.logger.Info("Scraping store", slog.String("store", store))

	o.metrics.StartScrape(store)
	start := time.Now()

	var raw []catalog.RawProduct
	err := WithRetry(ctx, o.config.RetryConfig, o.logger, func() error {
		var err error
		raw, err = s.Scrape(ctx)
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return ErrNoDataFound
		}
		return nil
	})

	duration := time.Since(start)

	if err != nil {
		o.metrics.RecordFailure(store, err)
		o.logger.Error("Failed to scrape store",
			slog.String("store", store),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return ScrapeResult{Store: store, Error: err, Duration: duration}
	}

	products, rejected := catalog.Normalize(raw)
	o.metrics.RecordSuccess(store, len(products))
	o.logger.Info("Successfully scraped store",
		slog.String("store", store),
		slog.Int("products", len(products)),
		slog.Int("dropped", len(rejected)),
		slog.Duration("duration", duration),
	)

	return ScrapeResult{
		Store:           store,
		Products:        products,
		Success:         true,
		Duration:        duration,
		ProductsScraped: len(products),
		Dropped:         len(rejected),
	}
}

// ScrapeStore scrapes a single store by name (case-insensitive).
func (o *Orchestrator) ScrapeStore(ctx context.Context, store string) (ScrapeResult, error) {
	for _, s := range o.scrapers {
		if strings.EqualFold(s.Store(), store) {
			return o.scrapeStore(ctx, s), nil
		}
	}
	return ScrapeResult{}, fmt.Errorf("no scraper found for store: %s", store)
}

// FetchDeals scrapes every store and merges the products. Ids stay unique
// across stores. A search term keeps only products whose name or category
// contains it. The fetch fails only when no store could be scraped.
func (o *Orchestrator) FetchDeals(ctx context.Context, q model.FetchQuery) ([]model.Product, error) {
	results, err := o.ScrapeAll(ctx)
	if err != nil {
		return nil, apperror.FetchFailed(err)
	}

	term := strings.ToLower(strings.TrimSpace(q.SearchTerm))
	seen := make(map[string]bool)
	var products []model.Product
	var lastErr error
	succeeded := 0

	for _, r := range results {
		if !r.Success {
			lastErr = r.Error
			continue
		}
		succeeded++
		for _, p := range r.Products {
			if seen[p.ID] {
				continue
			}
			if term != "" && !strings.Contains(strings.ToLower(p.Name), term) &&
				!strings.Contains(strings.ToLower(p.Category), term) {
				continue
			}
			seen[p.ID] = true
			products = append(products, p)
		}
	}

	log := logger.Enrich(ctx, o.logger)
	if succeeded == 0 {
		if lastErr == nil {
			lastErr = ErrNoDataFound
		}
		log.Error("No store could be scraped", slog.Int("stores", len(results)))
		return nil, apperror.FetchFailed(lastErr)
	}
	log.Info("Flyer catalog merged",
		slog.Int("stores", succeeded),
		slog.Int("products", len(products)),
		slog.String("search_term", q.SearchTerm),
	)
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// GetMetrics returns the metrics collector
func (o *Orchestrator) GetMetrics() *MetricsCollector {
	return o.metrics
}

// GetHealthStatus returns the current health status
func (o *Orchestrator) GetHealthStatus() HealthStatus {
	return o.metrics.GetHealthStatus(len(o.scrapers))
}

// StoreCount returns the number of configured store scrapers
func (o *Orchestrator) StoreCount() int {
	return len(o.scrapers)
}

func (o *Orchestrator) randomDelay() time.Duration {
	if o.config.MaxDelay <= o.config.MinDelay {
		return o.config.MinDelay
	}
	diff := o.config.MaxDelay - o.config.MinDelay
	return o.config.MinDelay + time.Duration(rand.Int63n(int64(diff)))
}
