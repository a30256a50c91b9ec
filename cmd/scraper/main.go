package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/internal/scraper"
	"github.com/akciovadasz/backend/internal/scraper/browser"
	"github.com/akciovadasz/backend/pkg/datetime"
)

func main() {
	// Flags
	sourcesFile := flag.String("sources", "flyers.yaml", "Flyer sources YAML file")
	store := flag.String("store", "", "Scrape a single store (default: all)")
	render := flag.Bool("render", false, "Start a headless browser for rendered sources")
	output := flag.String("output", "", "Output file for JSON results (default: none)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Scrape timeout")
	tz := flag.String("timezone", "Europe/Budapest", "Zone used to resolve flyer validity dates")
	flag.Parse()

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              Hungarian Grocery Flyer Scraper                 ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	sources, err := scraper.LoadSources(*sourcesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var renderer scraper.Renderer
	if *render && scraper.NeedsBrowser(sources) {
		pool, err := browser.NewPool(browser.DefaultPoolConfig(), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting browser: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = pool.Close() }()
		renderer = pool
	}

	orch, err := scraper.NewOrchestratorFromSources(scraper.DefaultOrchestratorConfig(), sources, renderer, datetime.LoadLocation(*tz), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scraping %d store flyers...\n\n", orch.StoreCount())
	startTime := time.Now()

	var results []scraper.ScrapeResult
	if *store != "" {
		result, err := orch.ScrapeStore(ctx, *store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		results = []scraper.ScrapeResult{result}
	} else {
		results, err = orch.ScrapeAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	elapsed := time.Since(startTime)

	// Print summary
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("                    RESULTS (%.1fs elapsed)\n", elapsed.Seconds())
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()

	runMetrics := orch.GetMetrics().GetLastRunMetrics()
	var products []model.Product
	for _, result := range results {
		if result.Error != nil {
			fmt.Printf("❌ %s: %v\n", result.Store, result.Error)
			continue
		}
		products = append(products, result.Products...)
		fmt.Printf("✅ %s: %d deals", result.Store, result.ProductsScraped)
		if result.Dropped > 0 {
			fmt.Printf(" (%d dropped)", result.Dropped)
		}
		if m, ok := runMetrics[result.Store]; ok {
			fmt.Printf(" in %.1fs", m.Duration.Seconds())
		}
		fmt.Println()
	}

	summary := orch.GetMetrics().GetSummary()
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("SUMMARY: %d/%d stores, %d deals, %.1fs\n",
		summary.LastRunSuccesses, len(results), summary.LastRunProductsScraped, elapsed.Seconds())
	fmt.Println("═══════════════════════════════════════════════════════════════")

	// Output JSON if requested
	if *output != "" {
		decimal.MarshalJSONWithoutQuotes = true
		if products == nil {
			products = []model.Product{}
		}
		data, _ := json.MarshalIndent(products, "", "  ")
		if err := os.WriteFile(*output, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n✅ Wrote %d deals to %s\n", len(products), *output)
	}
}
