package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/akciovadasz/backend/internal/app"
	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/currency"
)

// fetchOutput is the JSON/YAML shape of a fetched catalog.
type fetchOutput struct {
	Source     string       `json:"source" yaml:"source"`
	FetchedAt  time.Time    `json:"fetchedAt" yaml:"fetched_at"`
	SearchTerm string       `json:"searchTerm,omitempty" yaml:"search_term,omitempty"`
	Count      int          `json:"count" yaml:"count"`
	Products   []productRow `json:"products" yaml:"products"`
}

type productRow struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Store         string `json:"store" yaml:"store"`
	Category      string `json:"category" yaml:"category"`
	SalePrice     string `json:"salePrice" yaml:"sale_price"`
	OriginalPrice string `json:"originalPrice" yaml:"original_price"`
	Discount      int    `json:"discountPercentage" yaml:"discount"`
	ValidUntil    string `json:"validUntil" yaml:"valid_until"`
	Unit          string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

func toRow(p model.Product) productRow {
	return productRow{
		ID:            p.ID,
		Name:          p.Name,
		Store:         string(p.Store),
		Category:      p.Category,
		SalePrice:     p.SalePrice.String(),
		OriginalPrice: p.OriginalPrice.String(),
		Discount:      p.DiscountPercentage,
		ValidUntil:    p.ValidUntil.String(),
		Unit:          p.Unit,
	}
}

// Execute implements the go-flags Commander interface for FetchCommand.
func (c *FetchCommand) Execute(args []string) error {
	return c.env.withApp(c.run)
}

func (c *FetchCommand) run(ctx context.Context, a *app.App) error {
	var (
		snap model.Snapshot
		err  error
	)
	if c.Search != "" {
		snap, err = a.Deals.Search(ctx, c.Search)
	} else {
		snap, err = a.Deals.Load(ctx)
	}
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	products := snap.Products
	if c.Visible {
		products = a.Deals.Visible()
	}

	out := fetchOutput{
		Source:     snap.Source,
		FetchedAt:  snap.FetchedAt,
		SearchTerm: snap.SearchTerm,
		Count:      len(products),
		Products:   make([]productRow, 0, len(products)),
	}
	for _, p := range products {
		out.Products = append(out.Products, toRow(p))
	}

	format := c.Format
	if c.env.jsonOutput() {
		format = "json"
	}

	switch format {
	case "json":
		return printJSON(c.env.out, out)
	case "yaml":
		enc := yaml.NewEncoder(c.env.out)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return printProductTable(c.env.out, products, snap, a.Location)
	}
}

func printProductTable(w io.Writer, products []model.Product, snap model.Snapshot, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTORE\tNAME\tPRICE\tDISCOUNT\tVALID UNTIL")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t-%d%%\t%s\n",
			p.ID, p.Store, p.Name,
			currency.Forint(p.SalePrice).Format(),
			p.DiscountPercentage, p.ValidUntil,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d deals from %s, fetched %s\n", len(products), snap.Source, formatTime(snap.FetchedAt, loc))
	return nil
}
