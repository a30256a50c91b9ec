package cli

import (
	"context"
	"fmt"

	"github.com/akciovadasz/backend/internal/app"
)

// Execute implements the go-flags Commander interface for FavoritesCommand.
func (c *FavoritesCommand) Execute(args []string) error {
	return c.env.withApp(c.run)
}

func (c *FavoritesCommand) run(ctx context.Context, a *app.App) error {
	for _, id := range c.Add {
		if a.Deals.IsFavorite(ctx, id) {
			fmt.Fprintf(c.env.out, "%s is already a favorite\n", id)
			continue
		}
		if _, err := a.Deals.ToggleFavorite(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.env.out, "Added %s to favorites\n", id)
	}

	for _, id := range c.Remove {
		if !a.Deals.IsFavorite(ctx, id) {
			fmt.Fprintf(c.env.out, "%s is not a favorite\n", id)
			continue
		}
		if _, err := a.Deals.ToggleFavorite(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.env.out, "Removed %s from favorites\n", id)
	}

	if len(c.Add) > 0 || len(c.Remove) > 0 {
		return nil
	}

	ids := a.Deals.FavoriteIDs(ctx)
	if c.env.jsonOutput() {
		return printJSON(c.env.out, ids)
	}
	if len(ids) == 0 {
		fmt.Fprintln(c.env.out, "No favorites")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(c.env.out, id)
	}
	return nil
}
