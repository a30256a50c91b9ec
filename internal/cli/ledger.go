package cli

import (
	"context"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/akciovadasz/backend/internal/app"
)

// Execute implements the go-flags Commander interface for LedgerCommand.
func (c *LedgerCommand) Execute(args []string) error {
	return c.env.withApp(c.run)
}

func (c *LedgerCommand) run(ctx context.Context, a *app.App) error {
	if c.Clear {
		if err := a.Deals.ClearExpiryLedger(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.env.out, "Expiry ledger cleared")
		return nil
	}

	ledger := a.Deals.ExpiryLedger(ctx)
	if c.env.jsonOutput() {
		return printJSON(c.env.out, ledger)
	}
	if len(ledger) == 0 {
		fmt.Fprintln(c.env.out, "No expiry notices recorded")
		return nil
	}

	ids := make([]string, 0, len(ledger))
	for id := range ledger {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tw := tabwriter.NewWriter(c.env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNOTIFIED ON")
	for _, id := range ids {
		fmt.Fprintf(tw, "%s\t%s\n", id, ledger[id])
	}
	return tw.Flush()
}
