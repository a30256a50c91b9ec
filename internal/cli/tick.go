package cli

import (
	"context"
	"fmt"

	"github.com/akciovadasz/backend/internal/app"
	"github.com/akciovadasz/backend/internal/service"
)

type tickJSON struct {
	Decision service.RefreshDecision `json:"decision"`
	Fetched  int                     `json:"fetched"`
	Error    string                  `json:"error,omitempty"`
}

// Execute implements the go-flags Commander interface for TickCommand.
func (c *TickCommand) Execute(args []string) error {
	return c.env.withApp(c.run)
}

func (c *TickCommand) run(ctx context.Context, a *app.App) error {
	d, err := a.Deals.AutoRefresh(ctx)
	fetched := 0
	if d.Trigger && err == nil {
		fetched = len(a.Deals.Snapshot().Products)
	}

	if c.env.jsonOutput() {
		out := tickJSON{Decision: d, Fetched: fetched}
		if err != nil {
			out.Error = err.Error()
		}
		if perr := printJSON(c.env.out, out); perr != nil {
			return perr
		}
		return err
	}

	printDecision(c.env.out, d, a)
	switch {
	case err != nil:
		fmt.Fprintf(c.env.out, "Refresh failed:  %v\n", err)
	case d.Trigger:
		fmt.Fprintf(c.env.out, "Fetched %d deals\n", fetched)
	default:
		fmt.Fprintln(c.env.out, "Nothing to do")
	}
	return err
}
