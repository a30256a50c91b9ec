package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/akciovadasz/backend/internal/app"
	"github.com/akciovadasz/backend/internal/service"
)

type quotaJSON struct {
	service.RefreshDecision
	DailyLimit int `json:"dailyLimit"`
}

// Execute implements the go-flags Commander interface for QuotaCommand.
func (c *QuotaCommand) Execute(args []string) error {
	return c.env.withApp(func(ctx context.Context, a *app.App) error {
		d := a.Deals.RefreshDecision(ctx)
		if c.env.jsonOutput() {
			return printJSON(c.env.out, quotaJSON{RefreshDecision: d, DailyLimit: a.Config.RefreshDailyLimit})
		}
		printDecision(c.env.out, d, a)
		return nil
	})
}

func printDecision(w io.Writer, d service.RefreshDecision, a *app.App) {
	fmt.Fprintf(w, "Last fetch:      %s\n", formatTime(d.LastFetch, a.Location))
	fmt.Fprintf(w, "Today:           %d/%d automatic refreshes\n", d.TodayCount, a.Config.RefreshDailyLimit)
	fmt.Fprintf(w, "Stale:           %s (after %s)\n", yesNo(d.Stale), a.Config.RefreshStaleAfter)
	fmt.Fprintf(w, "Refresh due:     %s\n", yesNo(d.Trigger))
}
