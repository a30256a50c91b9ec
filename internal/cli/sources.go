package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/akciovadasz/backend/internal/scraper"
)

type sourceJSON struct {
	Store string `json:"store"`
	Kind  string `json:"kind"`
	URL   string `json:"url"`
}

// Execute implements the go-flags Commander interface for SourcesCommand.
func (c *SourcesCommand) Execute(args []string) error {
	path := c.File
	if path == "" {
		cfg, err := c.env.config()
		if err != nil {
			return err
		}
		path = cfg.FlyerSourcesFile
	}

	sources, err := scraper.LoadSources(path)
	if err != nil {
		return err
	}

	if c.env.jsonOutput() {
		out := make([]sourceJSON, 0, len(sources))
		for _, s := range sources {
			out = append(out, sourceJSON{Store: string(s.Store), Kind: string(s.Kind), URL: s.URL})
		}
		return printJSON(c.env.out, out)
	}

	tw := tabwriter.NewWriter(c.env.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STORE\tKIND\tURL")
	for _, s := range sources {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Store, s.Kind, s.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if scraper.NeedsBrowser(sources) {
		fmt.Fprintln(c.env.out, "\nRendered sources need FLYER_RENDER=true and a Chromium install.")
	}
	return nil
}
