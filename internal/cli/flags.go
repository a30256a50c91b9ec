package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	EnvFile string `long:"env-file" description:"Load environment variables from this file" default:".env"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// FetchCommand fetches the catalog and prints it.
type FetchCommand struct {
	Search  string `long:"search" short:"s" description:"Search term sent with the fetch"`
	Format  string `long:"format" description:"Output format" choice:"table" choice:"json" choice:"yaml" default:"table"`
	Visible bool   `long:"visible" description:"Only print deals that pass the saved filters"`

	env     *environment
	version string
}

// QuotaCommand shows the automatic refresh quota.
type QuotaCommand struct {
	env     *environment
	version string
}

// TickCommand runs one scheduler tick.
type TickCommand struct {
	env     *environment
	version string
}

// FavoritesCommand lists, adds or removes favorites.
type FavoritesCommand struct {
	Add    []string `long:"add" description:"Product id to add to favorites (repeatable)"`
	Remove []string `long:"remove" description:"Product id to remove from favorites (repeatable)"`

	env     *environment
	version string
}

// LedgerCommand shows or clears the expiry notification ledger.
type LedgerCommand struct {
	Clear bool `long:"clear" description:"Forget every recorded expiry notice"`

	env     *environment
	version string
}

// SourcesCommand validates a flyer sources file.
type SourcesCommand struct {
	File string `long:"file" description:"Flyer sources YAML (defaults to FLYER_SOURCES_FILE)"`

	env     *environment
	version string
}
