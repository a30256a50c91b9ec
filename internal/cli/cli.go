// Package cli implements dealctl, the operator tool for the deal engine.
package cli

import (
	"fmt"
	"io"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Fetch     *FetchCommand
	Quota     *QuotaCommand
	Tick      *TickCommand
	Favorites *FavoritesCommand
	Ledger    *LedgerCommand
	Sources   *SourcesCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string, env *environment) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags
	env.globals = &globals

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "dealctl"
	parser.LongDescription = "Inspect and drive the Akcióvadász deal catalog from the command line."

	cmds := &commands{
		Fetch:     &FetchCommand{env: env, version: version},
		Quota:     &QuotaCommand{env: env, version: version},
		Tick:      &TickCommand{env: env, version: version},
		Favorites: &FavoritesCommand{env: env, version: version},
		Ledger:    &LedgerCommand{env: env, version: version},
		Sources:   &SourcesCommand{env: env, version: version},
	}

	parser.AddCommand("fetch", "Fetch the catalog and print it", "Fetch the current deal catalog, optionally narrowed by a search term, and print it.", cmds.Fetch)
	parser.AddCommand("quota", "Show the automatic refresh quota", "Show today's automatic refresh count and whether a refresh is due.", cmds.Quota)
	parser.AddCommand("tick", "Run one scheduler tick", "Evaluate the refresh policy once and fetch if a refresh is due.", cmds.Tick)
	parser.AddCommand("favorites", "List, add or remove favorites", "List favorite product ids, or change them with --add and --remove.", cmds.Favorites)
	parser.AddCommand("ledger", "Show or clear the expiry ledger", "Show which products already had their expiry notice sent today.", cmds.Ledger)
	parser.AddCommand("sources", "Validate the flyer sources file", "Load and validate a flyer sources YAML file.", cmds.Sources)

	return parser, &globals, cmds
}

// Run is the main entry point for dealctl using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	return run(version, args, newEnvironment(os.Stdout))
}

func run(version string, args []string, env *environment) error {
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Fprintf(env.out, "dealctl %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version, env)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}

func newEnvironment(out io.Writer) *environment {
	return &environment{out: out, open: openApp}
}
