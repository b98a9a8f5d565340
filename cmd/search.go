package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/depot/eodhd"
	"github.com/google/subcommands"
)

// searchCmd looks up symbols on EODHD.
type searchCmd struct{}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search symbols on EODHD" }
func (*searchCmd) Usage() string {
	return `depot search <search term>

  Searches stocks by name, code or ISIN via the EOD Historical Data API and
  prints the ticker to use in the 'stocks' section of the configuration.

  Requires the -eodhd-api-key flag or the EODHD_API_KEY environment variable.
`
}

func (*searchCmd) SetFlags(f *flag.FlagSet) {}

func (*searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a search term is required.")
		return subcommands.ExitUsageError
	}
	term := strings.Join(f.Args(), " ")

	key := eodhdAPIKey()
	if key == "" {
		fmt.Fprintf(os.Stderr, "Error: EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable\n", EnvEODHDKey)
		return subcommands.ExitFailure
	}

	results, err := eodhd.New(key).Search(ctx, term)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(results) == 0 {
		fmt.Printf("No results found for '%s'.\n", term)
		return subcommands.ExitSuccess
	}

	fmt.Printf("Found %d results for '%s':\n\n", len(results), term)
	for _, item := range results {
		fmt.Printf("➡️   Name       : %s (%s)\n", item.Name, item.Code)
		fmt.Printf("    Type        : %s, Country: %s, Currency: %s\n", item.Type, item.Country, item.Currency)
		fmt.Printf("    ISIN        : %s\n", item.ISIN)
		fmt.Printf("    Prev. Close : %.2f on %s\n", item.PreviousClose, item.PreviousCloseDate)
		fmt.Printf("    Stock       : {symbol: %s, ticker: %s, currency: %s}\n\n", item.ISIN, item.Ticker(), item.Currency)
	}
	return subcommands.ExitSuccess
}
