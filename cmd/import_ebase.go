package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/depot"
	"github.com/etnz/depot/ebase"
	"github.com/etnz/depot/renderer"
	"github.com/google/subcommands"
)

type importEbaseCmd struct {
	symbols string
	average bool
	dryRun  bool
}

func (*importEbaseCmd) Name() string     { return "import-ebase" }
func (*importEbaseCmd) Synopsis() string { return "append trades from an ebase csv export" }
func (*importEbaseCmd) Usage() string {
	return `depot import-ebase [-symbols ISIN=TICKER,...] [-average] [-n] <export.csv>

  Reads an ebase transaction export and appends its trades to the
  configuration. See 'depot topic ebase'.
`
}

func (c *importEbaseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma separated ISIN=SYMBOL pairs renaming ISINs.")
	f.BoolVar(&c.average, "average", false, "Import a single buy per ISIN dated today.")
	f.BoolVar(&c.dryRun, "n", false, "Print the trades instead of appending them.")
}

// parseSymbols parses "ISIN=SYMBOL,..." pairs.
func parseSymbols(s string) (map[string]string, error) {
	symbols := make(map[string]string)
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		isin, symbol, ok := strings.Cut(pair, "=")
		if !ok || isin == "" || symbol == "" {
			return nil, fmt.Errorf("%w: invalid symbol pair %q, want ISIN=SYMBOL", depot.ErrInvalidArgument, pair)
		}
		symbols[isin] = symbol
	}
	return symbols, nil
}

func (c *importEbaseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: an ebase export file is required.")
		return subcommands.ExitUsageError
	}
	symbols, err := parseSymbols(c.symbols)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	r, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer r.Close()

	opts := ebase.Options{Symbols: symbols}
	var trades []depot.Trade
	if c.average {
		trades, err = ebase.ReadAverageTrades(r, depot.Today(), opts)
	} else {
		trades, err = ebase.ReadTrades(r, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	if c.dryRun {
		printMarkdown(renderer.TradesMarkdown("Trades in "+f.Arg(0), trades, "EUR"))
		return subcommands.ExitSuccess
	}
	return appendTrades(trades)
}
