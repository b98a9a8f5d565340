package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "append trades from a jsonl file" }
func (*importCmd) Usage() string {
	return `depot import <trades.jsonl>

  Appends the trades of a file, one JSON trade per line as written by
  'depot export', to the configuration.
`
}

func (*importCmd) SetFlags(f *flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: a trades file is required.")
		return subcommands.ExitUsageError
	}
	r, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer r.Close()

	trades, err := depot.ImportTrades(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	return appendTrades(trades)
}

// appendTrades adds trades to the configuration file.
func appendTrades(trades []depot.Trade) subcommands.ExitStatus {
	cfg, err := depot.ReadConfigurationFile(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for _, t := range trades {
		cfg.Trades = append(cfg.Trades, t.Record())
	}
	// validates the result before writing it
	if _, err := depot.FromConfiguration(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := SaveConfiguration(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	log.Info().Int("trades", len(trades)).Str("config", *configFile).Msg("trades appended")
	return subcommands.ExitSuccess
}
