package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/depot"
	"github.com/etnz/depot/renderer"
	"github.com/google/subcommands"
)

type tradesCmd struct {
	symbol string
}

func (*tradesCmd) Name() string     { return "trades" }
func (*tradesCmd) Synopsis() string { return "list the trades of the portfolio" }
func (*tradesCmd) Usage() string {
	return `depot trades [-s <symbol>]

  Lists trades in date order.
`
}

func (c *tradesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Only list the trades of this symbol.")
}

func (c *tradesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := depot.ReadConfigurationFile(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	p, err := depot.FromConfiguration(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	trades := p.Trades()
	if c.symbol != "" {
		trades = slices.DeleteFunc(trades, func(t depot.Trade) bool { return t.Symbol() != c.symbol })
	}
	slices.SortStableFunc(trades, func(a, b depot.Trade) int { return a.Date().DaysSince(b.Date()) })

	title := "Trades of " + p.Name()
	if c.symbol != "" {
		title = fmt.Sprintf("Trades of %s in %s", c.symbol, p.Name())
	}
	printMarkdown(renderer.TradesMarkdown(title, trades, p.Currency()))
	return subcommands.ExitSuccess
}
