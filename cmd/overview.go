package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/etnz/depot"
	"github.com/etnz/depot/renderer"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type overviewCmd struct {
	date string
	json bool
}

func (*overviewCmd) Name() string     { return "overview" }
func (*overviewCmd) Synopsis() string { return "value every position of the portfolio" }
func (*overviewCmd) Usage() string {
	return `depot overview [-d <date>] [-json]

  Prints one line per symbol: amount, cost basis, market value, performance,
  fees, running and yearly cost. Values that cannot be computed are N/A.
  See 'depot topic overview'.
`
}

func (c *overviewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "0d", "Date until which running costs are accrued (defaults to today).")
	f.BoolVar(&c.json, "json", false, "Print the overview as JSON.")
}

func (c *overviewCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	on, ok := parseDateFlag("d", c.date)
	if !ok {
		return subcommands.ExitUsageError
	}
	return execute(ctx, func(ctx context.Context, p *depot.Portfolio) error {
		o, err := p.OverviewAt(ctx, on)
		if err != nil {
			return err
		}
		if err := o.Errors(); err != nil {
			log.Warn().Err(err).Msg("some values are not available")
		}
		if c.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(o)
		}
		printMarkdown(renderer.OverviewMarkdown(o))
		return nil
	})
}
