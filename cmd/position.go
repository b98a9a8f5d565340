package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/depot"
	"github.com/etnz/depot/renderer"
	"github.com/google/subcommands"
)

type positionCmd struct {
	date string
}

func (*positionCmd) Name() string     { return "position" }
func (*positionCmd) Synopsis() string { return "value one position and show its history" }
func (*positionCmd) Usage() string {
	return `depot position [-d <date>] <symbol>

  Prints the valuation of a position, and its history trade day by trade day.
`
}

func (c *positionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "0d", "Date until which running costs are accrued (defaults to today).")
}

func (c *positionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(0)
	on, ok := parseDateFlag("d", c.date)
	if !ok {
		return subcommands.ExitUsageError
	}
	return execute(ctx, func(ctx context.Context, p *depot.Portfolio) error {
		pos, err := p.Position(ctx, symbol)
		if err != nil {
			return err
		}
		o, err := p.OverviewAt(ctx, on)
		if err != nil {
			return err
		}
		for _, row := range o.Rows {
			if row.Symbol == symbol {
				printMarkdown(renderer.PositionMarkdown(row, pos.History()))
				return nil
			}
		}
		return fmt.Errorf("%w: no position %q", depot.ErrInvalidArgument, symbol)
	})
}
