package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the command line.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{
			"config":        predict.Files("*.yaml"),
			"source":        predict.Set(Sources),
			"market-file":   predict.Files("*.jsonl"),
			"eodhd-api-key": predict.Nothing,
			"timeout":       predict.Something,
			"retries":       predict.Something,
			"conversion":    predict.Set{"latest", "historical"},
			"markdown":      predict.Nothing,
			"v":             predict.Nothing,
		},
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		fs.VisitAll(func(f *flag.Flag) {
			if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				sub.Flags[f.Name] = predict.Nothing
				return
			}
			sub.Flags[f.Name] = predict.Something
		})
		switch cmd.Name() {
		case "import-ebase":
			sub.Args = predict.Files("*.csv")
		case "import":
			sub.Args = predict.Files("*.jsonl")
		}
		root.Sub[cmd.Name()] = sub
	})
	return root
}
