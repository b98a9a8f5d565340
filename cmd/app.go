// Package cmd implements the depot command line.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/etnz/depot"
	"github.com/etnz/depot/eodhd"
	"github.com/etnz/depot/tradegate"
	"github.com/etnz/depot/yahoo"
	"github.com/google/subcommands"
)

// Environment variables providing defaults to the global flags. They are
// also set for extensions.
const (
	EnvConfig     = "DEPOT_CONFIG"
	EnvSource     = "DEPOT_SOURCE"
	EnvMarketFile = "DEPOT_MARKET_FILE"
	EnvConversion = "DEPOT_CONVERSION"
	EnvVerbose    = "DEPOT_VERBOSE"
	EnvEODHDKey   = eodhd.APIKeyEnv
)

// Names of the price sources.
const (
	SourceYahoo     = "yahoo"
	SourceEODHD     = "eodhd"
	SourceTradegate = "tradegate"
	SourceMarket    = "market"
)

// Sources lists the names accepted by -source.
var Sources = []string{SourceYahoo, SourceEODHD, SourceTradegate, SourceMarket}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.
var (
	configFile  = flag.String("config", envOr(EnvConfig, "depot.yaml"), "Path to the portfolio configuration (yaml or json). Defaults to $"+EnvConfig+".")
	sourceName  = flag.String("source", envOr(EnvSource, SourceYahoo), "Price source: yahoo, eodhd, tradegate or market. Defaults to $"+EnvSource+".")
	marketFile  = flag.String("market-file", envOr(EnvMarketFile, "market.jsonl"), "Path to the market file used by the market source.")
	eodhdKey    = flag.String("eodhd-api-key", "", "EODHD API key, takes precedence over the "+EnvEODHDKey+" environment variable. You can get one at https://eodhd.com/")
	timeout     = flag.Duration("timeout", depot.DefaultRetryPolicy.Timeout, "Timeout of a single request to the price source.")
	retries     = flag.Int("retries", depot.DefaultRetryPolicy.Attempts, "Number of attempts of a request to the price source.")
	conversion  = flag.String("conversion", envOr(EnvConversion, depot.ConversionLatest.String()), "Exchange rates used for past dates: latest or historical.")
	rawMarkdown = flag.Bool("markdown", false, "Print reports as raw markdown.")
	Verbose     = flag.Bool("v", envBool(EnvVerbose), "Verbose logging. Defaults to $"+EnvVerbose+".")
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

// Commands lists all subcommands by group.
var Commands = map[string][]subcommands.Command{
	"reports": {
		&overviewCmd{},
		&positionCmd{},
		&tradesCmd{},
	},
	"trades": {
		&importCmd{},
		&importEbaseCmd{},
		&exportCmd{},
	},
	"market": {
		&searchCmd{},
	},
	"help": {
		&topicCmd{},
		&assistCmd{},
	},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for group, cmds := range Commands {
		for _, cmd := range cmds {
			c.Register(cmd, group)
		}
	}
}

// eodhdAPIKey returns the flag, or the environment variable.
func eodhdAPIKey() string {
	if *eodhdKey != "" {
		return *eodhdKey
	}
	return os.Getenv(EnvEODHDKey)
}

// OpenSource returns the price source selected by the global flags, retried
// and cached.
func OpenSource() (depot.PriceSource, error) {
	var src depot.PriceSource
	switch *sourceName {
	case SourceYahoo:
		src = yahoo.New()
	case SourceEODHD:
		key := eodhdAPIKey()
		if key == "" {
			return nil, fmt.Errorf("EODHD API key is not set, use -eodhd-api-key or %s", EnvEODHDKey)
		}
		src = eodhd.New(key)
	case SourceTradegate:
		src = tradegate.New()
	case SourceMarket:
		m, err := depot.ReadMarketFile(*marketFile)
		if err != nil {
			return nil, err
		}
		src = m
	default:
		return nil, fmt.Errorf("%w: unknown source %q, want one of %v", depot.ErrInvalidArgument, *sourceName, Sources)
	}

	policy := depot.DefaultRetryPolicy
	policy.Attempts = *retries
	policy.Timeout = *timeout
	return depot.Cached(depot.Resilient(src, policy), time.Hour), nil
}

// LoadPortfolio reads the configuration file and binds it to the price source.
func LoadPortfolio() (*depot.Portfolio, error) {
	cfg, err := depot.ReadConfigurationFile(*configFile)
	if err != nil {
		return nil, err
	}
	mode, err := depot.ParseConversionMode(*conversion)
	if err != nil {
		return nil, err
	}
	src, err := OpenSource()
	if err != nil {
		return nil, err
	}
	return depot.FromConfiguration(cfg, depot.WithSource(src), depot.WithConversion(mode))
}

// SaveConfiguration writes cfg to the configuration file.
func SaveConfiguration(cfg depot.Configuration) error {
	f, err := os.CreateTemp(filepath.Dir(*configFile), ".depot-*.yaml")
	if err != nil {
		return fmt.Errorf("cannot save configuration: %w", err)
	}
	defer os.Remove(f.Name())
	if err := depot.EncodeConfiguration(f, cfg); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), *configFile)
}

// parseDateFlag parses a date flag, reporting errors on stderr.
func parseDateFlag(name, value string) (depot.Date, bool) {
	d, err := depot.ParseDate(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -%s: %v\n", name, err)
		return depot.Date{}, false
	}
	return d, true
}

// execute runs f with the portfolio, reporting errors on stderr.
func execute(ctx context.Context, f func(context.Context, *depot.Portfolio) error) subcommands.ExitStatus {
	p, err := LoadPortfolio()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading portfolio:", err)
		return subcommands.ExitFailure
	}
	if err := f(ctx, p); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
