package cmd

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/etnz/depot"
	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// set sets a global flag for the duration of the test.
func set[T any](t *testing.T, p *T, value T) {
	t.Helper()
	old := *p
	*p = value
	t.Cleanup(func() { *p = old })
}

const testConfig = `name: test
currency: EUR
trades:
  - {symbol: EU, amount: 10, price: 800, cost: 1, date: 2024-01-02, signum: buy}
  - {symbol: US, amount: 4, price: 160, cost: 0, date: 2024-01-02, signum: buy}
`

const testMarket = `{"symbol": "EU", "currency": "EUR", "ter": 0.002}
{"symbol": "US", "currency": "USD"}
{"on": "2024-01-02", "EU": 100, "US": 50, "USD/EUR": 0.9}
`

// workspace writes a configuration and a market file, and selects them.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "depot.yaml")
	market := filepath.Join(dir, "market.jsonl")
	require.NoError(t, os.WriteFile(config, []byte(testConfig), 0644))
	require.NoError(t, os.WriteFile(market, []byte(testMarket), 0644))
	set(t, configFile, config)
	set(t, marketFile, market)
	set(t, sourceName, SourceMarket)
	return dir
}

func TestLoadPortfolio(t *testing.T) {
	workspace(t)
	p, err := LoadPortfolio()
	require.NoError(t, err)
	assert.Equal(t, "test", p.Name())

	o, err := p.Overview(context.Background())
	require.NoError(t, err)
	require.NoError(t, o.Errors())
	require.NotNil(t, o.TotalMarketValue)
	assert.InDelta(t, 1000+4*50*0.9, o.TotalMarketValue.Float(), 1e-9)
}

func TestOpenSource(t *testing.T) {
	set(t, sourceName, "nope")
	_, err := OpenSource()
	assert.ErrorIs(t, err, depot.ErrInvalidArgument)

	set(t, sourceName, SourceEODHD)
	set(t, eodhdKey, "")
	t.Setenv(EnvEODHDKey, "")
	_, err = OpenSource()
	assert.Error(t, err)

	t.Setenv(EnvEODHDKey, "demo")
	src, err := OpenSource()
	require.NoError(t, err)
	_, ok := src.(depot.HistoricalRates)
	assert.True(t, ok, "eodhd has historical rates")

	set(t, conversion, "monthly")
	workspace(t)
	_, err = LoadPortfolio()
	assert.ErrorIs(t, err, depot.ErrInvalidArgument)
}

func TestParseSymbols(t *testing.T) {
	got, err := parseSymbols("IE00B4L5Y983=EUNL.DE, LU0274208692=XDWD.DE")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"IE00B4L5Y983": "EUNL.DE", "LU0274208692": "XDWD.DE"}, got)

	got, err = parseSymbols("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseSymbols("IE00B4L5Y983")
	assert.ErrorIs(t, err, depot.ErrInvalidArgument)
}

func TestAppendTrades(t *testing.T) {
	workspace(t)
	tr, err := depot.NewTrade("EU", 1, 100, 0, depot.NewDate(2024, 2, 1), depot.Sell)
	require.NoError(t, err)
	assert.Equal(t, subcommands.ExitSuccess, appendTrades([]depot.Trade{tr}))

	cfg, err := depot.ReadConfigurationFile(*configFile)
	require.NoError(t, err)
	require.Len(t, cfg.Trades, 3)
	assert.Equal(t, depot.Sell, cfg.Trades[2].Signum)

	// an invalid trade leaves the file unchanged
	assert.Equal(t, subcommands.ExitFailure, appendTrades([]depot.Trade{{}}))
	cfg, err = depot.ReadConfigurationFile(*configFile)
	require.NoError(t, err)
	assert.Len(t, cfg.Trades, 3)
}

func TestImportExport(t *testing.T) {
	dir := workspace(t)
	out := filepath.Join(dir, "trades.jsonl")

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	export := &exportCmd{}
	export.SetFlags(fs)
	require.NoError(t, fs.Parse([]string{"-o", out}))
	require.Equal(t, subcommands.ExitSuccess, export.Execute(context.Background(), fs))

	fs = flag.NewFlagSet("import", flag.ContinueOnError)
	require.NoError(t, fs.Parse([]string{out}))
	require.Equal(t, subcommands.ExitSuccess, (&importCmd{}).Execute(context.Background(), fs))

	cfg, err := depot.ReadConfigurationFile(*configFile)
	require.NoError(t, err)
	assert.Len(t, cfg.Trades, 4, "trades are appended")
}

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("extensions are shell scripts in this test")
	}
	dir := t.TempDir()
	script := "#!/bin/sh\necho \"$DEPOT_CONFIG $DEPOT_SOURCE $DEPOT_VERBOSE $1\"\nexit 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ExtensionPrefix+"hello"), []byte(script), 0755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	set(t, configFile, "my.yaml")
	set(t, sourceName, SourceTradegate)
	set(t, Verbose, true)

	var stdout, stderr bytes.Buffer
	found, code := runExtension(strings.NewReader(""), &stdout, &stderr, "hello", []string{"world"})
	assert.True(t, found)
	assert.Equal(t, 3, code)
	assert.Equal(t, "my.yaml tradegate true world\n", stdout.String())

	found, _ = runExtension(strings.NewReader(""), &stdout, &stderr, "missing", nil)
	assert.False(t, found)
}

func TestCompletion(t *testing.T) {
	commander := subcommands.NewCommander(flag.NewFlagSet("depot", flag.ContinueOnError), "depot")
	Register(commander)

	c := Completion(commander)
	for _, cmds := range Commands {
		for _, cmd := range cmds {
			assert.Contains(t, c.Sub, cmd.Name())
		}
	}
	require.Contains(t, c.Sub, "overview")
	assert.Contains(t, c.Sub["overview"].Flags, "json")
	assert.NotNil(t, c.Sub["import-ebase"].Args)
	assert.Contains(t, c.Flags, "config")
}

func TestEnvOr(t *testing.T) {
	t.Setenv("DEPOT_TEST_ENV", "")
	assert.Equal(t, "x", envOr("DEPOT_TEST_ENV", "x"))
	t.Setenv("DEPOT_TEST_ENV", "y")
	assert.Equal(t, "y", envOr("DEPOT_TEST_ENV", "x"))
	t.Setenv("DEPOT_TEST_ENV", "true")
	assert.True(t, envBool("DEPOT_TEST_ENV"))
}
