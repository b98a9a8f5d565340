package depot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

func ptr[T any](v T) *T { return &v }

func buy(t *testing.T, symbol string, amount, price, cost float64, on string) Trade {
	t.Helper()
	tr, err := NewTrade(symbol, amount, price, cost, MustParseDate(on), Buy)
	require.NoError(t, err)
	return tr
}

func sell(t *testing.T, symbol string, amount, price, cost float64, on string) Trade {
	t.Helper()
	tr, err := NewTrade(symbol, amount, price, cost, MustParseDate(on), Sell)
	require.NoError(t, err)
	return tr
}

// assertMoney checks the amount and the currency of m.
func assertMoney(t *testing.T, want float64, currency string, m Money) {
	t.Helper()
	require.Equal(t, currency, m.Currency(), "currency of %v", m)
	require.InDelta(t, want, m.Float(), 1e-6, "amount of %v", m)
}

// testMarket holds two stocks: "EU" quoted in EUR with a 0.2% fee, and "US"
// quoted in USD without published fee. 1 USD = 0.9 EUR.
func testMarket() *MarketFile {
	m := NewMarketFile()
	m.Define("EU", Metadata{Currency: "EUR", AnnualExpenseRatio: ptr(0.002)})
	m.Define("US", Metadata{Currency: "USD"})
	m.AddPrice("EU", NewDate(2024, 1, 2), 100)
	m.AddPrice("US", NewDate(2024, 1, 2), 50)
	m.AddRate("USD", "EUR", NewDate(2024, 1, 2), 0.8)
	m.AddRate("USD", "EUR", NewDate(2024, 6, 3), 0.9)
	return m
}

// countingSource counts calls and can fail them.
type countingSource struct {
	PriceSource

	mu       sync.Mutex
	prices   int
	metadata int
	rates    int
	fail     error // error returned by failing calls
	failures int   // number of calls to fail, -1 fails them all
}

func (s *countingSource) failing() error {
	if s.fail == nil {
		return nil
	}
	if s.failures < 0 {
		return s.fail
	}
	if s.failures > 0 {
		s.failures--
		return s.fail
	}
	return nil
}

func (s *countingSource) LatestPrice(ctx context.Context, symbol string) (Quote, error) {
	s.mu.Lock()
	s.prices++
	err := s.failing()
	s.mu.Unlock()
	if err != nil {
		return Quote{}, err
	}
	return s.PriceSource.LatestPrice(ctx, symbol)
}

func (s *countingSource) Metadata(ctx context.Context, symbol string) (Metadata, error) {
	s.mu.Lock()
	s.metadata++
	err := s.failing()
	s.mu.Unlock()
	if err != nil {
		return Metadata{}, err
	}
	return s.PriceSource.Metadata(ctx, symbol)
}

func (s *countingSource) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	s.mu.Lock()
	s.rates++
	err := s.failing()
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return s.PriceSource.ExchangeRate(ctx, from, to)
}
