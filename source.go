package depot

import "context"

// Quote is the latest price sample of a stock in its native currency.
type Quote struct {
	Date     Date    // day of the sample
	Open     float64 // open price of the most recent period
	Currency string  // native currency of the price
}

// Metadata is the reference data of a stock.
type Metadata struct {
	Currency string
	// AnnualExpenseRatio is the published yearly fee as a fraction (0.002 for 0.2%).
	// nil when the provider does not publish one.
	AnnualExpenseRatio *float64
}

// PriceSource supplies prices, reference data and exchange rates.
//
// Implementations return errors wrapping ErrDataUnavailable when the symbol
// or the currency pair cannot be resolved.
type PriceSource interface {
	// LatestPrice returns the most recent price sample of symbol.
	LatestPrice(ctx context.Context, symbol string) (Quote, error)
	// Metadata returns the reference data of symbol.
	Metadata(ctx context.Context, symbol string) (Metadata, error)
	// ExchangeRate returns the most recent daily rate, as units of 'to' per one 'from'.
	ExchangeRate(ctx context.Context, from, to string) (float64, error)
}

// HistoricalRates is implemented by sources able to return the exchange rate
// of a specific day.
type HistoricalRates interface {
	// ExchangeRateOn returns the rate on the given day or the most recent one before it.
	ExchangeRateOn(ctx context.Context, from, to string, on Date) (float64, error)
}
