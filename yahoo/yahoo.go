// Package yahoo is a price source backed by the public Yahoo Finance
// endpoints: chart v8 for prices and exchange rates, quoteSummary for fund
// expense ratios.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/depot"
	"github.com/etnz/depot/webcache"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Yahoo Finance API host.
const DefaultBaseURL = "https://query2.finance.yahoo.com"

// Client queries Yahoo Finance.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client with a daily disk cache.
func New() *Client {
	return &Client{BaseURL: DefaultBaseURL, HTTP: webcache.NewClient(webcache.Daily, "")}
}

// fxSymbol is the Yahoo symbol of the rate 'to' per 'from'.
func fxSymbol(from, to string) string { return from + to + "=X" }

// chart returns the chart document of symbol. 'on' selects a window ending
// that day, zero means the most recent days.
func (c *Client) chart(ctx context.Context, symbol string, on depot.Date) (any, error) {
	q := url.Values{"interval": {"1d"}}
	if on.IsZero() {
		q.Set("range", "5d")
	} else {
		end := time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		q.Set("period1", fmt.Sprint(end.AddDate(0, 0, -10).Unix()))
		q.Set("period2", fmt.Sprint(end.Unix()))
	}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.BaseURL, url.PathEscape(symbol), q.Encode())
	var jobj any
	if err := webcache.GetJSON(ctx, c.HTTP, addr, &jobj); err != nil {
		return nil, unavailable(symbol, err)
	}
	return jobj, nil
}

// unavailable marks client errors as missing data.
func unavailable(symbol string, err error) error {
	var status *webcache.StatusError
	if errors.As(err, &status) && status.StatusCode >= 400 && status.StatusCode < 500 {
		return fmt.Errorf("%w: yahoo has no %s: %w", depot.ErrDataUnavailable, symbol, err)
	}
	return fmt.Errorf("yahoo %s: %w", symbol, err)
}

// get returns the value at path, or nil if there is none.
func get(path string, jobj any) any {
	v, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil
	}
	return v
}

// lastOpen returns the most recent non null open of a chart document.
func lastOpen(symbol string, jobj any) (depot.Date, float64, error) {
	stamps, _ := get("$.chart.result[0].timestamp", jobj).([]any)
	opens, _ := get("$.chart.result[0].indicators.quote[0].open", jobj).([]any)
	for i := min(len(stamps), len(opens)) - 1; i >= 0; i-- {
		open, ok := opens[i].(float64)
		if !ok || open <= 0 || math.IsNaN(open) {
			continue
		}
		ts, _ := stamps[i].(float64)
		day := time.Unix(int64(ts), 0).UTC()
		return depot.NewDate(day.Date()), open, nil
	}
	return depot.Date{}, 0, fmt.Errorf("%w: yahoo has no open price for %s", depot.ErrDataUnavailable, symbol)
}

// LatestPrice returns the most recent open price of symbol.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (depot.Quote, error) {
	jobj, err := c.chart(ctx, symbol, depot.Date{})
	if err != nil {
		return depot.Quote{}, err
	}
	on, open, err := lastOpen(symbol, jobj)
	if err != nil {
		return depot.Quote{}, err
	}
	currency, _ := get("$.chart.result[0].meta.currency", jobj).(string)
	return depot.Quote{Date: on, Open: open, Currency: currency}, nil
}

// Metadata returns the currency of symbol and, for funds, the annual report
// expense ratio.
func (c *Client) Metadata(ctx context.Context, symbol string) (depot.Metadata, error) {
	jobj, err := c.chart(ctx, symbol, depot.Date{})
	if err != nil {
		return depot.Metadata{}, err
	}
	currency, _ := get("$.chart.result[0].meta.currency", jobj).(string)
	if currency == "" {
		return depot.Metadata{}, fmt.Errorf("%w: yahoo has no currency for %s", depot.ErrDataUnavailable, symbol)
	}
	meta := depot.Metadata{Currency: currency}

	addr := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=defaultKeyStatistics,fundProfile", c.BaseURL, url.PathEscape(symbol))
	var summary any
	if err := webcache.GetJSON(ctx, c.HTTP, addr, &summary); err != nil {
		if err := unavailable(symbol, err); errors.Is(err, depot.ErrDataUnavailable) {
			log.Debug().Err(err).Str("symbol", symbol).Msg("no quote summary")
			return meta, nil
		}
		return depot.Metadata{}, fmt.Errorf("yahoo quote summary %s: %w", symbol, err)
	}
	for _, path := range []string{
		"$.quoteSummary.result[0].defaultKeyStatistics.annualReportExpenseRatio.raw",
		"$.quoteSummary.result[0].fundProfile.feesExpensesInvestment.annualReportExpenseRatio.raw",
	} {
		if ratio, ok := get(path, summary).(float64); ok {
			meta.AnnualExpenseRatio = &ratio
			break
		}
	}
	return meta, nil
}

// ExchangeRate returns the latest daily open of the 'to' per 'from' rate.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	return c.ExchangeRateOn(ctx, from, to, depot.Date{})
}

// ExchangeRateOn returns the open of the 'to' per 'from' rate on a day, or
// the closest day before. A zero day returns the latest rate.
func (c *Client) ExchangeRateOn(ctx context.Context, from, to string, on depot.Date) (float64, error) {
	symbol := fxSymbol(from, to)
	jobj, err := c.chart(ctx, symbol, on)
	if err != nil {
		return 0, err
	}
	_, open, err := lastOpen(symbol, jobj)
	return open, err
}
