// Package eodhd is a price source backed by the EOD Historical Data API
// (https://eodhd.com). It requires an API key.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/etnz/depot"
	"github.com/etnz/depot/webcache"
	"github.com/shopspring/decimal"
)

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "EODHD_API_KEY"

// DefaultBaseURL is the EODHD API host.
const DefaultBaseURL = "https://eodhd.com"

// window is the number of days looked back for the most recent price.
const window = 10

// Client queries the EODHD API.
//
// Tickers use the EODHD format "CODE.EXCHANGE", for instance "VWCE.XETRA".
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client // prices, refreshed daily
	Static  *http.Client // fundamentals and exchanges, refreshed monthly
}

// New returns a client with daily and monthly disk caches.
func New(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		HTTP:    webcache.NewClient(webcache.Daily, ""),
		Static:  webcache.NewClient(webcache.Monthly, ""),
	}
}

func (c *Client) url(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_token", c.APIKey)
	q.Set("fmt", "json")
	return c.BaseURL + path + "?" + q.Encode()
}

func (c *Client) get(ctx context.Context, client *http.Client, what, addr string, data any) error {
	if client == nil {
		client = c.HTTP
	}
	err := webcache.GetJSON(ctx, client, addr, data)
	var status *webcache.StatusError
	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: eodhd has no %s: %w", depot.ErrDataUnavailable, what, err)
	}
	if err != nil {
		return fmt.Errorf("eodhd %s: %w", what, err)
	}
	return nil
}

// bar is a daily price of the end of day endpoint.
type bar struct {
	Date  depot.Date      `json:"date"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

// lastOpen returns the most recent open on or before 'on'.
func (c *Client) lastOpen(ctx context.Context, ticker string, on depot.Date) (bar, error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-01-01&to=2024-01-10
	// bounds are included in the response.
	q := url.Values{"from": {on.Add(-window).String()}, "to": {on.String()}}
	var bars []bar
	if err := c.get(ctx, c.HTTP, ticker, c.url("/api/eod/"+url.PathEscape(ticker), q), &bars); err != nil {
		return bar{}, err
	}
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Open.IsPositive() && !bars[i].Date.After(on) {
			return bars[i], nil
		}
	}
	return bar{}, fmt.Errorf("%w: eodhd has no price for %s before %s", depot.ErrDataUnavailable, ticker, on)
}

// LatestPrice returns the most recent open of ticker. The quote carries no
// currency, it is given by Metadata.
func (c *Client) LatestPrice(ctx context.Context, ticker string) (depot.Quote, error) {
	b, err := c.lastOpen(ctx, ticker, depot.Today())
	if err != nil {
		return depot.Quote{}, err
	}
	return depot.Quote{Date: b.Date, Open: b.Open.InexactFloat64()}, nil
}

// Metadata reads the currency and, for ETFs, the net expense ratio from the
// fundamentals endpoint.
func (c *Client) Metadata(ctx context.Context, ticker string) (depot.Metadata, error) {
	var fundamentals struct {
		General struct {
			Code         string `json:"Code"`
			CurrencyCode string `json:"CurrencyCode"`
		} `json:"General"`
		ETFData struct {
			NetExpenseRatio decimal.NullDecimal `json:"NetExpenseRatio"`
		} `json:"ETF_Data"`
	}
	if err := c.get(ctx, c.Static, ticker, c.url("/api/fundamentals/"+url.PathEscape(ticker), nil), &fundamentals); err != nil {
		return depot.Metadata{}, err
	}
	if fundamentals.General.CurrencyCode == "" {
		return depot.Metadata{}, fmt.Errorf("%w: eodhd has no currency for %s", depot.ErrDataUnavailable, ticker)
	}
	meta := depot.Metadata{Currency: fundamentals.General.CurrencyCode}
	if r := fundamentals.ETFData.NetExpenseRatio; r.Valid {
		ratio := r.Decimal.InexactFloat64()
		meta.AnnualExpenseRatio = &ratio
	}
	return meta, nil
}

// forexTicker is the EODHD ticker of the rate 'to' per 'from'.
func forexTicker(from, to string) string { return from + to + ".FOREX" }

// ExchangeRate returns the most recent daily open of 'to' per 'from'.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	return c.ExchangeRateOn(ctx, from, to, depot.Today())
}

// ExchangeRateOn returns the open of 'to' per 'from' on a day or the closest
// day before.
//
// Forex close values are unreliable on eodhd, opens are used everywhere.
func (c *Client) ExchangeRateOn(ctx context.Context, from, to string, on depot.Date) (float64, error) {
	b, err := c.lastOpen(ctx, forexTicker(from, to), on)
	if err != nil {
		return 0, err
	}
	return b.Open.InexactFloat64(), nil
}
