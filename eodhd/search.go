package eodhd

import (
	"context"
	"net/url"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string  `json:"Code"`
	Exchange          string  `json:"Exchange"`
	Name              string  `json:"Name"`
	Type              string  `json:"Type"`
	Country           string  `json:"Country"`
	Currency          string  `json:"Currency"`
	ISIN              string  `json:"ISIN"`
	PreviousClose     float64 `json:"previousClose"`
	PreviousCloseDate string  `json:"previousCloseDate"`
}

// Ticker returns the ticker to use with the price source.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Search searches stocks by name, code or ISIN.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	var results []SearchResult
	if err := c.get(ctx, c.HTTP, "match for "+term, c.url("/api/search/"+url.PathEscape(term), nil), &results); err != nil {
		return nil, err
	}
	return results, nil
}
