// Package tradegate is a price source for stocks traded on the Tradegate
// exchange, identified by their ISIN. All prices are in EUR.
//
// The only exchange rate available is EUR/USD, read from Lang & Schwarz.
package tradegate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/depot"
	"github.com/etnz/depot/webcache"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTradegateURL = "https://www.tradegate.de/refresh.php"
	DefaultLSURL        = "https://www.ls-tc.de/_rpc/json/instrument/chart/dataForInstrument"
	// eurusdInstrument is the L&S instrument id of EUR/USD.
	eurusdInstrument = "349938"
)

// Client queries Tradegate and L&S. Prices are not cached, they are live.
type Client struct {
	TradegateURL string
	LSURL        string
	HTTP         *http.Client
}

func New() *Client {
	return &Client{TradegateURL: DefaultTradegateURL, LSURL: DefaultLSURL, HTTP: new(http.Client)}
}

// LatestPrice returns the last traded price of isin, or the bid when nothing
// has been traded yet.
//
//	{"bid": 101.2, "ask": 101.4, "last": "./.", "bidsize": 500, ...}
func (c *Client) LatestPrice(ctx context.Context, isin string) (depot.Quote, error) {
	var jobj map[string]any
	addr := c.TradegateURL + "?" + url.Values{"isin": {isin}}.Encode()
	if err := webcache.GetJSON(ctx, c.HTTP, addr, &jobj); err != nil {
		var status *webcache.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return depot.Quote{}, fmt.Errorf("%w: tradegate has no %s: %w", depot.ErrDataUnavailable, isin, err)
		}
		return depot.Quote{}, fmt.Errorf("tradegate %s: %w", isin, err)
	}
	// last moves slower than the bid, but the bid can be 0.
	jval := jobj["last"]
	if s, ok := jval.(string); ok && s == "./." {
		log.Debug().Str("isin", isin).Msg("'last' is empty, falling back to 'bid'")
		jval = jobj["bid"]
	}
	val, err := number(jval)
	if err != nil {
		return depot.Quote{}, fmt.Errorf("%w: cannot read the price of %s: %w", depot.ErrDataUnavailable, isin, err)
	}
	if val == 0 {
		return depot.Quote{}, fmt.Errorf("%w: empty bid for %s: bidsize=%v", depot.ErrDataUnavailable, isin, jobj["bidsize"])
	}
	return depot.Quote{Date: depot.Today(), Open: val, Currency: "EUR"}, nil
}

// number reads a float that this API sometimes returns as a string with a
// decimal comma.
func number(jval any) (float64, error) {
	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("neither a float or string: %v", jval)
	}
}

// Metadata returns EUR for every stock, Tradegate publishes no fees.
func (c *Client) Metadata(ctx context.Context, isin string) (depot.Metadata, error) {
	return depot.Metadata{Currency: "EUR"}, nil
}

// ExchangeRate supports only EUR and USD.
func (c *Client) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	switch {
	case from == "EUR" && to == "USD":
		return c.usdPerEUR(ctx)
	case from == "USD" && to == "EUR":
		v, err := c.usdPerEUR(ctx)
		if err != nil {
			return 0, err
		}
		return 1 / v, nil
	default:
		return 0, fmt.Errorf("%w: no %s/%s rate on tradegate", depot.ErrDataUnavailable, from, to)
	}
}

// usdPerEUR reads the last intraday EUR/USD quote.
//
//	{"series": {"intraday": {"data": [[1718000000000, 1.0741], [1718000060000, 1.0743]]}}}
func (c *Client) usdPerEUR(ctx context.Context) (float64, error) {
	q := url.Values{"instrumentId": {eurusdInstrument}, "series": {"intraday"}, "type": {"mini"}}
	var jobj any
	if err := webcache.GetJSON(ctx, c.HTTP, c.LSURL+"?"+q.Encode(), &jobj); err != nil {
		return 0, fmt.Errorf("cannot get EUR/USD: %w", err)
	}
	path := "$.series.intraday.data[-1:][1]"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("%w: EUR/USD at %q: %w", depot.ErrDataUnavailable, path, err)
	}
	// jsonpath returns a list of one answer for slices.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok || val <= 0 {
		return 0, fmt.Errorf("%w: EUR/USD at %q is not a positive float: %v", depot.ErrDataUnavailable, path, jval)
	}
	return val, nil
}
