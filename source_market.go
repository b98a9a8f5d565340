package depot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// MarketFile is an offline price source.
//
// It is stored as jsonl, one object per line. A line with a "symbol"
// property defines a stock:
//
//	{"symbol": "VWCE.DE", "currency": "EUR", "ter": 0.0022}
//
// any other line holds the prices of a day, exchange rates use a "FROM/TO"
// key:
//
//	{"on": "2024-01-02", "VWCE.DE": 101.2, "USD/EUR": 0.91}
type MarketFile struct {
	mu     sync.RWMutex
	stocks map[string]Metadata
	prices map[string][]datedValue
	rates  map[string][]datedValue // by "FROM/TO"
}

type datedValue struct {
	on    Date
	value float64
}

// NewMarketFile returns an empty market.
func NewMarketFile() *MarketFile {
	return &MarketFile{
		stocks: make(map[string]Metadata),
		prices: make(map[string][]datedValue),
		rates:  make(map[string][]datedValue),
	}
}

// Define sets the reference data of symbol.
func (m *MarketFile) Define(symbol string, meta Metadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[symbol] = meta
}

// AddPrice records the open price of symbol on a day.
func (m *MarketFile) AddPrice(symbol string, on Date, open float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = insert(m.prices[symbol], on, open)
}

// AddRate records the exchange rate 'to' per 'from' on a day.
func (m *MarketFile) AddRate(from, to string, on Date, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := from + "/" + to
	m.rates[key] = insert(m.rates[key], on, rate)
}

// insert keeps values sorted by date, a value on an existing date replaces it.
func insert(values []datedValue, on Date, v float64) []datedValue {
	i, found := slices.BinarySearchFunc(values, on, func(e datedValue, on Date) int { return e.on.DaysSince(on) })
	if found {
		values[i].value = v
		return values
	}
	return slices.Insert(values, i, datedValue{on, v})
}

// lastOn returns the most recent value on or before 'on'.
func lastOn(values []datedValue, on Date) (datedValue, bool) {
	i, found := slices.BinarySearchFunc(values, on, func(e datedValue, on Date) int { return e.on.DaysSince(on) })
	if found {
		return values[i], true
	}
	if i == 0 {
		return datedValue{}, false
	}
	return values[i-1], true
}

func (m *MarketFile) LatestPrice(ctx context.Context, symbol string) (Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := m.prices[symbol]
	if len(values) == 0 {
		return Quote{}, fmt.Errorf("%w: no price for %q in market file", ErrDataUnavailable, symbol)
	}
	last := values[len(values)-1]
	return Quote{Date: last.on, Open: last.value, Currency: m.stocks[symbol].Currency}, nil
}

func (m *MarketFile) Metadata(ctx context.Context, symbol string) (Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.stocks[symbol]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %q is not defined in market file", ErrDataUnavailable, symbol)
	}
	return meta, nil
}

func (m *MarketFile) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	return m.rate(from, to, nil)
}

func (m *MarketFile) ExchangeRateOn(ctx context.Context, from, to string, on Date) (float64, error) {
	return m.rate(from, to, &on)
}

// rate returns the latest rate, or the rate on a day when on is not nil.
// Inverse pairs are used when the direct one is missing.
func (m *MarketFile) rate(from, to string, on *Date) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pick := func(values []datedValue) (float64, bool) {
		if len(values) == 0 {
			return 0, false
		}
		if on == nil {
			return values[len(values)-1].value, true
		}
		v, ok := lastOn(values, *on)
		return v.value, ok
	}
	if v, ok := pick(m.rates[from+"/"+to]); ok {
		return v, nil
	}
	if v, ok := pick(m.rates[to+"/"+from]); ok && v != 0 {
		return 1 / v, nil
	}
	return 0, fmt.Errorf("%w: no %s/%s rate in market file", ErrDataUnavailable, from, to)
}

// DecodeMarketFile reads a market in jsonl format. name is used in error
// messages only.
func DecodeMarketFile(name string, r io.Reader) (*MarketFile, error) {
	m := NewMarketFile()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		if err := m.decodeLine(txt); err != nil {
			return nil, fmt.Errorf("parse error %s:%d: %w", name, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", name, err)
	}
	return m, nil
}

func (m *MarketFile) decodeLine(txt string) error {
	jobj := make(map[string]any)
	if err := json.Unmarshal([]byte(txt), &jobj); err != nil {
		return fmt.Errorf("not a correct json: %w", err)
	}

	if _, ok := jobj["symbol"]; ok {
		var js struct {
			Symbol   string   `json:"symbol"`
			Currency string   `json:"currency"`
			TER      *float64 `json:"ter,omitempty"`
		}
		if err := json.Unmarshal([]byte(txt), &js); err != nil || js.Symbol == "" {
			return fmt.Errorf("invalid stock definition %s", txt)
		}
		m.Define(js.Symbol, Metadata{Currency: js.Currency, AnnualExpenseRatio: js.TER})
		return nil
	}

	jon, ok := jobj["on"].(string)
	if !ok {
		return fmt.Errorf("missing the property %q with a date", "on")
	}
	on, err := ParseDate(jon)
	if err != nil {
		return err
	}
	for key, jv := range jobj {
		if key == "on" {
			continue
		}
		v, ok := jv.(float64)
		if !ok {
			return fmt.Errorf("property %q must be of type 'number'", key)
		}
		if from, to, isRate := strings.Cut(key, "/"); isRate {
			m.AddRate(from, to, on, v)
			continue
		}
		m.AddPrice(key, on, v)
	}
	return nil
}

// ReadMarketFile reads the market stored in path.
func ReadMarketFile(path string) (*MarketFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open market file: %w", err)
	}
	defer f.Close()
	return DecodeMarketFile(path, f)
}
