package depot

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration is the declarative description of a depot, as stored in a
// yaml or json file.
type Configuration struct {
	Name     string           `yaml:"name"`
	Currency string           `yaml:"currency"`
	Trades   []TradeRecord    `yaml:"trades"`
	Stocks   []map[string]any `yaml:"stocks,omitempty"`
}

// TradeRecord is the serialized form of a Trade.
type TradeRecord struct {
	Symbol string  `yaml:"symbol" json:"symbol"`
	Amount float64 `yaml:"amount" json:"amount"`
	Price  float64 `yaml:"price" json:"price"`
	Cost   float64 `yaml:"cost" json:"cost"`
	Date   Date    `yaml:"date" json:"date"`
	Signum Signum  `yaml:"signum" json:"signum"`
}

// Trade validates the record and returns the trade.
func (r TradeRecord) Trade() (Trade, error) {
	return NewTrade(r.Symbol, r.Amount, r.Price, r.Cost, r.Date, r.Signum)
}

// Record returns the serialized form of t.
func (t Trade) Record() TradeRecord {
	return TradeRecord{
		Symbol: t.symbol,
		Amount: t.amount.Float(),
		Price:  t.price.Float(),
		Cost:   t.cost.Float(),
		Date:   t.date,
		Signum: t.signum,
	}
}

// Stock override keys.
const (
	fieldSymbol    = "symbol"
	fieldFeeYearly = "fee_yearly"
	fieldCurrency  = "currency"
	fieldTicker    = "ticker"
)

// ParseOverride reads a stock entry of a configuration.
//
// Only "fee_yearly", "currency" and "ticker" can be overridden, any other key
// fails with ErrUnknownField.
func ParseOverride(entry map[string]any) (string, Override, error) {
	var o Override
	symbol, ok := entry[fieldSymbol].(string)
	if !ok || symbol == "" {
		return "", o, fmt.Errorf("%w: stock entry without a symbol", ErrInvalidArgument)
	}
	for _, key := range sortedKeys(entry) {
		value := entry[key]
		switch key {
		case fieldSymbol:
		case fieldFeeYearly:
			var f float64
			switch v := value.(type) {
			case float64:
				f = v
			case int:
				f = float64(v)
			default:
				return "", o, fmt.Errorf("%w: %s of %s must be a number, got %T", ErrInvalidArgument, key, symbol, value)
			}
			o.FeeYearly = &f
		case fieldCurrency, fieldTicker:
			s, ok := value.(string)
			if !ok || s == "" {
				return "", o, fmt.Errorf("%w: %s of %s must be a non empty string", ErrInvalidArgument, key, symbol)
			}
			if key == fieldCurrency {
				o.Currency = &s
			} else {
				o.Ticker = &s
			}
		default:
			return "", o, fmt.Errorf("%w: %q in stock %s (want %s, %s or %s)", ErrUnknownField, key, symbol, fieldFeeYearly, fieldCurrency, fieldTicker)
		}
	}
	return symbol, o, nil
}

// overrideEntry is the reverse of ParseOverride.
func overrideEntry(symbol string, o Override) map[string]any {
	entry := map[string]any{fieldSymbol: symbol}
	if o.FeeYearly != nil {
		entry[fieldFeeYearly] = *o.FeeYearly
	}
	if o.Currency != nil {
		entry[fieldCurrency] = *o.Currency
	}
	if o.Ticker != nil {
		entry[fieldTicker] = *o.Ticker
	}
	return entry
}

// DecodeConfiguration reads a yaml or json configuration. Unknown top level
// keys are rejected.
func DecodeConfiguration(r io.Reader) (Configuration, error) {
	var cfg Configuration
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("%w: empty configuration", ErrInvalidArgument)
		}
		return cfg, fmt.Errorf("%w: cannot decode configuration: %w", ErrInvalidArgument, err)
	}
	return cfg, nil
}

// ReadConfigurationFile reads the configuration stored in path.
func ReadConfigurationFile(path string) (Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("cannot open configuration: %w", err)
	}
	defer f.Close()
	cfg, err := DecodeConfiguration(f)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// EncodeConfiguration writes cfg as yaml.
func EncodeConfiguration(w io.Writer, cfg Configuration) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("cannot encode configuration: %w", err)
	}
	return enc.Close()
}

// FromConfiguration creates a portfolio from its configuration.
//
// Every invalid trade and stock entry is reported.
func FromConfiguration(cfg Configuration, opts ...Option) (*Portfolio, error) {
	var errs []error
	trades := make([]Trade, 0, len(cfg.Trades))
	for i, r := range cfg.Trades {
		t, err := r.Trade()
		if err != nil {
			errs = append(errs, fmt.Errorf("trade #%d: %w", i, err))
			continue
		}
		trades = append(trades, t)
	}
	overrides := make(map[string]Override)
	for i, entry := range cfg.Stocks {
		symbol, o, err := ParseOverride(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("stock #%d: %w", i, err))
			continue
		}
		overrides[symbol] = overrides[symbol].merge(o)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration %q: %w", cfg.Name, err)
	}

	p, err := NewPortfolio(cfg.Name, cfg.Currency, trades, opts...)
	if err != nil {
		return nil, err
	}
	for _, symbol := range sortedKeys(overrides) {
		if err := p.Override(symbol, overrides[symbol]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Configuration returns the configuration that recreates p.
func (p *Portfolio) Configuration() Configuration {
	cfg := Configuration{Name: p.name, Currency: p.currency}
	for _, t := range p.Trades() {
		cfg.Trades = append(cfg.Trades, t.Record())
	}
	overrides := p.Overrides()
	for _, symbol := range sortedKeys(overrides) {
		cfg.Stocks = append(cfg.Stocks, overrideEntry(symbol, overrides[symbol]))
	}
	return cfg
}
