package depot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Override forces reference data of a stock that the price source cannot
// supply, or gets wrong. Nil fields are left to the price source.
type Override struct {
	FeeYearly *float64 // yearly fee as a fraction
	Currency  *string  // native currency
	Ticker    *string  // symbol at the price source
}

// IsZero reports whether o overrides nothing.
func (o Override) IsZero() bool { return o.FeeYearly == nil && o.Currency == nil && o.Ticker == nil }

// merge returns o with the fields set in n replaced.
func (o Override) merge(n Override) Override {
	if n.FeeYearly != nil {
		o.FeeYearly = n.FeeYearly
	}
	if n.Currency != nil {
		o.Currency = n.Currency
	}
	if n.Ticker != nil {
		o.Ticker = n.Ticker
	}
	return o
}

// Option configures a Portfolio.
type Option func(*Portfolio)

// WithSource sets the price source used to value positions.
func WithSource(src PriceSource) Option { return func(p *Portfolio) { p.src = src } }

// WithConversion sets the currency conversion mode of every position.
func WithConversion(mode ConversionMode) Option { return func(p *Portfolio) { p.conversion = mode } }

// Portfolio is a named depot: an ordered list of trades valued in a single
// display currency.
//
// Positions are derived from the trades and cached until the trade list
// changes. It is safe for concurrent use.
type Portfolio struct {
	name       string
	currency   string
	src        PriceSource
	conversion ConversionMode

	mu        sync.Mutex
	trades    []Trade
	overrides map[string]Override
	version   uint64 // incremented on every trade list change
	cache     *positionCache
}

type positionCache struct {
	version   uint64
	positions map[string]*Position
}

// NewPortfolio creates a portfolio. Trades are validated and copied.
func NewPortfolio(name, currency string, trades []Trade, opts ...Option) (*Portfolio, error) {
	if currency == "" {
		return nil, fmt.Errorf("%w: portfolio %q has no currency", ErrInvalidArgument, name)
	}
	p := &Portfolio{
		name:      name,
		currency:  currency,
		overrides: make(map[string]Override),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.SetTrades(trades); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Portfolio) Name() string               { return p.name }
func (p *Portfolio) Currency() string           { return p.currency }
func (p *Portfolio) Source() PriceSource        { return p.src }
func (p *Portfolio) Conversion() ConversionMode { return p.conversion }

// Trades returns a copy of the trade list.
func (p *Portfolio) Trades() []Trade {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.trades)
}

// SetTrades replaces the trade list and invalidates the positions.
func (p *Portfolio) SetTrades(trades []Trade) error {
	var errs []error
	for i, t := range trades {
		if err := t.validate(); err != nil {
			errs = append(errs, fmt.Errorf("trade #%d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades = slices.Clone(trades)
	p.version++
	return nil
}

// Invalidate drops the cached positions, they are rebuilt on next access.
func (p *Portfolio) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version++
}

// Override registers reference data overrides for symbol. They are merged
// with the previous ones and survive trade list changes.
func (p *Portfolio) Override(symbol string, o Override) error {
	if symbol == "" {
		return fmt.Errorf("%w: override without symbol", ErrInvalidArgument)
	}
	if o.FeeYearly != nil && !finite(*o.FeeYearly) {
		return fmt.Errorf("%w: fee_yearly of %s must be a finite number", ErrInvalidArgument, symbol)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[symbol] = p.overrides[symbol].merge(o)
	p.version++
	return nil
}

// Overrides returns a copy of the registered overrides.
func (p *Portfolio) Overrides() map[string]Override {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := make(map[string]Override, len(p.overrides))
	for k, v := range p.overrides {
		m[k] = v
	}
	return m
}

// Symbols returns the sorted distinct symbols of the trades.
func (p *Portfolio) Symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var symbols []string
	for _, t := range p.trades {
		symbols = append(symbols, t.symbol)
	}
	slices.Sort(symbols)
	return slices.Compact(symbols)
}

// Positions returns one position per symbol.
//
// Positions are built on first access: every trade is folded in list order,
// overrides are applied, then the reference data is resolved with the price
// source. Resolution failures do not fail the build, they are kept on the
// position and returned by its valuation methods.
func (p *Portfolio) Positions(ctx context.Context) (map[string]*Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache != nil && p.cache.version == p.version {
		return p.cache.positions, nil
	}

	positions := make(map[string]*Position)
	for _, t := range p.trades {
		pos, ok := positions[t.symbol]
		if !ok {
			pos = NewPosition(t.symbol, p.currency)
			pos.SetConversion(p.conversion)
			positions[t.symbol] = pos
		}
		if err := pos.ApplyTrade(t); err != nil {
			return nil, err
		}
	}
	for symbol, o := range p.overrides {
		pos, ok := positions[symbol]
		if !ok {
			log.Warn().Str("symbol", symbol).Msg("override for a symbol without trades")
			continue
		}
		if err := pos.apply(o); err != nil {
			return nil, err
		}
	}
	if p.src != nil {
		for _, symbol := range sortedKeys(positions) {
			if err := positions[symbol].Resolve(ctx, p.src); err != nil {
				log.Warn().Err(err).Str("symbol", symbol).Msg("reference data unavailable")
			}
		}
	}
	log.Debug().Str("portfolio", p.name).Int("positions", len(positions)).Uint64("version", p.version).Msg("positions built")
	p.cache = &positionCache{version: p.version, positions: positions}
	return positions, nil
}

// Position returns the position of symbol.
func (p *Portfolio) Position(ctx context.Context, symbol string) (*Position, error) {
	positions, err := p.Positions(ctx)
	if err != nil {
		return nil, err
	}
	pos, ok := positions[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no trade for %q in %s", ErrInvalidArgument, symbol, p.name)
	}
	return pos, nil
}

// TradesOverview returns every trade as a flat map, in list order.
func (p *Portfolio) TradesOverview() []map[string]any {
	trades := p.Trades()
	rows := make([]map[string]any, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, t.Map())
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
