package depot

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// ConversionMode selects which exchange rate values a position.
type ConversionMode int

const (
	// ConversionLatest converts with the most recent rate available, whatever
	// the valuation date.
	ConversionLatest ConversionMode = iota
	// ConversionHistorical converts with the rate of the valuation date. It
	// requires a source implementing HistoricalRates.
	ConversionHistorical
)

func (c ConversionMode) String() string {
	switch c {
	case ConversionLatest:
		return "latest"
	case ConversionHistorical:
		return "historical"
	default:
		return fmt.Sprintf("conversion(%d)", int(c))
	}
}

// ParseConversionMode parses "latest" or "historical".
func ParseConversionMode(s string) (ConversionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest":
		return ConversionLatest, nil
	case "historical":
		return ConversionHistorical, nil
	default:
		return 0, fmt.Errorf("%w: unknown conversion mode %q (use latest|historical)", ErrInvalidArgument, s)
	}
}

// Converter converts amounts from one currency to another using a single
// exchange rate sample taken when it was created.
type Converter struct {
	from, to string
	rate     Quantity // 'to' per 'from'
	inverse  Quantity // 'from' per 'to'
}

// NewConverter queries src once for the latest rate between from and to.
func NewConverter(ctx context.Context, src PriceSource, from, to string) (*Converter, error) {
	if from == to {
		return identity(from), nil
	}
	rate, err := src.ExchangeRate(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: no rate for %s/%s: %w", ErrConversionFailure, from, to, err)
	}
	return newConverter(from, to, rate)
}

// NewConverterOn queries src once for the rate between from and to on a given day.
//
// src must implement HistoricalRates.
func NewConverterOn(ctx context.Context, src PriceSource, from, to string, on Date) (*Converter, error) {
	if from == to {
		return identity(from), nil
	}
	h, ok := src.(HistoricalRates)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no historical rates for %s/%s", ErrConversionFailure, src, from, to)
	}
	rate, err := h.ExchangeRateOn(ctx, from, to, on)
	if err != nil {
		return nil, fmt.Errorf("%w: no rate for %s/%s on %s: %w", ErrConversionFailure, from, to, on, err)
	}
	return newConverter(from, to, rate)
}

func identity(currency string) *Converter {
	return &Converter{from: currency, to: currency, rate: Q(1), inverse: Q(1)}
}

func newConverter(from, to string, rate float64) (*Converter, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return nil, fmt.Errorf("%w: invalid rate %v for %s/%s", ErrConversionFailure, rate, from, to)
	}
	r := Q(rate)
	return &Converter{from: from, to: to, rate: r, inverse: Q(1).Div(r)}, nil
}

// Rate returns the number of target units per source unit.
func (c *Converter) Rate() Quantity { return c.rate }

// Inverse returns the number of source units per target unit.
func (c *Converter) Inverse() Quantity { return c.inverse }

// Convert converts m, expressed in the source currency, into the target currency.
func (c *Converter) Convert(m Money) Money {
	if m.cur != "" && m.cur != c.from {
		panic("cannot convert " + m.cur + " with a " + c.from + "/" + c.to + " converter")
	}
	return Money{value: m.value.Mul(c.rate.value), cur: c.to}
}
