package depot

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/rs/zerolog/log"
)

// daysPerYear is the flat day count used to prorate yearly fees. Leap years
// are deliberately ignored.
const daysPerYear = 365

// Position is the running state of one stock in a depot, built by folding
// its trades in order.
//
// Amount, CostBasisTotal and Cost are signed sums over the trades applied so
// far. Valuation methods query the price source the position was resolved
// with.
type Position struct {
	symbol   string
	currency string // display currency

	amount         Quantity
	costBasisTotal Money
	cost           Money
	trades         []Trade

	// reference data
	ticker       string // symbol at the price source
	native       string // native currency of the stock
	nativeForced bool   // native was overridden, quotes do not change it
	feeYearly    Quantity
	feeResolved  bool
	src          PriceSource
	conversion   ConversionMode
	referenceErr error
}

// NewPosition returns an empty position for symbol, valued in currency.
func NewPosition(symbol, currency string) *Position {
	return &Position{
		symbol:         symbol,
		currency:       currency,
		ticker:         symbol,
		costBasisTotal: M(0, currency),
		cost:           M(0, currency),
	}
}

// PositionFromTrade creates a position from its first trade.
//
// A position cannot originate from a sell, this fails with ErrInvalidArgument.
func PositionFromTrade(t Trade, currency string) (*Position, error) {
	if t.signum != Buy {
		return nil, fmt.Errorf("%w: cannot create position %s from a %v", ErrInvalidArgument, t.symbol, t.signum)
	}
	p := NewPosition(t.symbol, currency)
	if err := p.ApplyTrade(t); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyTrade folds t into the position.
func (p *Position) ApplyTrade(t Trade) error {
	if t.symbol != p.symbol {
		return fmt.Errorf("%w: cannot apply a %s trade to position %s", ErrSymbolMismatch, t.symbol, p.symbol)
	}
	sign := t.signum.factor()
	p.amount = p.amount.Add(t.amount.Mul(sign))
	p.costBasisTotal = p.costBasisTotal.Add(t.price.Mul(sign))
	p.cost = p.cost.Add(t.cost.Mul(sign))
	p.trades = append(p.trades, t)
	return nil
}

func (p *Position) Symbol() string             { return p.symbol }
func (p *Position) Currency() string           { return p.currency }
func (p *Position) Ticker() string             { return p.ticker }
func (p *Position) NativeCurrency() string     { return p.native }
func (p *Position) Amount() Quantity           { return p.amount }
func (p *Position) CostBasisTotal() Money      { return p.costBasisTotal }
func (p *Position) Cost() Money                { return p.cost }
func (p *Position) Trades() []Trade            { return slices.Clone(p.trades) }
func (p *Position) Conversion() ConversionMode { return p.conversion }

// FeeYearly returns the yearly fee as a fraction, and whether it is known.
func (p *Position) FeeYearly() (float64, bool) { return p.feeYearly.Float(), p.feeResolved }

// SetFeeYearly forces the yearly fee, expressed as a fraction.
func (p *Position) SetFeeYearly(fee float64) error {
	if !finite(fee) {
		return fmt.Errorf("%w: yearly fee of %s must be a finite number", ErrInvalidArgument, p.symbol)
	}
	p.feeYearly = Q(fee)
	p.feeResolved = true
	return nil
}

// SetConversion selects how amounts in the native currency are converted.
func (p *Position) SetConversion(mode ConversionMode) { p.conversion = mode }

// apply sets the reference data fields given in o.
func (p *Position) apply(o Override) error {
	if o.FeeYearly != nil {
		if err := p.SetFeeYearly(*o.FeeYearly); err != nil {
			return err
		}
	}
	if o.Currency != nil {
		p.native = *o.Currency
		p.nativeForced = true
	}
	if o.Ticker != nil {
		p.ticker = *o.Ticker
	}
	return nil
}

// Resolve attaches the price source to the position and fills the reference
// data that was not explicitly set.
//
// The yearly fee defaults to the published annual expense ratio, or 0 when
// the source has none. Resolve queries src at most once.
func (p *Position) Resolve(ctx context.Context, src PriceSource) error {
	p.src = src
	p.referenceErr = nil
	if p.feeResolved && p.native != "" {
		return nil
	}
	meta, err := src.Metadata(ctx, p.ticker)
	if err != nil {
		p.referenceErr = fmt.Errorf("cannot resolve reference data of %s: %w", p.symbol, err)
		return p.referenceErr
	}
	if p.native == "" {
		p.native = meta.Currency
	}
	if !p.feeResolved {
		fee := 0.0
		if r := meta.AnnualExpenseRatio; r != nil && finite(*r) {
			fee = *r
		} else {
			log.Debug().Str("symbol", p.symbol).Msg("no annual expense ratio published, yearly fee defaults to 0")
		}
		p.feeYearly = Q(fee)
		p.feeResolved = true
	}
	return nil
}

// ready checks that the position can be valued.
func (p *Position) ready() error {
	if p.referenceErr != nil {
		return p.referenceErr
	}
	if p.src == nil {
		return fmt.Errorf("%w: position %s has no price source", ErrDataUnavailable, p.symbol)
	}
	return nil
}

// unitValue returns the value of one unit, in the display currency. 'on' is
// the valuation date, used only to select the historical exchange rate.
func (p *Position) unitValue(ctx context.Context, on Date) (Money, error) {
	if err := p.ready(); err != nil {
		return Money{}, err
	}
	q, err := p.src.LatestPrice(ctx, p.ticker)
	if err != nil {
		return Money{}, fmt.Errorf("cannot get the price of %s: %w", p.symbol, err)
	}
	if math.IsNaN(q.Open) || math.IsInf(q.Open, 0) {
		return Money{}, fmt.Errorf("%w: invalid price %v for %s", ErrDataUnavailable, q.Open, p.symbol)
	}
	native := p.native
	if !p.nativeForced && q.Currency != "" {
		native = q.Currency
	}
	if native == "" {
		return Money{}, fmt.Errorf("%w: unknown currency for %s", ErrDataUnavailable, p.symbol)
	}
	value := M(q.Open, native)
	if native == p.currency {
		return value, nil
	}

	var conv *Converter
	switch p.conversion {
	case ConversionHistorical:
		conv, err = NewConverterOn(ctx, p.src, native, p.currency, on)
	default:
		conv, err = NewConverter(ctx, p.src, native, p.currency)
	}
	if err != nil {
		return Money{}, fmt.Errorf("cannot value %s in %s: %w", p.symbol, p.currency, err)
	}
	log.Debug().Str("symbol", p.symbol).Str("from", native).Str("to", p.currency).
		Stringer("rate", conv.Rate()).Msg("converted unit value")
	return conv.Convert(value), nil
}

// CurrentValue returns the latest value of one unit in the display currency.
func (p *Position) CurrentValue(ctx context.Context) (Money, error) {
	return p.unitValue(ctx, Today())
}

// CurrentMarketValue returns the mark-to-market value of the whole position.
func (p *Position) CurrentMarketValue(ctx context.Context) (Money, error) {
	value, err := p.CurrentValue(ctx)
	if err != nil {
		return Money{}, err
	}
	return value.Mul(p.amount), nil
}

// Performance returns the ratio of the current market value to the total
// cost basis. 1 is break-even.
func (p *Position) Performance(ctx context.Context) (float64, error) {
	if p.costBasisTotal.IsZero() {
		return 0, fmt.Errorf("%w: position %s has no cost basis", ErrInvalidArgument, p.symbol)
	}
	mv, err := p.CurrentMarketValue(ctx)
	if err != nil {
		return 0, err
	}
	return mv.Ratio(p.costBasisTotal).Float(), nil
}

// RunningCost returns the fees accrued from each trade date until asOf.
//
// Each trade contributes signum*amount*days/365*fee units, the sum is valued
// at the current unit value. Trades after asOf contribute negatively.
func (p *Position) RunningCost(ctx context.Context, asOf Date) (Money, error) {
	if err := p.ready(); err != nil {
		return Money{}, err
	}
	fee, err := p.fee()
	if err != nil {
		return Money{}, err
	}
	units := Q(0)
	for _, t := range p.trades {
		days := Q(asOf.DaysSince(t.date))
		units = units.Add(t.signum.factor().Mul(t.amount).Mul(days).Mul(fee).Div(Q(daysPerYear)))
	}
	value, err := p.unitValue(ctx, asOf)
	if err != nil {
		return Money{}, err
	}
	return value.Mul(units), nil
}

// YearlyCost returns the fee currently charged over a year for the position.
func (p *Position) YearlyCost(ctx context.Context) (Money, error) {
	fee, err := p.fee()
	if err != nil {
		return Money{}, err
	}
	mv, err := p.CurrentMarketValue(ctx)
	if err != nil {
		return Money{}, err
	}
	return mv.Mul(fee), nil
}

func (p *Position) fee() (Quantity, error) {
	if !p.feeResolved {
		if p.referenceErr != nil {
			return Quantity{}, p.referenceErr
		}
		return Quantity{}, fmt.Errorf("%w: yearly fee of %s is not resolved", ErrDataUnavailable, p.symbol)
	}
	return p.feeYearly, nil
}

// HistoryPoint is the state of a position after all trades of a day.
type HistoryPoint struct {
	Date          Date
	Amount        Quantity // signed units traded that day
	Price         Money    // signed consideration paid that day
	Cost          Money    // signed fees paid that day
	ValuePerPiece Money    // price paid per unit that day
	TotalCost     Money    // cumulative fees and consideration
	TotalAmount   Quantity // cumulative units held
	TotalValue    Money    // TotalAmount valued at ValuePerPiece
}

// History returns the position state per trade day, in chronological order.
func (p *Position) History() []HistoryPoint {
	trades := slices.Clone(p.trades)
	slices.SortStableFunc(trades, func(a, b Trade) int { return a.date.DaysSince(b.date) })

	var points []HistoryPoint
	totalCost := M(0, p.currency)
	totalAmount := Q(0)
	for _, t := range trades {
		sign := t.signum.factor()
		last := len(points) - 1
		if last < 0 || points[last].Date != t.date {
			points = append(points, HistoryPoint{Date: t.date, Price: M(0, p.currency), Cost: M(0, p.currency)})
			last++
		}
		pt := &points[last]
		pt.Amount = pt.Amount.Add(t.amount.Mul(sign))
		pt.Price = pt.Price.Add(t.price.Mul(sign))
		pt.Cost = pt.Cost.Add(t.cost.Mul(sign))
		totalCost = totalCost.Add(t.price.Mul(sign)).Add(t.cost.Mul(sign))
		totalAmount = totalAmount.Add(t.amount.Mul(sign))
		pt.TotalCost = totalCost
		pt.TotalAmount = totalAmount
	}
	for i := range points {
		pt := &points[i]
		pt.ValuePerPiece = M(0, p.currency)
		if !pt.Amount.IsZero() {
			pt.ValuePerPiece = pt.Price.Mul(Q(1).Div(pt.Amount))
		}
		pt.TotalValue = pt.ValuePerPiece.Mul(pt.TotalAmount)
	}
	return points
}
