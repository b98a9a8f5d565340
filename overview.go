package depot

import (
	"context"
	"errors"
)

// OverviewRow is the valuation of one position.
//
// Valuation columns are nil when the value is not available, Err then holds
// the first failure.
type OverviewRow struct {
	Symbol      string   `json:"symbol"`
	Amount      Quantity `json:"amount"`
	CostBasis   Money    `json:"cost_basis"`
	MarketValue *Money   `json:"market_value,omitempty"`
	Performance *Percent `json:"performance,omitempty"` // percentage points, 0 is break-even
	Cost        Money    `json:"cost"`
	RunningCost *Money   `json:"running_cost,omitempty"`
	YearlyCost  *Money   `json:"yearly_cost,omitempty"`
	Err         error    `json:"-"`
	Error       string   `json:"error,omitempty"`
}

// Overview is the valuation of all positions of a portfolio at a given date.
type Overview struct {
	Name     string        `json:"name"`
	Currency string        `json:"currency"`
	Date     Date          `json:"date"`
	Rows     []OverviewRow `json:"rows"`

	TotalCostBasis Money `json:"total_cost_basis"`
	TotalCost      Money `json:"total_cost"`
	// Totals of valuation columns are nil as soon as one row is not available.
	TotalMarketValue *Money `json:"total_market_value,omitempty"`
	TotalRunningCost *Money `json:"total_running_cost,omitempty"`
	TotalYearlyCost  *Money `json:"total_yearly_cost,omitempty"`
}

// Errors returns the joined errors of all rows, or nil.
func (o *Overview) Errors() error {
	var errs []error
	for _, r := range o.Rows {
		errs = append(errs, r.Err)
	}
	return errors.Join(errs...)
}

// Overview values every position as of today.
func (p *Portfolio) Overview(ctx context.Context) (*Overview, error) {
	return p.OverviewAt(ctx, Today())
}

// OverviewAt values every position, running costs are accrued until asOf.
//
// Valuation failures do not fail the overview, they mark the row columns as
// not available.
func (p *Portfolio) OverviewAt(ctx context.Context, asOf Date) (*Overview, error) {
	positions, err := p.Positions(ctx)
	if err != nil {
		return nil, err
	}
	o := &Overview{
		Name:           p.name,
		Currency:       p.currency,
		Date:           asOf,
		TotalCostBasis: M(0, p.currency),
		TotalCost:      M(0, p.currency),
	}
	totalMV, totalRC, totalYC := M(0, p.currency), M(0, p.currency), M(0, p.currency)
	mvOK, rcOK, ycOK := true, true, true

	for _, symbol := range sortedKeys(positions) {
		row := overviewRow(ctx, positions[symbol], asOf)
		o.Rows = append(o.Rows, row)

		o.TotalCostBasis = o.TotalCostBasis.Add(row.CostBasis)
		o.TotalCost = o.TotalCost.Add(row.Cost)
		mvOK = accumulate(&totalMV, row.MarketValue) && mvOK
		rcOK = accumulate(&totalRC, row.RunningCost) && rcOK
		ycOK = accumulate(&totalYC, row.YearlyCost) && ycOK
	}
	if mvOK {
		o.TotalMarketValue = &totalMV
	}
	if rcOK {
		o.TotalRunningCost = &totalRC
	}
	if ycOK {
		o.TotalYearlyCost = &totalYC
	}
	return o, nil
}

func accumulate(total *Money, m *Money) bool {
	if m == nil {
		return false
	}
	*total = total.Add(*m)
	return true
}

func overviewRow(ctx context.Context, pos *Position, asOf Date) OverviewRow {
	row := OverviewRow{
		Symbol:    pos.Symbol(),
		Amount:    pos.Amount(),
		CostBasis: pos.CostBasisTotal(),
		Cost:      pos.Cost(),
	}
	fail := func(err error) {
		if row.Err == nil {
			row.Err = err
			row.Error = err.Error()
		}
	}

	if mv, err := pos.CurrentMarketValue(ctx); err != nil {
		fail(err)
	} else {
		row.MarketValue = &mv
	}
	if ratio, err := pos.Performance(ctx); err != nil {
		fail(err)
	} else {
		perf := PerformancePercent(ratio)
		row.Performance = &perf
	}
	if rc, err := pos.RunningCost(ctx, asOf); err != nil {
		fail(err)
	} else {
		row.RunningCost = &rc
	}
	if yc, err := pos.YearlyCost(ctx); err != nil {
		fail(err)
	} else {
		row.YearlyCost = &yc
	}
	return row
}
