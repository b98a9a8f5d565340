package depot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionFold(t *testing.T) {
	p := NewPosition("EU", "EUR")
	require.NoError(t, p.ApplyTrade(buy(t, "EU", 10, 1000, 2, "2024-01-02")))
	require.NoError(t, p.ApplyTrade(sell(t, "EU", 4, 500, 1, "2024-02-01")))

	assert.True(t, p.Amount().Equal(Q(6)), "amount = %v", p.Amount())
	assertMoney(t, 500, "EUR", p.CostBasisTotal())
	assertMoney(t, 1, "EUR", p.Cost())
	assert.Len(t, p.Trades(), 2)
}

func TestPositionFoldOrderIndependent(t *testing.T) {
	trades := []Trade{
		buy(t, "EU", 0.1, 10.1, 0.3, "2024-01-02"),
		buy(t, "EU", 0.2, 20.2, 0.1, "2024-01-03"),
		sell(t, "EU", 0.3, 35.5, 0.2, "2024-01-04"),
		buy(t, "EU", 1.7, 170.3, 0.7, "2024-01-05"),
	}
	forward, backward := NewPosition("EU", "EUR"), NewPosition("EU", "EUR")
	for i := range trades {
		require.NoError(t, forward.ApplyTrade(trades[i]))
		require.NoError(t, backward.ApplyTrade(trades[len(trades)-1-i]))
	}
	assert.True(t, forward.Amount().Equal(backward.Amount()))
	assert.True(t, forward.CostBasisTotal().Equal(backward.CostBasisTotal()))
	assert.True(t, forward.Cost().Equal(backward.Cost()))
	// exact decimal arithmetic
	assert.True(t, forward.Amount().Equal(Q(1.7)), "amount = %v", forward.Amount())
}

func TestPositionSymbolMismatch(t *testing.T) {
	p := NewPosition("EU", "EUR")
	err := p.ApplyTrade(buy(t, "US", 1, 1, 0, "2024-01-02"))
	assert.ErrorIs(t, err, ErrSymbolMismatch)
	assert.True(t, p.Amount().IsZero())
	assert.Empty(t, p.Trades())
}

func TestPositionFromTrade(t *testing.T) {
	p, err := PositionFromTrade(buy(t, "EU", 3, 300, 1, "2024-01-02"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, "EU", p.Symbol())
	assert.True(t, p.Amount().Equal(Q(3)))

	p, err = PositionFromTrade(sell(t, "EU", 3, 300, 1, "2024-01-02"), "EUR")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Nil(t, p)
}

func TestPositionResolve(t *testing.T) {
	ctx := context.Background()
	market := testMarket()

	eu := NewPosition("EU", "EUR")
	require.NoError(t, eu.Resolve(ctx, market))
	assert.Equal(t, "EUR", eu.NativeCurrency())
	fee, ok := eu.FeeYearly()
	assert.True(t, ok)
	assert.InDelta(t, 0.002, fee, 1e-12)

	// no published fee defaults to 0
	us := NewPosition("US", "EUR")
	require.NoError(t, us.Resolve(ctx, market))
	assert.Equal(t, "USD", us.NativeCurrency())
	fee, ok = us.FeeYearly()
	assert.True(t, ok)
	assert.Zero(t, fee)

	// explicit values are never overwritten
	forced := NewPosition("EU", "EUR")
	require.NoError(t, forced.SetFeeYearly(0.01))
	require.NoError(t, forced.Resolve(ctx, market))
	fee, _ = forced.FeeYearly()
	assert.InDelta(t, 0.01, fee, 1e-12)
}

func TestPositionResolveQueriesOnce(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{PriceSource: testMarket()}
	p := NewPosition("EU", "EUR")
	require.NoError(t, p.ApplyTrade(buy(t, "EU", 10, 1000, 0, "2024-01-02")))
	require.NoError(t, p.Resolve(ctx, src))
	require.NoError(t, p.Resolve(ctx, src))
	_, err := p.YearlyCost(ctx)
	require.NoError(t, err)
	_, err = p.RunningCost(ctx, Today())
	require.NoError(t, err)
	assert.Equal(t, 1, src.metadata)
}

func TestPositionUnresolved(t *testing.T) {
	ctx := context.Background()
	p := NewPosition("XX", "EUR")
	require.NoError(t, p.ApplyTrade(buy(t, "XX", 1, 10, 0, "2024-01-02")))

	_, err := p.CurrentValue(ctx)
	assert.ErrorIs(t, err, ErrDataUnavailable, "without source")

	err = p.Resolve(ctx, testMarket())
	assert.ErrorIs(t, err, ErrDataUnavailable)
	_, err = p.CurrentMarketValue(ctx)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	_, err = p.YearlyCost(ctx)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestPositionValuation(t *testing.T) {
	ctx := context.Background()
	market := testMarket()

	tests := []struct {
		name     string
		symbol   string
		override Override
		amount   float64
		price    float64
		value    float64 // of one unit in EUR
		perf     float64
	}{
		{name: "native", symbol: "EU", amount: 10, price: 800, value: 100, perf: 1.25},
		{name: "converted", symbol: "US", amount: 10, price: 900, value: 45, perf: 0.5},
		{name: "forced currency", symbol: "EU", override: Override{Currency: ptr("USD")}, amount: 2, price: 180, value: 90, perf: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPosition(tt.symbol, "EUR")
			require.NoError(t, p.ApplyTrade(buy(t, tt.symbol, tt.amount, tt.price, 0, "2024-01-02")))
			require.NoError(t, p.apply(tt.override))
			require.NoError(t, p.Resolve(ctx, market))

			value, err := p.CurrentValue(ctx)
			require.NoError(t, err)
			assertMoney(t, tt.value, "EUR", value)

			mv, err := p.CurrentMarketValue(ctx)
			require.NoError(t, err)
			assertMoney(t, tt.value*tt.amount, "EUR", mv)

			perf, err := p.Performance(ctx)
			require.NoError(t, err)
			assert.InDelta(t, tt.perf, perf, 1e-9)
		})
	}
}

func TestPositionPerformanceZeroCostBasis(t *testing.T) {
	ctx := context.Background()
	p := NewPosition("EU", "EUR")
	require.NoError(t, p.ApplyTrade(buy(t, "EU", 10, 1000, 0, "2024-01-02")))
	require.NoError(t, p.ApplyTrade(sell(t, "EU", 10, 1000, 0, "2024-02-02")))
	require.NoError(t, p.Resolve(ctx, testMarket()))

	_, err := p.Performance(ctx)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPositionRunningCost(t *testing.T) {
	ctx := context.Background()
	d := NewDate(2024, 1, 2)

	tests := []struct {
		name   string
		trades []Trade
		asOf   Date
		want   float64
	}{
		{
			name:   "one year",
			trades: []Trade{buy(t, "EU", 10, 1000, 0, d.String())},
			asOf:   d.Add(365),
			want:   2, // 10 units * 0.2% * 100 EUR
		},
		{
			name:   "trade day",
			trades: []Trade{buy(t, "EU", 10, 1000, 0, d.String())},
			asOf:   d,
			want:   0,
		},
		{
			name:   "before the trade",
			trades: []Trade{buy(t, "EU", 10, 1000, 0, d.String())},
			asOf:   d.Add(-365),
			want:   -2,
		},
		{
			name: "partial sell",
			trades: []Trade{
				buy(t, "EU", 10, 1000, 0, d.String()),
				sell(t, "EU", 4, 400, 0, d.Add(100).String()),
			},
			asOf: d.Add(365),
			want: (10*365 - 4*265) / 365.0 * 0.002 * 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPosition("EU", "EUR")
			for _, tr := range tt.trades {
				require.NoError(t, p.ApplyTrade(tr))
			}
			require.NoError(t, p.Resolve(ctx, testMarket()))
			rc, err := p.RunningCost(ctx, tt.asOf)
			require.NoError(t, err)
			assertMoney(t, tt.want, "EUR", rc)
		})
	}
}

func TestPositionYearlyCost(t *testing.T) {
	ctx := context.Background()
	p := NewPosition("EU", "EUR")
	require.NoError(t, p.ApplyTrade(buy(t, "EU", 10, 1000, 0, "2024-01-02")))
	require.NoError(t, p.Resolve(ctx, testMarket()))

	yc, err := p.YearlyCost(ctx)
	require.NoError(t, err)
	assertMoney(t, 2, "EUR", yc)

	require.NoError(t, p.SetFeeYearly(0.01))
	yc, err = p.YearlyCost(ctx)
	require.NoError(t, err)
	assertMoney(t, 10, "EUR", yc)
}

func TestPositionHistoricalConversion(t *testing.T) {
	ctx := context.Background()

	p := NewPosition("US", "EUR")
	p.SetConversion(ConversionHistorical)
	require.NoError(t, p.ApplyTrade(buy(t, "US", 10, 400, 0, "2024-01-02")))
	require.NoError(t, p.SetFeeYearly(0.01))
	require.NoError(t, p.Resolve(ctx, testMarket()))

	// the running cost is valued with the rate of its date: 0.8 until june.
	rc, err := p.RunningCost(ctx, NewDate(2024, 3, 1))
	require.NoError(t, err)
	assertMoney(t, 10*59/365.0*0.01*50*0.8, "EUR", rc)

	value, err := p.CurrentValue(ctx)
	require.NoError(t, err)
	assertMoney(t, 45, "EUR", value)

	// a source without historical rates cannot convert.
	q := NewPosition("US", "EUR")
	q.SetConversion(ConversionHistorical)
	require.NoError(t, q.ApplyTrade(buy(t, "US", 10, 400, 0, "2024-01-02")))
	require.NoError(t, q.Resolve(ctx, &countingSource{PriceSource: testMarket()}))
	_, err = q.CurrentValue(ctx)
	assert.ErrorIs(t, err, ErrConversionFailure)
}

func TestPositionHistory(t *testing.T) {
	p := NewPosition("EU", "EUR")
	require.NoError(t, p.ApplyTrade(sell(t, "EU", 3, 450, 1, "2024-02-01")))
	require.NoError(t, p.ApplyTrade(buy(t, "EU", 10, 1000, 2, "2024-01-02")))
	require.NoError(t, p.ApplyTrade(buy(t, "EU", 5, 600, 1, "2024-01-02")))

	h := p.History()
	require.Len(t, h, 2)

	assert.Equal(t, NewDate(2024, 1, 2), h[0].Date)
	assert.True(t, h[0].Amount.Equal(Q(15)))
	assertMoney(t, 1600, "EUR", h[0].Price)
	assertMoney(t, 3, "EUR", h[0].Cost)
	assertMoney(t, 1600/15.0, "EUR", h[0].ValuePerPiece)
	assertMoney(t, 1603, "EUR", h[0].TotalCost)
	assert.True(t, h[0].TotalAmount.Equal(Q(15)))
	assertMoney(t, 1600, "EUR", h[0].TotalValue)

	assert.Equal(t, NewDate(2024, 2, 1), h[1].Date)
	assert.True(t, h[1].Amount.Equal(Q(-3)))
	assertMoney(t, 150, "EUR", h[1].ValuePerPiece)
	assertMoney(t, 1152, "EUR", h[1].TotalCost)
	assert.True(t, h[1].TotalAmount.Equal(Q(12)))
	assertMoney(t, 1800, "EUR", h[1].TotalValue)
}
