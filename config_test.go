package depot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
name: pension
currency: EUR
trades:
  - {symbol: EU, amount: 10, price: 800, cost: 1.5, date: 2024-01-02, signum: 1}
  - {symbol: US, amount: 4, price: 200, cost: 0, date: 2024-02-01, signum: buy}
  - {symbol: EU, amount: 2, price: 190, cost: 0.5, date: 2024-03-01, signum: -1}
stocks:
  - symbol: EU
    fee_yearly: 0.001
  - symbol: US
    currency: USD
    ticker: US
`

func TestFromConfiguration(t *testing.T) {
	cfg, err := DecodeConfiguration(strings.NewReader(testConfig))
	require.NoError(t, err)

	p, err := FromConfiguration(cfg, WithSource(testMarket()))
	require.NoError(t, err)
	assert.Equal(t, "pension", p.Name())
	assert.Equal(t, "EUR", p.Currency())
	assert.Len(t, p.Trades(), 3)
	assert.Equal(t, []string{"EU", "US"}, p.Symbols())

	eu, err := p.Position(context.Background(), "EU")
	require.NoError(t, err)
	assert.True(t, eu.Amount().Equal(Q(8)))
	fee, _ := eu.FeeYearly()
	assert.InDelta(t, 0.001, fee, 1e-12)
}

func TestConfigurationJSON(t *testing.T) {
	const js = `{"name": "j", "currency": "USD",
	 "trades": [{"symbol": "US", "amount": 1, "price": 50, "cost": 0, "date": "2024-01-02", "signum": 1}],
	 "stocks": [{"symbol": "US", "fee_yearly": 0}]}`
	cfg, err := DecodeConfiguration(strings.NewReader(js))
	require.NoError(t, err)
	p, err := FromConfiguration(cfg)
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency())
	assert.Len(t, p.Trades(), 1)
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		want error
	}{
		{"unknown stock field", "name: x\ncurrency: EUR\nstocks:\n  - {symbol: EU, expense: 0.1}\n", ErrUnknownField},
		{"stock without symbol", "name: x\ncurrency: EUR\nstocks:\n  - {fee_yearly: 0.1}\n", ErrInvalidArgument},
		{"non numeric fee", "name: x\ncurrency: EUR\nstocks:\n  - {symbol: EU, fee_yearly: high}\n", ErrInvalidArgument},
		{"invalid signum", "name: x\ncurrency: EUR\ntrades:\n  - {symbol: EU, amount: 1, price: 1, cost: 0, date: 2024-01-02, signum: 0}\n", ErrInvalidArgument},
		{"missing signum", "name: x\ncurrency: EUR\ntrades:\n  - {symbol: EU, amount: 1, price: 1, cost: 0, date: 2024-01-02}\n", ErrInvalidArgument},
		{"negative amount", "name: x\ncurrency: EUR\ntrades:\n  - {symbol: EU, amount: -1, price: 1, cost: 0, date: 2024-01-02, signum: 1}\n", ErrInvalidArgument},
		{"no currency", "name: x\n", ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := DecodeConfiguration(strings.NewReader(tt.cfg))
			if err == nil {
				_, err = FromConfiguration(cfg)
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeConfigurationUnknownKey(t *testing.T) {
	_, err := DecodeConfiguration(strings.NewReader("name: x\ncurrency: EUR\nowner: me\n"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = DecodeConfiguration(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConfigurationRoundTrip(t *testing.T) {
	cfg, err := DecodeConfiguration(strings.NewReader(testConfig))
	require.NoError(t, err)
	p, err := FromConfiguration(cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeConfiguration(&buf, p.Configuration()))

	back, err := DecodeConfiguration(&buf)
	require.NoError(t, err, buf.String())
	q, err := FromConfiguration(back)
	require.NoError(t, err)

	assert.Equal(t, p.Name(), q.Name())
	assert.Equal(t, p.Currency(), q.Currency())
	assert.Equal(t, p.TradesOverview(), q.TradesOverview())
	assert.Equal(t, p.Overrides(), q.Overrides())
}
