package depot

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrade(t *testing.T) {
	on := NewDate(2024, 1, 2)
	tests := []struct {
		name    string
		symbol  string
		amount  float64
		price   float64
		cost    float64
		signum  Signum
		wantErr bool
	}{
		{"buy", "VWCE", 10, 1000, 1.5, Buy, false},
		{"sell", "VWCE", 10, 1100, 1.5, Sell, false},
		{"zero amount", "VWCE", 0, 0, 0, Buy, false},
		{"no symbol", "", 10, 1000, 0, Buy, true},
		{"zero signum", "VWCE", 10, 1000, 0, 0, true},
		{"signum 2", "VWCE", 10, 1000, 0, 2, true},
		{"negative amount", "VWCE", -10, 1000, 0, Buy, true},
		{"negative cost", "VWCE", 10, 1000, -1, Buy, true},
		{"NaN price", "VWCE", 10, math.NaN(), 0, Buy, true},
		{"Inf amount", "VWCE", math.Inf(1), 1000, 0, Buy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTrade(tt.symbol, tt.amount, tt.price, tt.cost, on, tt.signum)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Equal(t, Trade{}, tr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, tr.Symbol())
			assert.Equal(t, tt.amount, tr.Amount().Float())
			assert.Equal(t, tt.price, tr.Price().Float())
			assert.Equal(t, tt.cost, tr.Cost().Float())
			assert.Equal(t, on, tr.Date())
			assert.Equal(t, tt.signum, tr.Signum())
		})
	}
}

func TestParseSignum(t *testing.T) {
	for _, s := range []string{"buy", "Buy", "+1", "1"} {
		got, err := ParseSignum(s)
		require.NoError(t, err, s)
		assert.Equal(t, Buy, got, s)
	}
	for _, s := range []string{"sell", "SELL", "-1"} {
		got, err := ParseSignum(s)
		require.NoError(t, err, s)
		assert.Equal(t, Sell, got, s)
	}
	for _, s := range []string{"", "0", "2", "hold"} {
		_, err := ParseSignum(s)
		assert.ErrorIs(t, err, ErrInvalidArgument, s)
	}
}

func TestSignumJSON(t *testing.T) {
	data, err := json.Marshal([]Signum{Buy, Sell})
	require.NoError(t, err)
	assert.Equal(t, "[1,-1]", string(data))

	var got []Signum
	require.NoError(t, json.Unmarshal([]byte(`[1, -1, "buy", "sell"]`), &got))
	assert.Equal(t, []Signum{Buy, Sell, Buy, Sell}, got)

	assert.Error(t, json.Unmarshal([]byte(`[0]`), &got))
}

func TestTradeMap(t *testing.T) {
	tr := sell(t, "VWCE", 2, 210, 1, "2024-03-01")
	assert.Equal(t, map[string]any{
		"symbol": "VWCE",
		"date":   NewDate(2024, 3, 1),
		"amount": 2.0,
		"price":  210.0,
		"cost":   1.0,
		"signum": -1,
	}, tr.Map())
}
