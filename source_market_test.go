package depot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMarketFile = `{"symbol": "EU", "currency": "EUR", "ter": 0.002}
{"symbol": "US", "currency": "USD"}

{"on": "2024-01-03", "EU": 101, "US": 51}
{"on": "2024-01-02", "EU": 100, "US": 50, "USD/EUR": 0.8}
{"on": "2024-06-03", "USD/EUR": 0.9}
`

func TestDecodeMarketFile(t *testing.T) {
	ctx := context.Background()
	m, err := DecodeMarketFile("test", strings.NewReader(testMarketFile))
	require.NoError(t, err)

	q, err := m.LatestPrice(ctx, "EU")
	require.NoError(t, err)
	assert.Equal(t, Quote{Date: NewDate(2024, 1, 3), Open: 101, Currency: "EUR"}, q)

	meta, err := m.Metadata(ctx, "EU")
	require.NoError(t, err)
	require.NotNil(t, meta.AnnualExpenseRatio)
	assert.Equal(t, 0.002, *meta.AnnualExpenseRatio)

	meta, err = m.Metadata(ctx, "US")
	require.NoError(t, err)
	assert.Nil(t, meta.AnnualExpenseRatio)

	rate, err := m.ExchangeRate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.9, rate)

	rate, err = m.ExchangeRateOn(ctx, "USD", "EUR", NewDate(2024, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.8, rate)

	_, err = m.LatestPrice(ctx, "XX")
	assert.ErrorIs(t, err, ErrDataUnavailable)
	_, err = m.Metadata(ctx, "XX")
	assert.ErrorIs(t, err, ErrDataUnavailable)
	_, err = m.ExchangeRate(ctx, "CHF", "EUR")
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestDecodeMarketFileErrors(t *testing.T) {
	for _, txt := range []string{
		`{"EU": 100}`,
		`{"on": "yesterday", "EU": 100}`,
		`{"on": "2024-01-02", "EU": "100"}`,
		`{"symbol": ""}`,
		`not json`,
	} {
		_, err := DecodeMarketFile("test", strings.NewReader(txt))
		assert.Error(t, err, txt)
	}
}
