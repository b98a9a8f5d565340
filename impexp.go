package depot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Trades are imported and exported as jsonl: one trade object per line, with
// the same properties as in the configuration.
//
//	{"symbol":"VWCE.DE","amount":10,"price":1000,"cost":1.5,"date":"2024-01-02","signum":1}
//
// The format stays human readable and is easy to append to.

// ImportTrades reads trades from r. All invalid lines are reported.
func ImportTrades(r io.Reader) ([]Trade, error) {
	var trades []Trade
	var errs []error
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		var rec TradeRecord
		if err := json.Unmarshal([]byte(txt), &rec); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w: not a trade: %w", line, ErrInvalidArgument, err))
			continue
		}
		t, err := rec.Trade()
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("cannot import trades: %w", err)
	}
	return trades, nil
}

// ExportTrades writes trades to w, one per line.
func ExportTrades(w io.Writer, trades []Trade) error {
	enc := json.NewEncoder(w)
	for _, t := range trades {
		if err := enc.Encode(t.Record()); err != nil {
			return fmt.Errorf("cannot export trade %s on %s: %w", t.symbol, t.date, err)
		}
	}
	return nil
}
