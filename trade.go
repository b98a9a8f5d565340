package depot

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Signum is the direction of a trade relative to the depot.
type Signum int

const (
	Sell Signum = -1
	Buy  Signum = +1
)

// Valid reports whether s is Buy or Sell.
func (s Signum) Valid() bool { return s == Buy || s == Sell }

func (s Signum) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("signum(%d)", int(s))
	}
}

// factor returns the multiplier applied when folding a trade.
func (s Signum) factor() Quantity { return Q(int(s)) }

// ParseSignum parses "buy", "sell", "+1", "1" or "-1".
func ParseSignum(s string) (Signum, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "+1", "1":
		return Buy, nil
	case "sell", "-1":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: signum %q must be buy (+1) or sell (-1)", ErrInvalidArgument, s)
	}
}

// MarshalJSON writes the signum as +1 or -1.
func (s Signum) MarshalJSON() ([]byte, error) { return json.Marshal(int(s)) }

// UnmarshalJSON accepts a number or any string ParseSignum accepts.
func (s *Signum) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	v, err := ParseSignum(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s Signum) MarshalYAML() (any, error) { return int(s), nil }

func (s *Signum) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseSignum(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = v
	return nil
}

// Trade is one buy or sell transaction of a stock.
//
// Amount, price and cost are stored unsigned, the effect of the trade on a
// position comes from its Signum. Price is the total consideration paid for
// the whole amount, not a unit price.
type Trade struct {
	symbol string
	amount Quantity
	price  Money
	cost   Money
	date   Date
	signum Signum
}

// NewTrade creates a trade.
//
// It fails with ErrInvalidArgument if the signum is neither Buy nor Sell,
// if a value is not finite, or if amount or cost is negative.
func NewTrade(symbol string, amount, price, cost float64, on Date, signum Signum) (Trade, error) {
	if !finite(amount, price, cost) {
		return Trade{}, fmt.Errorf("%w: trade %s on %s has non finite values", ErrInvalidArgument, symbol, on)
	}
	t := Trade{
		symbol: symbol,
		amount: Q(amount),
		price:  M(price, ""),
		cost:   M(cost, ""),
		date:   on,
		signum: signum,
	}
	if err := t.validate(); err != nil {
		return Trade{}, err
	}
	return t, nil
}

// validate checks the trade invariants.
func (t Trade) validate() error {
	if t.symbol == "" {
		return fmt.Errorf("%w: trade on %s has no symbol", ErrInvalidArgument, t.date)
	}
	if !t.signum.Valid() {
		return fmt.Errorf("%w: trade %s on %s has %v, want buy (+1) or sell (-1)", ErrInvalidArgument, t.symbol, t.date, t.signum)
	}
	if t.amount.IsNegative() {
		return fmt.Errorf("%w: trade %s on %s has a negative amount %v", ErrInvalidArgument, t.symbol, t.date, t.amount)
	}
	if t.cost.IsNegative() {
		return fmt.Errorf("%w: trade %s on %s has a negative cost %v", ErrInvalidArgument, t.symbol, t.date, t.cost.Float())
	}
	return nil
}

func (t Trade) Symbol() string   { return t.symbol }
func (t Trade) Amount() Quantity { return t.amount }
func (t Trade) Price() Money     { return t.price }
func (t Trade) Cost() Money      { return t.cost }
func (t Trade) Date() Date       { return t.date }
func (t Trade) Signum() Signum   { return t.signum }

// Map returns the trade as a plain key-value map, for export and reporting.
func (t Trade) Map() map[string]any {
	return map[string]any{
		"symbol": t.symbol,
		"date":   t.date,
		"amount": t.amount.Float(),
		"price":  t.price.Float(),
		"cost":   t.cost.Float(),
		"signum": int(t.signum),
	}
}
