// Package ebase reads the transaction exports of the ebase depot bank.
//
// Exports are ISO-8859-1 encoded csv files, with ';' separated fields and
// german decimal commas. Stocks are identified by ISIN, a mapping to the
// symbols used by the price source can be given.
package ebase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/etnz/depot"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// Column names of an export.
const (
	ColISIN       = "ISIN"
	ColType       = "Umsatzart"
	ColDate       = "Buchungsdatum"
	ColPayment    = "Zahlungsbetrag in ZW"
	ColShares     = "Anteile"
	ColCommission = "Vertriebsprovision in ZW (im Abrechnungskurs enthalten)"
	ColTaxes      = "Steuern in EUR"
)

// Kinds of transaction, in the Umsatzart column, that are trades.
var (
	buyTypes  = []string{"Kauf", "Sparplan", "Wiederanlage"}
	sellTypes = []string{"Verkauf", "Entnahmeplan"}
)

// Options of a reader.
type Options struct {
	// Symbols maps ISINs to depot symbols. Unmapped ISINs are kept as is.
	Symbols map[string]string
}

func (o Options) symbol(isin string) string {
	if s, ok := o.Symbols[isin]; ok {
		return s
	}
	return isin
}

// row is a parsed line of an export.
type row struct {
	line       int
	isin       string
	kind       string
	date       string
	payment    decimal.Decimal
	shares     decimal.Decimal
	commission decimal.Decimal
	taxes      decimal.Decimal
}

// readRows decodes an export. Columns are looked up by name.
func readRows(r io.Reader, required ...string) ([]row, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read ebase header: %w", err)
	}
	index := make(map[string]int)
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: ebase export has no column %q", depot.ErrInvalidArgument, col)
		}
	}
	field := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []row
	var errs []error
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("cannot read ebase line %d: %w", line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		rw := row{line: line, isin: field(record, ColISIN), kind: field(record, ColType), date: field(record, ColDate)}
		for col, dst := range map[string]*decimal.Decimal{
			ColPayment:    &rw.payment,
			ColShares:     &rw.shares,
			ColCommission: &rw.commission,
			ColTaxes:      &rw.taxes,
		} {
			if *dst, err = parseNumber(field(record, col)); err != nil {
				errs = append(errs, fmt.Errorf("line %d column %q: %w", line, col, err))
			}
		}
		rows = append(rows, rw)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", depot.ErrInvalidArgument, err)
	}
	return rows, nil
}

// parseNumber parses a german number like "-1.234,56". Empty is zero.
func parseNumber(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// ReadTrades reads one trade per buy or sell line of an export. Other lines,
// like fees or distributions, are skipped.
func ReadTrades(r io.Reader, opts Options) ([]depot.Trade, error) {
	rows, err := readRows(r, ColISIN, ColType, ColDate, ColPayment, ColShares)
	if err != nil {
		return nil, err
	}
	var trades []depot.Trade
	var errs []error
	for _, rw := range rows {
		var signum depot.Signum
		switch {
		case slices.Contains(buyTypes, rw.kind):
			signum = depot.Buy
		case slices.Contains(sellTypes, rw.kind):
			signum = depot.Sell
		default:
			log.Info().Int("line", rw.line).Str("type", rw.kind).Str("isin", rw.isin).Msg("skipping ebase line that is not a trade")
			continue
		}
		on, err := depot.ParseDate(rw.date)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", rw.line, err))
			continue
		}
		commission := rw.commission.Abs()
		price := rw.payment.Abs().Sub(commission)
		cost := commission.Add(rw.taxes.Abs())
		t, err := depot.NewTrade(opts.symbol(rw.isin), rw.shares.Abs().InexactFloat64(), price.InexactFloat64(), cost.InexactFloat64(), on, signum)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", rw.line, err))
			continue
		}
		trades = append(trades, t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return trades, nil
}

// ReadAverageTrades sums all lines of an export per ISIN into a single buy
// dated 'on'.
//
// The price is the payment without the sales commission, the cost is the
// commission plus taxes.
func ReadAverageTrades(r io.Reader, on depot.Date, opts Options) ([]depot.Trade, error) {
	rows, err := readRows(r, ColISIN, ColPayment, ColShares, ColCommission, ColTaxes)
	if err != nil {
		return nil, err
	}
	type sum struct{ payment, shares, commission, taxes decimal.Decimal }
	sums := make(map[string]*sum)
	for _, rw := range rows {
		s, ok := sums[rw.isin]
		if !ok {
			s = new(sum)
			sums[rw.isin] = s
		}
		s.payment = s.payment.Add(rw.payment)
		s.shares = s.shares.Add(rw.shares)
		s.commission = s.commission.Add(rw.commission)
		s.taxes = s.taxes.Add(rw.taxes)
	}

	isins := make([]string, 0, len(sums))
	for isin := range sums {
		isins = append(isins, isin)
	}
	slices.Sort(isins)

	trades := make([]depot.Trade, 0, len(isins))
	var errs []error
	for _, isin := range isins {
		s := sums[isin]
		t, err := depot.NewTrade(opts.symbol(isin),
			s.shares.InexactFloat64(),
			s.payment.Sub(s.commission).InexactFloat64(),
			s.commission.Add(s.taxes).InexactFloat64(),
			on, depot.Buy)
		if err != nil {
			errs = append(errs, fmt.Errorf("ISIN %s: %w", isin, err))
			continue
		}
		trades = append(trades, t)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return trades, nil
}
