package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/depot"
	md "github.com/nao1215/markdown"
)

// PositionMarkdown renders the valuation of one position followed by its
// trade history.
func PositionMarkdown(row depot.OverviewRow, history []depot.HistoryPoint) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(row.Symbol)
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Metric", "Value"},
		Rows: [][]string{
			{"Amount", row.Amount.String()},
			{"Cost Basis", row.CostBasis.String()},
			{"Market Value", money(row.MarketValue)},
			{"Performance", percent(row.Performance)},
			{"Cost", row.Cost.String()},
			{"Running Cost", money(row.RunningCost)},
			{"Yearly Cost", money(row.YearlyCost)},
		},
	})
	if row.Err != nil {
		doc.PlainText(fmt.Sprintf("Some values are not available: %v", row.Err))
	}

	var b strings.Builder
	b.WriteString(doc.String())
	ConditionalBlock(&b, func(w io.Writer) bool {
		if len(history) == 0 {
			return false
		}
		fmt.Fprintf(w, "\n%s", HistoryMarkdown(history))
		return true
	})
	return b.String()
}

// HistoryMarkdown renders the per day history of a position.
func HistoryMarkdown(history []depot.HistoryPoint) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H2("History")
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Amount", "Price", "Cost", "Per Piece", "Total Cost", "Total Amount", "Total Value"},
		Rows:   [][]string{},
	}
	for _, h := range history {
		table.Rows = append(table.Rows, []string{
			h.Date.String(),
			h.Amount.String(),
			h.Price.String(),
			h.Cost.String(),
			h.ValuePerPiece.String(),
			h.TotalCost.String(),
			h.TotalAmount.String(),
			h.TotalValue.String(),
		})
	}
	doc.Table(table)
	return doc.String()
}
