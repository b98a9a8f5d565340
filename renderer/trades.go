package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/depot"
	md "github.com/nao1215/markdown"
)

// TradesMarkdown renders trades in the given currency.
func TradesMarkdown(title string, trades []depot.Trade, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	if len(trades) == 0 {
		doc.PlainText("No trades.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Date", "Symbol", "Side", "Amount", "Price", "Cost"},
		Rows:   [][]string{},
	}
	for _, t := range trades {
		table.Rows = append(table.Rows, []string{
			t.Date().String(),
			t.Symbol(),
			t.Signum().String(),
			t.Amount().String(),
			t.Price().In(currency).String(),
			t.Cost().In(currency).String(),
		})
	}
	doc.Table(table)
	doc.PlainText(fmt.Sprintf("%d trades.", len(trades)))
	return doc.String()
}
