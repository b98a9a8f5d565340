package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/depot"
	md "github.com/nao1215/markdown"
)

var overviewHeader = []string{"Symbol", "Amount", "Cost Basis", "Market Value", "Performance", "Cost", "Running Cost", "Yearly Cost"}

// OverviewMarkdown renders the overview table of a portfolio, with a total
// line and the list of values that could not be computed.
func OverviewMarkdown(o *depot.Overview) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s on %s", o.Name, o.Date))

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
		Header: overviewHeader,
		Rows:   [][]string{},
	}
	for _, r := range o.Rows {
		table.Rows = append(table.Rows, []string{
			r.Symbol,
			r.Amount.String(),
			r.CostBasis.String(),
			money(r.MarketValue),
			percent(r.Performance),
			r.Cost.String(),
			money(r.RunningCost),
			money(r.YearlyCost),
		})
	}
	table.Rows = append(table.Rows, []string{
		"**Total**",
		"",
		o.TotalCostBasis.String(),
		money(o.TotalMarketValue),
		"",
		o.TotalCost.String(),
		money(o.TotalRunningCost),
		money(o.TotalYearlyCost),
	})
	doc.Table(table)

	var missing []string
	for _, r := range o.Rows {
		if r.Err != nil {
			missing = append(missing, fmt.Sprintf("%s: %v", r.Symbol, r.Err))
		}
	}
	if len(missing) > 0 {
		doc.H2("Not Available")
		doc.BulletList(missing...)
	}

	return doc.String()
}
