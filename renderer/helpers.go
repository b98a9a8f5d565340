package renderer

import (
	"bytes"
	"io"

	"github.com/etnz/depot"
)

// NA is printed in place of a value that could not be computed.
const NA = "N/A"

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

func money(m *depot.Money) string {
	if m == nil {
		return NA
	}
	return m.String()
}

func percent(p *depot.Percent) string {
	if p == nil {
		return NA
	}
	return p.SignedString()
}
