package depot

import "fmt"

// Percent is a value expressed in percentage points.
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// PerformancePercent converts a performance ratio (1.0 is break-even) into
// percentage points relative to 100 (0% is break-even).
func PerformancePercent(ratio float64) Percent {
	return Percent(ratio*100 - 100)
}
