package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DetectWarnings scans the daily series once and reports the first negative
// balance and the first day inside [0, threshold). A dip that goes negative
// first is reported only as NEGATIVE_BALANCE: the later climb back through
// the threshold band is the same crossing.
func DetectWarnings(points []DataPoint, threshold decimal.Decimal) []Warning {
	var warnings []Warning
	below := false
	for _, p := range points {
		date := p.Date.Format(time.DateOnly)
		switch {
		case p.Balance.IsNegative():
			return append(warnings, Warning{
				Date:    p.Date,
				Kind:    WarningNegativeBalance,
				Message: fmt.Sprintf("Projected balance drops below zero to %s on %s", p.Balance.StringFixed(2), date),
			})
		case !below && p.Balance.LessThan(threshold):
			below = true
			warnings = append(warnings, Warning{
				Date: p.Date,
				Kind: WarningBelowThreshold,
				Message: fmt.Sprintf("Projected balance %s falls below the safety threshold of %s on %s",
					p.Balance.StringFixed(2), threshold.StringFixed(2), date),
			})
		}
	}
	return warnings
}
