package forecast

import (
	"sort"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/shopspring/decimal"
)

const (
	// DefaultLookbackDays is the history window used by the estimator.
	DefaultLookbackDays = 30
	minSampleSize       = 5
)

var (
	// DefaultDailyVariable is returned when there is too little history.
	DefaultDailyVariable = decimal.RequireFromString("-100.00")

	recurringTolerance = decimal.RequireFromString("0.01")
	medianWeight       = decimal.RequireFromString("0.4")
	averageWeight      = decimal.RequireFromString("0.6")
)

// EstimatorInput carries everything the variable spending estimate needs.
type EstimatorInput struct {
	History             []models.Transaction
	RecurringAmounts    []decimal.Decimal
	ManualDailyBurnRate *decimal.Decimal
	Today               time.Time
	LookbackDays        int
	// Fallback is returned with fewer than five qualifying transactions.
	// Zero means DefaultDailyVariable.
	Fallback decimal.Decimal
}

// EstimateDailyVariable returns the non-positive estimated daily
// non-recurring spend.
func EstimateDailyVariable(in EstimatorInput) decimal.Decimal {
	if in.ManualDailyBurnRate != nil && in.ManualDailyBurnRate.IsPositive() {
		return in.ManualDailyBurnRate.Neg()
	}

	lookback := in.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	windowEnd := recurrence.Day(in.Today)
	windowStart := windowEnd.AddDate(0, 0, -lookback)

	var sample []decimal.Decimal
	for _, tx := range in.History {
		if tx.Status != "" && tx.Status != models.TransactionStatusCleared {
			continue
		}
		if tx.Kind != "" && tx.Kind != models.TransactionKindExpense {
			continue
		}
		if tx.OccurredAt.Before(windowStart) || !tx.OccurredAt.Before(windowEnd) {
			continue
		}
		amount := tx.Amount.Abs()
		if amount.IsZero() || matchesRecurring(amount, in.RecurringAmounts) {
			continue
		}
		sample = append(sample, amount)
	}

	if len(sample) < minSampleSize {
		fallback := in.Fallback
		if fallback.IsZero() {
			fallback = DefaultDailyVariable
		}
		return fallback.Abs().Neg()
	}

	total := decimal.Sum(sample[0], sample[1:]...)
	average := total.Div(decimal.NewFromInt(int64(lookback)))
	blended := median(sample).Mul(medianWeight).Add(average.Mul(averageWeight))
	return blended.Round(2).Neg()
}

// matchesRecurring is a best-effort de-duplication: an amount within 1% of
// a known recurring amount is assumed to be that rule's payment.
func matchesRecurring(amount decimal.Decimal, recurring []decimal.Decimal) bool {
	for _, r := range recurring {
		r = r.Abs()
		if r.IsZero() {
			continue
		}
		if amount.Sub(r).Abs().LessThanOrEqual(r.Mul(recurringTolerance)) {
			return true
		}
	}
	return false
}

func median(values []decimal.Decimal) decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}
