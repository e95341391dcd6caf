package forecast

import "github.com/shopspring/decimal"

// Summarize totals the deterministic events and the predicted variable
// spend over the horizon. Scenario and variable events in the input are
// ignored.
func Summarize(events []Event, dailyVariable decimal.Decimal, horizon int, start decimal.Decimal, points []DataPoint) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for _, e := range events {
		if e.Kind != EventRecurring {
			continue
		}
		if e.Amount.IsPositive() {
			income = income.Add(e.Amount)
		} else {
			expense = expense.Add(e.Amount)
		}
	}
	expense = expense.Abs()
	variable := dailyVariable.Abs().Mul(decimal.NewFromInt(int64(horizon)))

	end := start
	if len(points) > 0 {
		end = points[len(points)-1].Balance
	}

	return Summary{
		StartBalance:             start,
		EndBalance:               end,
		TotalRecurringIncome:     income,
		TotalRecurringExpense:    expense,
		PredictedVariableExpense: variable,
		NetChange:                income.Sub(expense).Sub(variable),
	}
}
