package forecast

import (
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/shopspring/decimal"
)

const variableDescription = "Estimated variable spending"

var boundMargin = decimal.RequireFromString("0.15")

// Project walks [today, today+horizon) day by day. Each day receives its
// recurring and scenario events plus one VARIABLE event of dailyVariable.
// Bounds widen by 15% of the day's variable spend on either side.
func Project(start decimal.Decimal, events []Event, dailyVariable decimal.Decimal, today time.Time, horizon int) []DataPoint {
	if dailyVariable.IsPositive() {
		dailyVariable = dailyVariable.Neg()
	}

	byDay := make(map[time.Time][]Event)
	for _, e := range events {
		d := recurrence.Day(e.Date)
		byDay[d] = append(byDay[d], e)
	}

	balance, lower, upper := start, start, start
	first := recurrence.Day(today)
	points := make([]DataPoint, 0, max(horizon, 0))
	for i := 0; i < horizon; i++ {
		d := first.AddDate(0, 0, i)

		dayEvents := append([]Event(nil), byDay[d]...)
		dayEvents = append(dayEvents, Event{
			Date:        d,
			Description: variableDescription,
			Amount:      dailyVariable,
			Kind:        EventVariable,
			Confidence:  confidenceVariable,
		})

		net := decimal.Zero
		variable := decimal.Zero
		for _, e := range dayEvents {
			net = net.Add(e.Amount)
			if e.Kind == EventVariable {
				variable = variable.Add(e.Amount.Abs())
			}
		}
		margin := variable.Mul(boundMargin)

		balance = balance.Add(net)
		lower = lower.Add(net).Sub(margin)
		upper = upper.Add(net).Add(margin)

		points = append(points, DataPoint{
			Date:       d,
			Period:     d.Format(time.DateOnly),
			Balance:    balance,
			LowerBound: lower,
			UpperBound: upper,
			Events:     dayEvents,
		})
	}
	return points
}
