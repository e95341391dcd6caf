package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the boundary representation of a Result. Every decimal is a
// string so no precision is lost in transit.
type Report struct {
	ForecastPeriod PeriodReport      `json:"forecast_period"`
	CurrentBalance string            `json:"current_balance"`
	Granularity    string            `json:"granularity"`
	DailyVariable  string            `json:"daily_variable"`
	DataPoints     []DataPointReport `json:"data_points"`
	Warnings       []WarningReport   `json:"warnings"`
	Summary        SummaryReport     `json:"summary"`
}

type PeriodReport struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

type DataPointReport struct {
	Date       string        `json:"date"`
	Period     string        `json:"period"`
	Balance    string        `json:"balance"`
	LowerBound string        `json:"lower_bound"`
	UpperBound string        `json:"upper_bound"`
	Events     []EventReport `json:"events"`
}

type EventReport struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
}

type WarningReport struct {
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type SummaryReport struct {
	StartBalance             string `json:"start_balance"`
	EndBalance               string `json:"end_balance"`
	TotalRecurringIncome     string `json:"total_recurring_income"`
	TotalRecurringExpense    string `json:"total_recurring_expense"`
	PredictedVariableExpense string `json:"predicted_variable_expense"`
	NetChange                string `json:"net_change"`
}

// NewReport renders a result for the API boundary.
func NewReport(r Result) Report {
	report := Report{
		ForecastPeriod: PeriodReport{
			Start: r.Period.Start.Format(time.DateOnly),
			End:   r.Period.End.Format(time.DateOnly),
			Days:  r.Period.Days,
		},
		CurrentBalance: formatAmount(r.CurrentBalance),
		Granularity:    string(r.Granularity),
		DailyVariable:  formatAmount(r.DailyVariable),
		DataPoints:     make([]DataPointReport, 0, len(r.DataPoints)),
		Warnings:       make([]WarningReport, 0, len(r.Warnings)),
		Summary: SummaryReport{
			StartBalance:             formatAmount(r.Summary.StartBalance),
			EndBalance:               formatAmount(r.Summary.EndBalance),
			TotalRecurringIncome:     formatAmount(r.Summary.TotalRecurringIncome),
			TotalRecurringExpense:    formatAmount(r.Summary.TotalRecurringExpense),
			PredictedVariableExpense: formatAmount(r.Summary.PredictedVariableExpense),
			NetChange:                formatAmount(r.Summary.NetChange),
		},
	}

	for _, p := range r.DataPoints {
		dp := DataPointReport{
			Date:       p.Date.Format(time.DateOnly),
			Period:     p.Period,
			Balance:    formatAmount(p.Balance),
			LowerBound: formatAmount(p.LowerBound),
			UpperBound: formatAmount(p.UpperBound),
			Events:     make([]EventReport, 0, len(p.Events)),
		}
		for _, e := range p.Events {
			dp.Events = append(dp.Events, EventReport{
				Description: e.Description,
				Amount:      formatAmount(e.Amount),
				Kind:        string(e.Kind),
			})
		}
		report.DataPoints = append(report.DataPoints, dp)
	}

	for _, w := range r.Warnings {
		report.Warnings = append(report.Warnings, WarningReport{
			Date:    w.Date.Format(time.DateOnly),
			Kind:    string(w.Kind),
			Message: w.Message,
		})
	}
	return report
}

// formatAmount keeps whole-cent amounts at two places and renders anything
// finer exactly.
func formatAmount(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}
