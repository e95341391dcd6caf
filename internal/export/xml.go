// Package export renders forecast reports for consumers that cannot take
// JSON.
package export

import (
	"fmt"
	"strconv"

	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/beevik/etree"
)

// ForecastXML renders a report as an XML document
func ForecastXML(report forecast.Report) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Forecast")
	root.CreateAttr("granularity", report.Granularity)

	period := root.CreateElement("Period")
	period.CreateAttr("start", report.ForecastPeriod.Start)
	period.CreateAttr("end", report.ForecastPeriod.End)
	period.CreateAttr("days", strconv.Itoa(report.ForecastPeriod.Days))

	root.CreateElement("CurrentBalance").SetText(report.CurrentBalance)
	root.CreateElement("DailyVariable").SetText(report.DailyVariable)

	points := root.CreateElement("DataPoints")
	for _, p := range report.DataPoints {
		el := points.CreateElement("DataPoint")
		el.CreateAttr("date", p.Date)
		el.CreateAttr("period", p.Period)
		el.CreateElement("Balance").SetText(p.Balance)
		el.CreateElement("LowerBound").SetText(p.LowerBound)
		el.CreateElement("UpperBound").SetText(p.UpperBound)
		events := el.CreateElement("Events")
		for _, e := range p.Events {
			ev := events.CreateElement("Event")
			ev.CreateAttr("kind", e.Kind)
			ev.CreateAttr("amount", e.Amount)
			ev.SetText(e.Description)
		}
	}

	warnings := root.CreateElement("Warnings")
	for _, w := range report.Warnings {
		el := warnings.CreateElement("Warning")
		el.CreateAttr("date", w.Date)
		el.CreateAttr("kind", w.Kind)
		el.SetText(w.Message)
	}

	summary := root.CreateElement("Summary")
	summary.CreateElement("StartBalance").SetText(report.Summary.StartBalance)
	summary.CreateElement("EndBalance").SetText(report.Summary.EndBalance)
	summary.CreateElement("TotalRecurringIncome").SetText(report.Summary.TotalRecurringIncome)
	summary.CreateElement("TotalRecurringExpense").SetText(report.Summary.TotalRecurringExpense)
	summary.CreateElement("PredictedVariableExpense").SetText(report.Summary.PredictedVariableExpense)
	summary.CreateElement("NetChange").SetText(report.Summary.NetChange)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write XML: %w", err)
	}
	return out, nil
}
