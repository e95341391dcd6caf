package forecast

import (
	"encoding/json"
	"testing"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	log, _ := test.NewNullLogger()
	return NewEngine(log)
}

func salaryAndRentSnapshot() Snapshot {
	start := day(2026, 11, 1)
	return Snapshot{
		Today:          start,
		CurrentBalance: dec("1000.00"),
		Rules: []models.RecurringRule{
			monthlyRule(models.RuleKindIncome, "3000.00", start),
			monthlyRule(models.RuleKindExpense, "2000.00", start),
		},
		SafetyThreshold: dec("500.00"),
		HorizonDays:     30,
	}
}

func TestEngineRun_SalaryAndRent(t *testing.T) {
	t.Parallel()

	res := newTestEngine().Run(salaryAndRentSnapshot())

	assert.Equal(t, 30, res.Period.Days)
	assert.Equal(t, day(2026, 11, 1), res.Period.Start)
	assert.Equal(t, day(2026, 11, 30), res.Period.End)
	assert.Equal(t, "-100.00", res.DailyVariable.StringFixed(2))
	require.Len(t, res.DataPoints, 30)

	first := res.DataPoints[0]
	assert.Equal(t, "1900.00", first.Balance.StringFixed(2))
	require.Len(t, first.Events, 3)
	assert.Equal(t, "3000.00", first.Events[0].Amount.StringFixed(2))
	assert.Equal(t, "-2000.00", first.Events[1].Amount.StringFixed(2))

	for i := 1; i < len(res.DataPoints); i++ {
		prev, cur := res.DataPoints[i-1], res.DataPoints[i]
		assert.Equal(t, "-100.00", cur.Balance.Sub(prev.Balance).StringFixed(2))
	}

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, WarningBelowThreshold, res.Warnings[0].Kind)
	assert.Equal(t, day(2026, 11, 16), res.Warnings[0].Date)
	assert.Equal(t, WarningNegativeBalance, res.Warnings[1].Kind)
	assert.Equal(t, day(2026, 11, 21), res.Warnings[1].Date)

	assert.Equal(t, "3000.00", res.Summary.TotalRecurringIncome.StringFixed(2))
	assert.Equal(t, "2000.00", res.Summary.TotalRecurringExpense.StringFixed(2))
	assert.Equal(t, "3000.00", res.Summary.PredictedVariableExpense.StringFixed(2))
	assert.Equal(t, "-2000.00", res.Summary.NetChange.StringFixed(2))
	assert.Equal(t, "1000.00", res.Summary.StartBalance.StringFixed(2))
	assert.Equal(t, "-1000.00", res.Summary.EndBalance.StringFixed(2))
}

func TestEngineRun_ScenarioOnlyShiftsLaterDays(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	base := salaryAndRentSnapshot()
	baseline := engine.Run(base)

	withScenario := salaryAndRentSnapshot()
	withScenario.Rules = base.Rules
	withScenario.Scenarios = []ScenarioInput{
		{Date: "2026-11-30", Amount: "-5000", Description: "big purchase"},
	}
	shifted := engine.Run(withScenario)

	require.Len(t, shifted.DataPoints, len(baseline.DataPoints))
	last := len(shifted.DataPoints) - 1
	for i := 0; i < last; i++ {
		before, err := json.Marshal(NewReport(Result{DataPoints: baseline.DataPoints[i : i+1]}).DataPoints)
		require.NoError(t, err)
		after, err := json.Marshal(NewReport(Result{DataPoints: shifted.DataPoints[i : i+1]}).DataPoints)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after), "day %d changed", i)
	}

	delta := shifted.DataPoints[last].Balance.Sub(baseline.DataPoints[last].Balance)
	assert.Equal(t, "-5000.00", delta.StringFixed(2))
	assert.Equal(t, "-5000.00", shifted.DataPoints[last].LowerBound.Sub(baseline.DataPoints[last].LowerBound).StringFixed(2))
	assert.Equal(t, "-5000.00", shifted.DataPoints[last].UpperBound.Sub(baseline.DataPoints[last].UpperBound).StringFixed(2))
	// scenarios never count as recurring
	assert.Equal(t, baseline.Summary.NetChange.String(), shifted.Summary.NetChange.String())
	assert.Equal(t, baseline.Summary.TotalRecurringExpense.String(), shifted.Summary.TotalRecurringExpense.String())
}

func TestEngineRun_EmptySnapshot(t *testing.T) {
	t.Parallel()

	res := newTestEngine().Run(Snapshot{Today: day(2026, 10, 15)})

	assert.Equal(t, DefaultHorizonDays, res.Period.Days)
	assert.Len(t, res.DataPoints, DefaultHorizonDays)
	assert.True(t, res.DailyVariable.Equal(DefaultDailyVariable))
	assert.True(t, res.Summary.TotalRecurringIncome.IsZero())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningNegativeBalance, res.Warnings[0].Kind)
	assert.Equal(t, day(2026, 10, 15), res.Warnings[0].Date)
}

func TestEngineRun_Granularity(t *testing.T) {
	t.Parallel()

	s := salaryAndRentSnapshot()
	s.Granularity = GranularityWeekly
	res := newTestEngine().Run(s)

	assert.Equal(t, GranularityWeekly, res.Granularity)
	assert.Less(t, len(res.DataPoints), 30)
	// warnings are detected on the daily series regardless of granularity
	assert.Len(t, res.Warnings, 2)
}

func TestClampHorizon(t *testing.T) {
	t.Parallel()

	tests := map[int]int{
		-5:  DefaultHorizonDays,
		0:   DefaultHorizonDays,
		1:   MinHorizonDays,
		7:   7,
		45:  45,
		90:  90,
		365: MaxHorizonDays,
	}
	for in, want := range tests {
		assert.Equal(t, want, ClampHorizon(in), "ClampHorizon(%d)", in)
	}
}

func TestNewReport(t *testing.T) {
	t.Parallel()

	res := newTestEngine().Run(salaryAndRentSnapshot())
	report := NewReport(res)

	assert.Equal(t, "2026-11-01", report.ForecastPeriod.Start)
	assert.Equal(t, "2026-11-30", report.ForecastPeriod.End)
	assert.Equal(t, "1000.00", report.CurrentBalance)
	assert.Equal(t, "1900.00", report.DataPoints[0].Balance)
	assert.Equal(t, "1885.00", report.DataPoints[0].LowerBound)
	assert.Equal(t, "1915.00", report.DataPoints[0].UpperBound)
	assert.Equal(t, "BELOW_SAFETY_THRESHOLD", report.Warnings[0].Kind)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "-2000.00", summary["net_change"])
}
