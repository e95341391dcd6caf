package forecast

import (
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Horizon limits in days.
const (
	MinHorizonDays     = 7
	MaxHorizonDays     = 90
	DefaultHorizonDays = 30
)

// Snapshot is the read-only input of a single forecast run.
type Snapshot struct {
	Today               time.Time
	CurrentBalance      decimal.Decimal
	Rules               []models.RecurringRule
	History             []models.Transaction
	ManualDailyBurnRate *decimal.Decimal
	DefaultDailySpend   decimal.Decimal
	SafetyThreshold     decimal.Decimal
	Scenarios           []ScenarioInput
	HorizonDays         int
	LookbackDays        int
	Granularity         Granularity
}

// Period is the projected date range; End is the last projected day.
type Period struct {
	Start time.Time
	End   time.Time
	Days  int
}

// Result is the output of a forecast run.
type Result struct {
	Period         Period
	CurrentBalance decimal.Decimal
	Granularity    Granularity
	DailyVariable  decimal.Decimal
	DataPoints     []DataPoint
	Warnings       []Warning
	Summary        Summary
}

// Engine runs forecasts. It holds nothing but a logger, so one Engine may
// serve any number of concurrent runs.
type Engine struct {
	log logrus.FieldLogger
}

// NewEngine creates a forecast engine.
func NewEngine(log logrus.FieldLogger) *Engine {
	return &Engine{log: log}
}

// ClampHorizon maps a requested horizon into [MinHorizonDays, MaxHorizonDays];
// non-positive values select DefaultHorizonDays.
func ClampHorizon(days int) int {
	switch {
	case days <= 0:
		return DefaultHorizonDays
	case days < MinHorizonDays:
		return MinHorizonDays
	case days > MaxHorizonDays:
		return MaxHorizonDays
	}
	return days
}

// Run computes the forecast for a snapshot. It never fails: missing rules,
// history or scenarios degrade to defaults.
func (e *Engine) Run(s Snapshot) Result {
	horizon := ClampHorizon(s.HorizonDays)
	today := recurrence.Day(s.Today)
	end := today.AddDate(0, 0, horizon)

	recurring := BuildRecurringEvents(e.log, s.Rules, today, end)
	scenarios := NormalizeScenarios(e.log, s.Scenarios)

	variable := EstimateDailyVariable(EstimatorInput{
		History:             s.History,
		RecurringAmounts:    recurringAmounts(s.Rules),
		ManualDailyBurnRate: s.ManualDailyBurnRate,
		Today:               today,
		LookbackDays:        s.LookbackDays,
		Fallback:            s.DefaultDailySpend,
	})

	events := make([]Event, 0, len(recurring)+len(scenarios))
	events = append(events, recurring...)
	events = append(events, scenarios...)
	daily := Project(s.CurrentBalance, events, variable, today, horizon)

	granularity := s.Granularity
	if granularity == "" {
		granularity = GranularityDaily
	}

	e.log.WithFields(logrus.Fields{
		"horizon_days":     horizon,
		"rules":            len(s.Rules),
		"recurring_events": len(recurring),
		"scenarios":        len(scenarios),
		"daily_variable":   variable.String(),
	}).Debug("Forecast computed")

	return Result{
		Period: Period{
			Start: today,
			End:   end.AddDate(0, 0, -1),
			Days:  horizon,
		},
		CurrentBalance: s.CurrentBalance,
		Granularity:    granularity,
		DailyVariable:  variable,
		DataPoints:     Aggregate(daily, granularity),
		Warnings:       DetectWarnings(daily, s.SafetyThreshold),
		Summary:        Summarize(recurring, variable, horizon, s.CurrentBalance, daily),
	}
}

func recurringAmounts(rules []models.RecurringRule) []decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			amounts = append(amounts, r.Amount.Abs())
		}
	}
	return amounts
}
