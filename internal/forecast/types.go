// Package forecast projects a user's balance over a short horizon from
// recurring rules, an estimated daily variable spend and hypothetical
// scenarios. Everything in this package is a pure function of its inputs:
// no I/O, no clock, no shared state.
package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind identifies the source of a forecast event.
type EventKind string

const (
	EventRecurring EventKind = "RECURRING"
	EventVariable  EventKind = "VARIABLE"
	EventScenario  EventKind = "SCENARIO"
)

var (
	confidenceDeterministic = decimal.NewFromInt(1)
	confidenceScenario      = decimal.RequireFromString("0.8")
	confidenceVariable      = decimal.RequireFromString("0.7")
)

// Event is a single signed cash movement on a given day.
type Event struct {
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	Kind         EventKind
	SourceRuleID *uuid.UUID
	Confidence   decimal.Decimal
}

// DataPoint is the projected state at the end of a day, or of a bucket of
// days once aggregated.
type DataPoint struct {
	Date       time.Time
	Period     string
	Balance    decimal.Decimal
	LowerBound decimal.Decimal
	UpperBound decimal.Decimal
	Events     []Event
}

// WarningKind classifies a safety violation.
type WarningKind string

const (
	WarningNegativeBalance WarningKind = "NEGATIVE_BALANCE"
	WarningBelowThreshold  WarningKind = "BELOW_SAFETY_THRESHOLD"
)

// Warning flags the first day a safety condition is violated.
type Warning struct {
	Date    time.Time
	Kind    WarningKind
	Message string
}

// Summary totals the forecast.
type Summary struct {
	StartBalance             decimal.Decimal
	EndBalance               decimal.Decimal
	TotalRecurringIncome     decimal.Decimal
	TotalRecurringExpense    decimal.Decimal
	PredictedVariableExpense decimal.Decimal
	NetChange                decimal.Decimal
}

// Granularity controls how the daily series is bucketed.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// ParseGranularity accepts daily, weekly or monthly; empty means daily.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GranularityDaily, nil
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return g, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}
