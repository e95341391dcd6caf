package forecast

import (
	"testing"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func monthlyRule(kind models.RuleKind, amount string, start time.Time) models.RecurringRule {
	return models.RecurringRule{
		ID:         uuid.New(),
		UserID:     1,
		Kind:       kind,
		Amount:     dec(amount),
		Currency:   "RUB",
		Recurrence: "FREQ=MONTHLY",
		StartDate:  start,
		IsActive:   true,
	}
}

func TestBuildRecurringEvents_SignConvention(t *testing.T) {
	t.Parallel()
	log, _ := test.NewNullLogger()

	start := day(2026, 11, 1)
	rules := []models.RecurringRule{
		monthlyRule(models.RuleKindExpense, "2000.00", start),
		monthlyRule(models.RuleKindExpense, "-50.00", start),
		monthlyRule(models.RuleKindIncome, "3000.00", start),
		monthlyRule(models.RuleKindTransfer, "-250.00", start),
	}

	events := BuildRecurringEvents(log, rules, start, start.AddDate(0, 0, 10))
	require.Len(t, events, 4)

	amounts := make([]string, 0, len(events))
	for _, e := range events {
		amounts = append(amounts, e.Amount.StringFixed(2))
		assert.Equal(t, EventRecurring, e.Kind)
		assert.True(t, e.Confidence.Equal(decimal.NewFromInt(1)))
		require.NotNil(t, e.SourceRuleID)
	}
	assert.Equal(t, []string{"-2000.00", "-50.00", "3000.00", "-250.00"}, amounts)
	assert.Equal(t, rules[2].ID, *events[2].SourceRuleID)
}

func TestBuildRecurringEvents_DescriptionPriority(t *testing.T) {
	t.Parallel()
	log, _ := test.NewNullLogger()

	start := day(2026, 11, 1)
	withDescription := monthlyRule(models.RuleKindExpense, "10", start)
	withDescription.Description = "Rent"
	withDescription.CategoryKey = "housing"
	withCategory := monthlyRule(models.RuleKindExpense, "10", start)
	withCategory.CategoryKey = "subscriptions"
	bare := monthlyRule(models.RuleKindIncome, "10", start)

	events := BuildRecurringEvents(log, []models.RecurringRule{withDescription, withCategory, bare}, start, start.AddDate(0, 0, 1))
	require.Len(t, events, 3)
	assert.Equal(t, "Rent", events[0].Description)
	assert.Equal(t, "subscriptions", events[1].Description)
	assert.Equal(t, "INCOME", events[2].Description)
}

func TestBuildRecurringEvents_SkipsBrokenAndInactiveRules(t *testing.T) {
	t.Parallel()
	log, hook := test.NewNullLogger()

	start := day(2026, 11, 1)
	broken := monthlyRule(models.RuleKindExpense, "10", start)
	broken.Recurrence = "FREQ=HOURLY"
	inactive := monthlyRule(models.RuleKindExpense, "20", start)
	inactive.IsActive = false
	good := monthlyRule(models.RuleKindExpense, "30", start)

	events := BuildRecurringEvents(log, []models.RecurringRule{broken, inactive, good}, start, start.AddDate(0, 2, 0))
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "-30.00", e.Amount.StringFixed(2))
	}

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, broken.ID, hook.LastEntry().Data["rule_id"])
}

func TestBuildRecurringEvents_WeeklyMondaysFromWednesday(t *testing.T) {
	t.Parallel()
	log, _ := test.NewNullLogger()

	rule := monthlyRule(models.RuleKindExpense, "15", day(2026, 10, 14))
	rule.Recurrence = "FREQ=WEEKLY;BYDAY=MO"

	events := BuildRecurringEvents(log, []models.RecurringRule{rule}, day(2026, 10, 14), day(2026, 10, 28))
	require.Len(t, events, 2)
	assert.Equal(t, day(2026, 10, 19), events[0].Date)
	assert.Equal(t, day(2026, 10, 26), events[1].Date)
}

func TestNormalizeScenarios(t *testing.T) {
	t.Parallel()
	log, hook := test.NewNullLogger()

	events := NormalizeScenarios(log, []ScenarioInput{
		{Date: "2026-11-10", Amount: "-5000", Description: "big purchase"},
		{Date: "not a date", Amount: "10"},
		{Date: "2026-11-11", Amount: "ten"},
		{Date: "2026-11-12T18:30:00Z", Amount: " 250.50 "},
	})

	require.Len(t, events, 2)
	assert.Equal(t, day(2026, 11, 10), events[0].Date)
	assert.Equal(t, "-5000.00", events[0].Amount.StringFixed(2))
	assert.Equal(t, "big purchase", events[0].Description)
	assert.Equal(t, EventScenario, events[0].Kind)
	assert.True(t, events[0].Confidence.LessThan(decimal.NewFromInt(1)))

	assert.Equal(t, day(2026, 11, 12), events[1].Date)
	assert.Equal(t, "Scenario", events[1].Description)

	assert.Len(t, hook.Entries, 2)
	assert.Equal(t, 1, hook.Entries[0].Data["scenario_index"])
	assert.Equal(t, 2, hook.Entries[1].Data["scenario_index"])
}
