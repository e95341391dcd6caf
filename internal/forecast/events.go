package forecast

import (
	"sort"
	"strings"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ScenarioInput is a hypothetical event supplied by an external
// collaborator. Fields stay raw so one bad entry can be skipped alone.
type ScenarioInput struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

const defaultScenarioDescription = "Scenario"

// BuildRecurringEvents expands every active rule over [from, to) into
// RECURRING events. A rule with an unparsable descriptor is logged and
// skipped.
func BuildRecurringEvents(log logrus.FieldLogger, rules []models.RecurringRule, from, to time.Time) []Event {
	var events []Event
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		parsed, err := recurrence.Parse(rule.Recurrence)
		if err != nil {
			log.WithField("rule_id", rule.ID).WithError(err).Warn("Skipping recurring rule with invalid recurrence")
			continue
		}

		schedule := recurrence.Schedule{
			Rule:       parsed,
			Start:      rule.StartDate,
			End:        rule.EndDate,
			Exceptions: rule.ExceptionDates,
		}
		amount := signedAmount(rule)
		description := describeRule(rule)
		ruleID := rule.ID
		for _, d := range schedule.Between(from, to).Dates {
			events = append(events, Event{
				Date:         d,
				Description:  description,
				Amount:       amount,
				Kind:         EventRecurring,
				SourceRuleID: &ruleID,
				Confidence:   confidenceDeterministic,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

// signedAmount applies the sign convention; TRANSFER passes through as stored.
func signedAmount(rule models.RecurringRule) decimal.Decimal {
	switch rule.Kind {
	case models.RuleKindExpense:
		return rule.Amount.Abs().Neg()
	case models.RuleKindIncome:
		return rule.Amount.Abs()
	default:
		return rule.Amount
	}
}

func describeRule(rule models.RecurringRule) string {
	if d := strings.TrimSpace(rule.Description); d != "" {
		return d
	}
	if c := strings.TrimSpace(rule.CategoryKey); c != "" {
		return c
	}
	return string(rule.Kind)
}

// NormalizeScenarios converts scenario entries into SCENARIO events,
// skipping malformed entries individually.
func NormalizeScenarios(log logrus.FieldLogger, inputs []ScenarioInput) []Event {
	events := make([]Event, 0, len(inputs))
	for i, in := range inputs {
		entry := log.WithField("scenario_index", i)

		d, err := parseScenarioDate(in.Date)
		if err != nil {
			entry.WithError(err).Warn("Skipping scenario with invalid date")
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
		if err != nil {
			entry.WithError(err).Warn("Skipping scenario with invalid amount")
			continue
		}
		description := strings.TrimSpace(in.Description)
		if description == "" {
			description = defaultScenarioDescription
		}

		events = append(events, Event{
			Date:        d,
			Description: description,
			Amount:      amount,
			Kind:        EventScenario,
			Confidence:  confidenceScenario,
		})
	}
	return events
}

func parseScenarioDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return recurrence.Day(t.UTC()), nil
}
