package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrInvalidRule is wrapped by every rule validation failure other than a
// malformed descriptor, which surfaces as *recurrence.ValidationError
var ErrInvalidRule = errors.New("invalid recurring rule")

// nextLookahead caps the search for the next occurrence of unbounded rules
const nextLookahead = 10

// RuleInput is a rule as submitted by a user or agent
type RuleInput struct {
	Kind           models.RuleKind
	Amount         decimal.Decimal
	Currency       string
	CategoryKey    string
	Description    string
	Recurrence     string
	StartDate      time.Time
	EndDate        *time.Time
	ExceptionDates []time.Time
}

// RegenerationStats reports one regeneration pass
type RegenerationStats struct {
	Updated     int
	Deactivated int
	Skipped     int
}

// CreateRule validates and stores a recurring rule
func (s *Service) CreateRule(ctx context.Context, userID int64, in RuleInput) (*models.RecurringRule, error) {
	parsed, err := recurrence.Parse(in.Recurrence)
	if err != nil {
		return nil, err
	}
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be EXPENSE, INCOME or TRANSFER", ErrInvalidRule)
	}
	if in.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount must not be zero", ErrInvalidRule)
	}
	if in.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidRule)
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidRule)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidRule)
	}

	rule := &models.RecurringRule{
		UserID:         userID,
		Kind:           in.Kind,
		Amount:         in.Amount,
		Currency:       currency,
		CategoryKey:    strings.TrimSpace(in.CategoryKey),
		Description:    strings.TrimSpace(in.Description),
		Recurrence:     parsed.String(),
		StartDate:      recurrence.Day(in.StartDate),
		ExceptionDates: in.ExceptionDates,
		IsActive:       true,
	}
	if in.EndDate != nil {
		end := recurrence.Day(*in.EndDate)
		rule.EndDate = &end
	}

	schedule := scheduleOf(parsed, rule)
	today := recurrence.Day(s.now())
	if next, ok := schedule.Next(today, today.AddDate(nextLookahead, 0, 0)); ok {
		rule.NextExecutionAt = &next
	}
	rule.IsActive = !schedule.ExhaustedAt(today)

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	s.log.Infof("Recurring rule %s created for user %d: %s %s", rule.ID, userID, rule.Kind, rule.Recurrence)
	return rule, nil
}

// ListRules returns every rule of the user
func (s *Service) ListRules(ctx context.Context, userID int64) ([]models.RecurringRule, error) {
	return s.repo.ListRules(ctx, userID)
}

// RegenerateSchedules recomputes next_execution_at for every active rule and
// deactivates the rules that have no occurrence left
func (s *Service) RegenerateSchedules(ctx context.Context, now time.Time) (RegenerationStats, error) {
	var stats RegenerationStats

	rules, err := s.repo.ListAllActiveRules(ctx)
	if err != nil {
		return stats, err
	}

	today := recurrence.Day(now)
	for i := range rules {
		rule := &rules[i]
		parsed, err := recurrence.Parse(rule.Recurrence)
		if err != nil {
			s.log.WithField("rule_id", rule.ID).WithError(err).Warn("Skipping recurring rule with invalid recurrence")
			stats.Skipped++
			continue
		}

		schedule := scheduleOf(parsed, rule)
		var next *time.Time
		if d, ok := schedule.Next(today, today.AddDate(nextLookahead, 0, 0)); ok {
			next = &d
		}
		active := !schedule.ExhaustedAt(today)

		if err := s.repo.UpdateRuleSchedule(ctx, rule.ID, now, next, active); err != nil {
			return stats, err
		}
		stats.Updated++
		if !active {
			stats.Deactivated++
			s.log.WithFields(logrus.Fields{"rule_id": rule.ID, "user_id": rule.UserID}).
				Info("Recurring rule deactivated: no occurrences left")
		}
	}

	s.log.Infof("Regenerated %d recurring rules (%d deactivated, %d skipped)", stats.Updated, stats.Deactivated, stats.Skipped)
	return stats, nil
}

func scheduleOf(parsed recurrence.Rule, rule *models.RecurringRule) recurrence.Schedule {
	return recurrence.Schedule{
		Rule:       parsed,
		Start:      rule.StartDate,
		End:        rule.EndDate,
		Exceptions: rule.ExceptionDates,
	}
}
