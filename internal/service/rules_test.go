package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rentInput() RuleInput {
	return RuleInput{
		Kind:        models.RuleKindExpense,
		Amount:      dec("1200.00"),
		Currency:    " rub ",
		Description: " Rent ",
		Recurrence:  "freq=monthly;bymonthday=5",
		StartDate:   day(2026, 1, 5),
	}
}

func TestCreateRule(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC))

	rule, err := svc.CreateRule(context.Background(), 7, rentInput())
	require.NoError(t, err)

	assert.Equal(t, int64(7), rule.UserID)
	assert.Equal(t, "FREQ=MONTHLY;BYMONTHDAY=5", rule.Recurrence)
	assert.Equal(t, "RUB", rule.Currency)
	assert.Equal(t, "Rent", rule.Description)
	assert.True(t, rule.IsActive)
	require.NotNil(t, rule.NextExecutionAt)
	assert.Equal(t, day(2026, 11, 5), *rule.NextExecutionAt)

	stored, err := svc.ListRules(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rule.ID, stored[0].ID)
}

func TestCreateRule_ExhaustedIsStoredInactive(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, day(2026, 10, 15))

	in := rentInput()
	end := day(2026, 6, 30)
	in.EndDate = &end

	rule, err := svc.CreateRule(context.Background(), 7, in)
	require.NoError(t, err)
	assert.False(t, rule.IsActive)
	assert.Nil(t, rule.NextExecutionAt)
}

func TestCreateRule_Validation(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, day(2026, 10, 15))
	ctx := context.Background()

	in := rentInput()
	in.Recurrence = "FREQ=MONTHLY;COUNT=3"
	_, err := svc.CreateRule(ctx, 7, in)
	var verr *recurrence.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "COUNT=3", verr.Token)

	cases := map[string]func(*RuleInput){
		"kind":     func(in *RuleInput) { in.Kind = "GIFT" },
		"amount":   func(in *RuleInput) { in.Amount = dec("0") },
		"start":    func(in *RuleInput) { in.StartDate = time.Time{} },
		"currency": func(in *RuleInput) { in.Currency = "  " },
		"end": func(in *RuleInput) {
			end := day(2025, 12, 31)
			in.EndDate = &end
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := rentInput()
			mutate(&in)
			_, err := svc.CreateRule(ctx, 7, in)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestRegenerateSchedules(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, day(2026, 1, 1))
	ctx := context.Background()

	ongoing, err := svc.CreateRule(ctx, 1, rentInput())
	require.NoError(t, err)

	ending := rentInput()
	end := day(2026, 3, 31)
	ending.EndDate = &end
	expiring, err := svc.CreateRule(ctx, 1, ending)
	require.NoError(t, err)
	require.True(t, expiring.IsActive)

	broken := models.RecurringRule{UserID: 2, Recurrence: "FREQ=HOURLY", StartDate: day(2026, 1, 1), IsActive: true}
	require.NoError(t, store.CreateRule(ctx, &broken))

	stats, err := svc.RegenerateSchedules(ctx, time.Date(2026, 4, 10, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, RegenerationStats{Updated: 2, Deactivated: 1, Skipped: 1}, stats)

	update := store.updates[ongoing.ID]
	assert.True(t, update.active)
	require.NotNil(t, update.next)
	assert.Equal(t, day(2026, 5, 5), *update.next)

	update = store.updates[expiring.ID]
	assert.False(t, update.active)
	assert.Nil(t, update.next)

	_, touched := store.updates[broken.ID]
	assert.False(t, touched)
}
