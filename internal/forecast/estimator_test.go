package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var estimatorToday = day(2026, 10, 15)

func expenses(amounts ...string) []models.Transaction {
	txs := make([]models.Transaction, 0, len(amounts))
	for i, a := range amounts {
		txs = append(txs, models.Transaction{
			ID:         int64(i + 1),
			Amount:     dec(a),
			Kind:       models.TransactionKindExpense,
			Status:     models.TransactionStatusCleared,
			OccurredAt: estimatorToday.AddDate(0, 0, -(i + 1)).Add(10 * time.Hour),
		})
	}
	return txs
}

func TestEstimateDailyVariable_TooLittleHistoryReturnsDefault(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 4} {
		n := n
		t.Run(fmt.Sprintf("%d transactions", n), func(t *testing.T) {
			t.Parallel()
			amounts := make([]string, n)
			for i := range amounts {
				amounts[i] = "42.00"
			}
			got := EstimateDailyVariable(EstimatorInput{History: expenses(amounts...), Today: estimatorToday})
			assert.True(t, got.Equal(DefaultDailyVariable), "got %s", got)
		})
	}
}

func TestEstimateDailyVariable_ConfiguredFallback(t *testing.T) {
	t.Parallel()

	got := EstimateDailyVariable(EstimatorInput{Today: estimatorToday, Fallback: dec("75")})
	assert.Equal(t, "-75.00", got.StringFixed(2))
}

func TestEstimateDailyVariable_ManualOverrideWins(t *testing.T) {
	t.Parallel()

	manual := dec("33.30")
	got := EstimateDailyVariable(EstimatorInput{
		History:             expenses("10", "20", "30", "40", "50"),
		ManualDailyBurnRate: &manual,
		Today:               estimatorToday,
	})
	assert.Equal(t, "-33.30", got.StringFixed(2))

	zero := decimal.Zero
	got = EstimateDailyVariable(EstimatorInput{ManualDailyBurnRate: &zero, Today: estimatorToday})
	assert.True(t, got.Equal(DefaultDailyVariable))
}

func TestEstimateDailyVariable_BlendsMedianAndCalendarAverage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		amounts []string
		want    string
	}{
		// median 30, average 150/30 = 5 -> 0.4*30 + 0.6*5 = 15
		{"odd sample", []string{"10", "20", "30", "40", "50"}, "-15.00"},
		// median 35, average 210/30 = 7 -> 14 + 4.2
		{"even sample", []string{"60", "10", "50", "20", "40", "30"}, "-18.20"},
		// outlier barely moves the median: median 12, average 1048/30
		{"outlier", []string{"10", "11", "12", "15", "1000"}, "-25.76"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EstimateDailyVariable(EstimatorInput{History: expenses(tt.amounts...), Today: estimatorToday})
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.False(t, got.IsPositive())
		})
	}
}

func TestEstimateDailyVariable_FiltersSample(t *testing.T) {
	t.Parallel()

	history := expenses("10", "20", "30", "40", "50")
	// within 1% of the 1005.00 rule: excluded
	history = append(history, expenses("1000")...)
	// outside the lookback window
	old := expenses("500")[0]
	old.OccurredAt = estimatorToday.AddDate(0, 0, -31)
	// pending and income rows
	pending := expenses("700")[0]
	pending.Status = "PENDING"
	income := expenses("900")[0]
	income.Kind = "INCOME"
	// today is outside [today-30, today)
	todays := expenses("800")[0]
	todays.OccurredAt = estimatorToday.Add(2 * time.Hour)
	history = append(history, old, pending, income, todays)

	got := EstimateDailyVariable(EstimatorInput{
		History:          history,
		RecurringAmounts: []decimal.Decimal{dec("1005.00")},
		Today:            estimatorToday,
	})
	assert.Equal(t, "-15.00", got.StringFixed(2))
}

func TestEstimateDailyVariable_RecurringExclusionCanStarveSample(t *testing.T) {
	t.Parallel()

	got := EstimateDailyVariable(EstimatorInput{
		History:          expenses("9.99", "10", "10.05", "20", "30"),
		RecurringAmounts: []decimal.Decimal{dec("10")},
		Today:            estimatorToday,
	})
	assert.True(t, got.Equal(DefaultDailyVariable))
}
