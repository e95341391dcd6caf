package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleKind is the cash-flow direction of a recurring rule
type RuleKind string

const (
	RuleKindExpense  RuleKind = "EXPENSE"
	RuleKindIncome   RuleKind = "INCOME"
	RuleKindTransfer RuleKind = "TRANSFER"
)

// Valid reports whether k is a known rule kind
func (k RuleKind) Valid() bool {
	switch k {
	case RuleKindExpense, RuleKindIncome, RuleKindTransfer:
		return true
	}
	return false
}

// RecurringRule represents a repeating transaction such as rent or salary
type RecurringRule struct {
	ID              uuid.UUID       `json:"id"`
	UserID          int64           `json:"user_id"`
	Kind            RuleKind        `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	CategoryKey     string          `json:"category_key,omitempty"`
	Description     string          `json:"description,omitempty"`
	Recurrence      string          `json:"recurrence"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	ExceptionDates  []time.Time     `json:"exception_dates,omitempty"`
	IsActive        bool            `json:"is_active"`
	LastGeneratedAt *time.Time      `json:"last_generated_at,omitempty"`
	NextExecutionAt *time.Time      `json:"next_execution_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
