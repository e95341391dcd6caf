package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses and kinds the forecast cares about
const (
	TransactionStatusCleared = "CLEARED"
	TransactionKindExpense   = "EXPENSE"
)

// Transaction represents a historical financial transaction.
// Amount is always positive; Kind carries the direction.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
