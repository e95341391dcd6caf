package models

import "github.com/shopspring/decimal"

type Account struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// ForecastSettings holds per-user forecast overrides
type ForecastSettings struct {
	UserID              int64               `json:"user_id"`
	ManualDailyBurnRate decimal.NullDecimal `json:"manual_daily_burn_rate"`
	SafetyThreshold     decimal.NullDecimal `json:"safety_threshold"`
}
