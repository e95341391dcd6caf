package models

import (
	"encoding/json"
	"time"
)

// ForecastSnapshot is a forecast report persisted by the nightly rebuild
type ForecastSnapshot struct {
	UserID      int64           `json:"user_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	HorizonDays int             `json:"horizon_days"`
	Report      json.RawMessage `json:"report"`
}
