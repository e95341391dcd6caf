package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/Dan9191/cashflow-forecast/internal/recurrence"
	"github.com/shopspring/decimal"
)

// ForecastRequest carries the caller-controlled forecast parameters
type ForecastRequest struct {
	HorizonDays int
	Granularity forecast.Granularity
	Scenarios   []forecast.ScenarioInput
}

// Forecast loads the user's snapshot once and runs the engine over it
func (s *Service) Forecast(ctx context.Context, userID int64, req ForecastRequest) (forecast.Result, error) {
	return s.forecastAt(ctx, userID, req, s.now())
}

func (s *Service) forecastAt(ctx context.Context, userID int64, req ForecastRequest, now time.Time) (forecast.Result, error) {
	snapshot, err := s.loadSnapshot(ctx, userID, recurrence.Day(now))
	if err != nil {
		return forecast.Result{}, err
	}

	snapshot.HorizonDays = req.HorizonDays
	if snapshot.HorizonDays <= 0 {
		snapshot.HorizonDays = s.config.DefaultHorizonDays
	}
	snapshot.Granularity = req.Granularity
	snapshot.Scenarios = req.Scenarios

	return s.engine.Run(snapshot), nil
}

func (s *Service) loadSnapshot(ctx context.Context, userID int64, today time.Time) (forecast.Snapshot, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return forecast.Snapshot{}, fmt.Errorf("failed to load balance: %w", err)
	}
	balance := decimal.Zero
	for _, a := range accounts {
		balance = balance.Add(a.Balance)
	}

	rules, err := s.repo.ListActiveRules(ctx, userID)
	if err != nil {
		return forecast.Snapshot{}, fmt.Errorf("failed to load recurring rules: %w", err)
	}

	lookback := s.config.LookbackDays
	history, err := s.repo.ListClearedExpenses(ctx, userID, today.AddDate(0, 0, -lookback), today)
	if err != nil {
		return forecast.Snapshot{}, fmt.Errorf("failed to load transaction history: %w", err)
	}

	settings, err := s.repo.GetForecastSettings(ctx, userID)
	if err != nil {
		return forecast.Snapshot{}, err
	}

	snapshot := forecast.Snapshot{
		Today:             today,
		CurrentBalance:    balance,
		Rules:             rules,
		History:           history,
		DefaultDailySpend: s.config.DefaultDailySpend,
		SafetyThreshold:   s.config.SafetyThreshold,
		LookbackDays:      lookback,
	}
	if settings.ManualDailyBurnRate.Valid {
		rate := settings.ManualDailyBurnRate.Decimal
		snapshot.ManualDailyBurnRate = &rate
	}
	if settings.SafetyThreshold.Valid {
		snapshot.SafetyThreshold = settings.SafetyThreshold.Decimal
	}
	return snapshot, nil
}
