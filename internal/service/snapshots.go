package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/forecast"
	"github.com/Dan9191/cashflow-forecast/internal/models"
)

// RebuildSnapshots runs the forecast for every user with active rules, one
// goroutine per user bounded by the configured worker count, stores each
// report and notifies users whose forecast carries warnings
func (s *Service) RebuildSnapshots(ctx context.Context, now time.Time) error {
	users, err := s.repo.ListForecastUsers(ctx)
	if err != nil {
		return err
	}

	workers := s.config.SnapshotWorkers
	if workers < 1 {
		workers = 1
	}

	var failed atomic.Int32
	jobs := make(chan models.User)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for user := range jobs {
				if err := s.rebuildSnapshot(ctx, user, now); err != nil {
					failed.Add(1)
					s.log.WithField("user_id", user.ID).WithError(err).Error("Failed to rebuild forecast snapshot")
				}
			}
		}()
	}

feed:
	for _, user := range users {
		select {
		case jobs <- user:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("snapshot rebuild failed for %d of %d users", n, len(users))
	}
	s.log.Infof("Rebuilt forecast snapshots for %d users", len(users))
	return nil
}

func (s *Service) rebuildSnapshot(ctx context.Context, user models.User, now time.Time) error {
	result, err := s.forecastAt(ctx, user.ID, ForecastRequest{}, now)
	if err != nil {
		return err
	}

	report, err := json.Marshal(forecast.NewReport(result))
	if err != nil {
		return fmt.Errorf("failed to encode forecast report: %w", err)
	}
	snapshot := &models.ForecastSnapshot{
		UserID:      user.ID,
		GeneratedAt: now.UTC(),
		HorizonDays: result.Period.Days,
		Report:      report,
	}
	if err := s.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return err
	}

	if len(result.Warnings) > 0 && s.notifier != nil && s.config.NotifyWarnings {
		if err := s.notifier.SendForecastWarnings(user.Email, user.Username, result.Warnings); err != nil {
			// a failed e-mail does not invalidate the stored snapshot
			s.log.WithField("user_id", user.ID).WithError(err).Warn("Failed to send forecast warnings")
		}
	}
	return nil
}

// LatestSnapshot returns the most recent nightly forecast of the user
func (s *Service) LatestSnapshot(ctx context.Context, userID int64) (*models.ForecastSnapshot, error) {
	return s.repo.LatestSnapshot(ctx, userID)
}
