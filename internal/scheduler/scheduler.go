// Package scheduler runs the periodic background jobs of the forecast
// service on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/cashflow-forecast/internal/config"
	"github.com/Dan9191/cashflow-forecast/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Jobs is the work the scheduler triggers
type Jobs interface {
	RegenerateSchedules(ctx context.Context, now time.Time) (service.RegenerationStats, error)
	RebuildSnapshots(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	log    *logrus.Logger
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
}

// New registers the regeneration and snapshot jobs without starting them
func New(cfg *config.Config, jobs Jobs, log *logrus.Logger) (*Scheduler, error) {
	cronLog := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		jobs:   jobs,
		log:    log,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}

	if _, err := s.cron.AddFunc(cfg.RegenerateSchedule, s.regenerate); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid SCHEDULE_REGENERATE %q: %w", cfg.RegenerateSchedule, err)
	}
	if _, err := s.cron.AddFunc(cfg.SnapshotSchedule, s.rebuild); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid SCHEDULE_SNAPSHOTS %q: %w", cfg.SnapshotSchedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.log.Infof("Starting scheduler with %d jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) regenerate() {
	started := s.now()
	stats, err := s.jobs.RegenerateSchedules(s.ctx, started)
	if err != nil {
		s.log.Errorf("Schedule regeneration failed: %v", err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"updated":     stats.Updated,
		"deactivated": stats.Deactivated,
		"skipped":     stats.Skipped,
		"duration":    s.now().Sub(started).String(),
	}).Info("Schedules regenerated")
}

func (s *Scheduler) rebuild() {
	started := s.now()
	if err := s.jobs.RebuildSnapshots(s.ctx, started); err != nil {
		s.log.Errorf("Snapshot rebuild failed: %v", err)
		return
	}
	s.log.WithField("duration", s.now().Sub(started).String()).Info("Snapshots rebuilt")
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
