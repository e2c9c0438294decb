package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"vaccination_tracker/internal/app"
	"vaccination_tracker/internal/domain/reminder"
)

// Sweeper runs one dispatch sweep. Implemented by *app.DispatchService.
type Sweeper interface {
	RunSweep(ctx context.Context, t reminder.Type, now time.Time) (*app.SweepResult, error)
}

// ReminderScheduler fires the weekly and daily reminder sweeps on their own cron schedules.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	sweeper    Sweeper
	logger     *logrus.Entry
	timeout    time.Duration
	specs      map[reminder.Type]string
	now        func() time.Time
}

func NewReminderScheduler(
	sweeper Sweeper,
	logger *logrus.Entry,
	location *time.Location,
	cronSpecWeekly string, // e.g., "0 14 * * *" (2 PM daily)
	cronSpecDaily string, // e.g., "0 14 * * *" (2 PM daily)
	timeout time.Duration,
) *ReminderScheduler {
	if location == nil {
		location = time.Local
	}
	log := logger.WithField("component", "scheduler")
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		sweeper: sweeper,
		logger:  log,
		timeout: timeout,
		specs: map[reminder.Type]string{
			reminder.TypeWeekly: cronSpecWeekly,
			reminder.TypeDaily:  cronSpecDaily,
		},
		now: time.Now,
	}
}

// Start registers one job per reminder type and starts the cron engine.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	for _, t := range reminder.Types {
		t := t
		if _, err := s.cronEngine.AddFunc(s.specs[t], func() { s.runSweep(t) }); err != nil {
			return fmt.Errorf("could not add %s reminder cron job (%q): %w", t, s.specs[t], err)
		}
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"weekly_spec": s.specs[reminder.TypeWeekly],
		"daily_spec":  s.specs[reminder.TypeDaily],
	}).Info("Reminder scheduler started with jobs.")
	return nil
}

func (s *ReminderScheduler) runSweep(t reminder.Type) {
	log := s.logger.WithField("type", t)
	log.Info("Cron job triggered for reminder sweep.")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.sweeper.RunSweep(ctx, t, s.now())
	if err != nil {
		if errors.Is(err, app.ErrSweepInProgress) {
			log.Warn("Previous sweep still running, skipped.")
			return
		}
		log.WithError(err).Error("Reminder sweep finished with errors.")
	}
	if result != nil {
		log.WithFields(logrus.Fields{
			"selected":   result.Selected,
			"recipients": result.Recipients,
			"delivered":  result.Delivered,
			"failed":     result.Failed,
		}).Info("Reminder sweep completed.")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
