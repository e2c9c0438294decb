// internal/app/dispatch_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"vaccination_tracker/internal/domain/alert"
	"vaccination_tracker/internal/domain/email"
	"vaccination_tracker/internal/domain/reminder"
)

// SweepResult summarises one dispatch run.
type SweepResult struct {
	Type       reminder.Type
	Selected   int   // due reminders found
	Recipients int   // distinct email addresses among them
	Delivered  int   // recipients whose email was accepted and rows marked sent
	Failed     int   // recipients left for the next run
	MarkedSent int64 // rows flipped to sent
}

// DispatchService delivers due reminders by email, one message per recipient.
type DispatchService struct {
	reminderRepo reminder.Repository
	gateway      email.Gateway
	notifier     alert.Notifier
	logger       *logrus.Entry

	running map[reminder.Type]*sync.Mutex
}

func NewDispatchService(rr reminder.Repository, gw email.Gateway, notifier alert.Notifier, logger *logrus.Entry) *DispatchService {
	if notifier == nil {
		notifier = alert.Nop{}
	}
	running := make(map[reminder.Type]*sync.Mutex, len(reminder.Types))
	for _, t := range reminder.Types {
		running[t] = &sync.Mutex{}
	}
	return &DispatchService{
		reminderRepo: rr,
		gateway:      gw,
		notifier:     notifier,
		logger:       logger.WithField("component", "dispatch_service"),
		running:      running,
	}
}

func (s *DispatchService) RunWeeklySweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	return s.RunSweep(ctx, reminder.TypeWeekly, now)
}

func (s *DispatchService) RunDailySweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	return s.RunSweep(ctx, reminder.TypeDaily, now)
}

// RunSweep sends every unsent reminder of type t scheduled at or before now.
//
// A failed send leaves that recipient's reminders unsent and the run moves on to the next
// recipient. Failing to load due reminders or to mark them sent stops the run. Only one run
// per type may be in flight; a second one returns ErrSweepInProgress.
func (s *DispatchService) RunSweep(ctx context.Context, t reminder.Type, now time.Time) (*SweepResult, error) {
	mu, ok := s.running[t]
	if !ok {
		return nil, fmt.Errorf("unknown reminder type %q", t)
	}
	if !mu.TryLock() {
		s.logger.WithField("type", t).Warn("Sweep already running, skipping")
		return nil, ErrSweepInProgress
	}
	defer mu.Unlock()

	log := s.logger.WithFields(logrus.Fields{"type": t, "now": now.Format(time.RFC3339)})
	result := &SweepResult{Type: t}

	due, err := s.reminderRepo.ListDue(ctx, t, now)
	if err != nil {
		err = fmt.Errorf("failed to list due %s reminders: %w", t, err)
		log.WithError(err).Error("Sweep aborted")
		s.alert(ctx, t, err)
		return result, err
	}
	result.Selected = len(due)
	if len(due) == 0 {
		log.Debug("No due reminders")
		return result, nil
	}

	groups := groupByRecipient(due)
	result.Recipients = len(groups)
	log.WithFields(logrus.Fields{"selected": result.Selected, "recipients": result.Recipients}).Info("Dispatching reminders")

	var errs []error
	for _, group := range groups {
		recipient := group[0].MotherEmail
		rlog := log.WithField("recipient", recipient)

		msg, err := composeReminderEmail(group)
		if err == nil {
			err = s.gateway.Send(ctx, msg)
		}
		if err != nil {
			result.Failed++
			rlog.WithError(err).Error("Failed to send reminder email")
			errs = append(errs, fmt.Errorf("send to %s: %w", recipient, err))
			continue
		}

		ids := make([]int64, 0, len(group))
		for _, d := range group {
			ids = append(ids, d.ID)
		}
		n, err := s.reminderRepo.MarkSent(ctx, ids)
		if err != nil {
			// The email already went out; the rows will be picked up again next run.
			rlog.WithError(err).Error("Failed to mark reminders sent, aborting sweep")
			errs = append(errs, fmt.Errorf("mark sent for %s: %w", recipient, err))
			break
		}
		result.Delivered++
		result.MarkedSent += n
		rlog.WithField("reminders", len(ids)).Info("Reminder email sent")
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.alert(ctx, t, err)
		return result, err
	}
	return result, nil
}

// PendingCounts reports how many unsent reminders of each type exist.
func (s *DispatchService) PendingCounts(ctx context.Context) (map[reminder.Type]int, error) {
	counts, err := s.reminderRepo.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending reminders: %w", err)
	}
	return counts, nil
}

func (s *DispatchService) alert(ctx context.Context, t reminder.Type, cause error) {
	text := fmt.Sprintf("Reminder sweep (%s) failed: %v", t, cause)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.WithError(err).Warn("Failed to notify operator")
	}
}

// groupByRecipient splits due reminders per email address, keeping first-seen order.
func groupByRecipient(due []*reminder.Due) [][]*reminder.Due {
	index := make(map[string]int)
	var groups [][]*reminder.Due
	for _, d := range due {
		key := strings.ToLower(strings.TrimSpace(d.MotherEmail))
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], d)
	}
	return groups
}
