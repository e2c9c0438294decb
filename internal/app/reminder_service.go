// internal/app/reminder_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vaccination_tracker/internal/domain/mother"
	"vaccination_tracker/internal/domain/reminder"
	"vaccination_tracker/internal/domain/schedule"
	idb "vaccination_tracker/internal/infra/database"
)

// ReminderService keeps each baby's pending reminders in line with its birth date.
type ReminderService struct {
	motherRepo   mother.Repository
	scheduleRepo schedule.Repository
	reminderRepo reminder.Repository
	location     *time.Location // wall clock for the 14:00 send time
	logger       *logrus.Entry
}

func NewReminderService(
	mr mother.Repository,
	sr schedule.Repository,
	rr reminder.Repository,
	location *time.Location,
	logger *logrus.Entry,
) *ReminderService {
	if location == nil {
		location = time.Local
	}
	return &ReminderService{
		motherRepo:   mr,
		scheduleRepo: sr,
		reminderRepo: rr,
		location:     location,
		logger:       logger.WithField("component", "reminder_service"),
	}
}

// RegenerateReminders replaces the reminder set of a baby owned by motherID.
// A baby that is missing or belongs to another mother yields ErrBabyNotFound and nothing is written.
func (s *ReminderService) RegenerateReminders(ctx context.Context, motherID, babyID uuid.UUID, now time.Time) error {
	baby, err := s.motherRepo.GetBaby(ctx, motherID, babyID)
	if err != nil {
		if errors.Is(err, idb.ErrBabyNotFound) {
			return ErrBabyNotFound
		}
		return fmt.Errorf("failed to load baby: %w", err)
	}

	_, err = s.Materialize(ctx, baby, now)
	return err
}

// Materialize computes the reminders for an already loaded baby and stores them, replacing
// whatever the baby had before. It returns the stored reminders.
func (s *ReminderService) Materialize(ctx context.Context, baby *mother.Baby, now time.Time) ([]*reminder.Reminder, error) {
	log := s.logger.WithFields(logrus.Fields{
		"mother_id":  baby.MotherID,
		"baby_id":    baby.ID,
		"birth_date": baby.DateOfBirth.Format("2006-01-02"),
	})

	entries, err := s.scheduleRepo.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load vaccination schedule")
		return nil, fmt.Errorf("failed to load vaccination schedule: %w", err)
	}

	reminders := BuildReminders(baby.MotherID, baby.ID, baby.DateOfBirth, entries, now, s.location)

	if err := s.reminderRepo.ReplaceForBaby(ctx, baby.MotherID, baby.ID, reminders); err != nil {
		log.WithError(err).Error("Failed to replace reminders")
		return nil, fmt.Errorf("failed to replace reminders: %w", err)
	}

	log.WithField("count", len(reminders)).Info("Reminders regenerated")
	return reminders, nil
}

// BuildReminders derives a weekly and a daily reminder for every dose still in the future at now.
// Reminders sharing a (mother, baby, vaccine, vaccination date, type) key are collapsed into one.
func BuildReminders(motherID, babyID uuid.UUID, birthDate time.Time, entries []schedule.Entry, now time.Time, loc *time.Location) []*reminder.Reminder {
	upcoming := schedule.Project(birthDate, entries, now)

	seen := make(map[reminder.Key]struct{}, len(upcoming)*len(reminder.Types))
	reminders := make([]*reminder.Reminder, 0, len(upcoming)*len(reminder.Types))
	for _, dd := range upcoming {
		for _, t := range reminder.Types {
			rem := &reminder.Reminder{
				Type:            t,
				MotherID:        motherID,
				BabyID:          babyID,
				Vaccine:         dd.Entry.Vaccine,
				VaccinationDate: dd.VaccinationDate,
				ScheduledAt:     reminder.ScheduleAt(dd.VaccinationDate, t, loc),
				Sent:            false,
			}
			if _, dup := seen[rem.Key()]; dup {
				continue
			}
			seen[rem.Key()] = struct{}{}
			reminders = append(reminders, rem)
		}
	}
	return reminders
}
