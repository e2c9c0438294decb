// internal/app/baby_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vaccination_tracker/internal/domain/mother"
	"vaccination_tracker/internal/domain/reminder"
	"vaccination_tracker/internal/domain/schedule"
	idb "vaccination_tracker/internal/infra/database"
)

const birthDateLayout = "2006-01-02"

// BabyService handles the profile actions that change a baby's reminder set.
type BabyService struct {
	motherRepo   mother.Repository
	scheduleRepo schedule.Repository
	reminderRepo reminder.Repository
	reminders    *ReminderService
	logger       *logrus.Entry
}

func NewBabyService(
	mr mother.Repository,
	sr schedule.Repository,
	rr reminder.Repository,
	reminders *ReminderService,
	logger *logrus.Entry,
) *BabyService {
	return &BabyService{
		motherRepo:   mr,
		scheduleRepo: sr,
		reminderRepo: rr,
		reminders:    reminders,
		logger:       logger.WithField("component", "baby_service"),
	}
}

// ParseBirthDate reads a YYYY-MM-DD date as UTC midnight.
func ParseBirthDate(s string) (time.Time, error) {
	d, err := time.Parse(birthDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidBirthDate
	}
	return d, nil
}

// AddBaby registers a baby for the mother and schedules its reminders.
func (s *BabyService) AddBaby(ctx context.Context, motherID uuid.UUID, name, dateOfBirth, gender string, now time.Time) (*mother.Baby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidBabyName
	}
	dob, err := ParseBirthDate(dateOfBirth)
	if err != nil {
		return nil, err
	}
	g, ok := mother.ParseGender(gender)
	if !ok {
		return nil, ErrInvalidGender
	}

	if _, err := s.motherRepo.GetByID(ctx, motherID); err != nil {
		if errors.Is(err, idb.ErrMotherNotFound) {
			return nil, ErrMotherNotFound
		}
		return nil, fmt.Errorf("failed to load mother: %w", err)
	}

	baby := &mother.Baby{
		MotherID:    motherID,
		Name:        name,
		DateOfBirth: dob,
		Gender:      g,
	}
	if err := s.motherRepo.AddBaby(ctx, baby); err != nil {
		switch {
		case errors.Is(err, idb.ErrDuplicateBabyName):
			return nil, ErrDuplicateBabyName
		case errors.Is(err, idb.ErrMotherNotFound):
			return nil, ErrMotherNotFound
		}
		return nil, fmt.Errorf("failed to add baby: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"mother_id": motherID, "baby_id": baby.ID}).Info("Baby added")

	if _, err := s.reminders.Materialize(ctx, baby, now); err != nil {
		return nil, err
	}
	return baby, nil
}

// CorrectBirthDate stores a new birth date and recomputes the baby's reminders from it.
func (s *BabyService) CorrectBirthDate(ctx context.Context, motherID, babyID uuid.UUID, birthDate string, now time.Time) (*mother.Baby, error) {
	dob, err := ParseBirthDate(birthDate)
	if err != nil {
		return nil, err
	}

	baby, err := s.getBaby(ctx, motherID, babyID)
	if err != nil {
		return nil, err
	}

	if err := s.motherRepo.UpdateBirthDate(ctx, motherID, babyID, dob); err != nil {
		if errors.Is(err, idb.ErrBabyNotFound) {
			return nil, ErrBabyNotFound
		}
		return nil, fmt.Errorf("failed to update birth date: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"baby_id": babyID,
		"from":    baby.DateOfBirth.Format(birthDateLayout),
		"to":      dob.Format(birthDateLayout),
	}).Info("Birth date corrected")
	baby.DateOfBirth = dob

	if _, err := s.reminders.Materialize(ctx, baby, now); err != nil {
		return nil, err
	}
	return baby, nil
}

// ListBabies returns the mother's babies, oldest record first.
func (s *BabyService) ListBabies(ctx context.Context, motherID uuid.UUID) ([]*mother.Baby, error) {
	if _, err := s.motherRepo.GetByID(ctx, motherID); err != nil {
		if errors.Is(err, idb.ErrMotherNotFound) {
			return nil, ErrMotherNotFound
		}
		return nil, fmt.Errorf("failed to load mother: %w", err)
	}
	babies, err := s.motherRepo.ListBabies(ctx, motherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list babies: %w", err)
	}
	return babies, nil
}

// ProjectedSchedule returns every schedule entry with its due date for the baby, past doses included.
func (s *BabyService) ProjectedSchedule(ctx context.Context, motherID, babyID uuid.UUID) ([]schedule.DueDate, error) {
	baby, err := s.getBaby(ctx, motherID, babyID)
	if err != nil {
		return nil, err
	}
	entries, err := s.scheduleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vaccination schedule: %w", err)
	}
	return schedule.DueDates(baby.DateOfBirth, entries), nil
}

func (s *BabyService) ListReminders(ctx context.Context, motherID, babyID uuid.UUID) ([]*reminder.Reminder, error) {
	if _, err := s.getBaby(ctx, motherID, babyID); err != nil {
		return nil, err
	}
	reminders, err := s.reminderRepo.ListByBaby(ctx, motherID, babyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// ListSchedule returns the reference schedule, narrowed to one age descriptor when age is not empty.
func (s *BabyService) ListSchedule(ctx context.Context, age string) ([]schedule.Entry, error) {
	var (
		entries []schedule.Entry
		err     error
	)
	if strings.TrimSpace(age) == "" {
		entries, err = s.scheduleRepo.List(ctx)
	} else {
		entries, err = s.scheduleRepo.ListByAge(ctx, age)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vaccination schedule: %w", err)
	}
	return entries, nil
}

func (s *BabyService) getBaby(ctx context.Context, motherID, babyID uuid.UUID) (*mother.Baby, error) {
	baby, err := s.motherRepo.GetBaby(ctx, motherID, babyID)
	if err != nil {
		if errors.Is(err, idb.ErrBabyNotFound) {
			return nil, ErrBabyNotFound
		}
		return nil, fmt.Errorf("failed to load baby: %w", err)
	}
	return baby, nil
}
