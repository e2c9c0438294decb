// internal/domain/reminder/reminder.go
package reminder

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is one pending or delivered email notice for a single vaccine dose.
// Corresponds to the 'reminders' table.
type Reminder struct {
	ID              int64
	Type            Type
	MotherID        uuid.UUID
	BabyID          uuid.UUID
	Vaccine         string
	VaccinationDate time.Time // calendar date at UTC midnight
	ScheduledAt     time.Time // moment the sweep may pick the row up
	Sent            bool
	CreatedAt       time.Time
}

// Key is the identity enforced unique among unsent reminders.
type Key struct {
	MotherID        uuid.UUID
	BabyID          uuid.UUID
	Vaccine         string
	VaccinationDate time.Time
	Type            Type
}

func (r Reminder) Key() Key {
	return Key{
		MotherID:        r.MotherID,
		BabyID:          r.BabyID,
		Vaccine:         r.Vaccine,
		VaccinationDate: r.VaccinationDate.UTC(),
		Type:            r.Type,
	}
}

// Due is a reminder selected by a sweep, joined to its recipient.
type Due struct {
	Reminder
	MotherName  string
	MotherEmail string
	BabyName    string
}

// ReminderHour is the local wall-clock hour every reminder is scheduled at.
const ReminderHour = 14

// ScheduleAt returns the send time for a reminder of type t about a dose due on vaccinationDate:
// the lead time earlier, at 14:00 in loc.
func ScheduleAt(vaccinationDate time.Time, t Type, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := vaccinationDate.Date()
	return time.Date(y, m, d-t.LeadDays(), ReminderHour, 0, 0, 0, loc)
}
