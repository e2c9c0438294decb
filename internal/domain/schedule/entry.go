// internal/domain/schedule/entry.go
package schedule

import "time"

// Entry is one row of the reference vaccination schedule.
// Corresponds to the 'vaccination_schedules' table.
type Entry struct {
	ID                int32
	Age               string // free-text age descriptor, see ParseAgeToDays
	Vaccine           string
	ProtectionAgainst string
}

// DueDate is a schedule entry projected onto a concrete birth date.
type DueDate struct {
	Entry           Entry
	VaccinationDate time.Time // calendar date at UTC midnight
}

// DueDates projects every entry onto birthDate, keeping the input order.
// Fractional day offsets are truncated.
func DueDates(birthDate time.Time, entries []Entry) []DueDate {
	y, m, d := birthDate.Date()
	dueDates := make([]DueDate, 0, len(entries))
	for _, e := range entries {
		offset := int(ParseAgeToDays(e.Age))
		dueDates = append(dueDates, DueDate{
			Entry:           e,
			VaccinationDate: time.Date(y, m, d+offset, 0, 0, 0, 0, time.UTC),
		})
	}
	return dueDates
}

// Project is DueDates without the doses that are already due at now.
// A dose whose date equals now is considered past.
func Project(birthDate time.Time, entries []Entry, now time.Time) []DueDate {
	all := DueDates(birthDate, entries)
	upcoming := all[:0]
	for _, dd := range all {
		if !dd.VaccinationDate.After(now) {
			continue
		}
		upcoming = append(upcoming, dd)
	}
	return upcoming
}
