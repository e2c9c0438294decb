// internal/domain/mother/mother.go
package mother

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mother is a registered account holder who receives reminders.
// Corresponds to the 'mothers' table.
type Mother struct {
	ID                uuid.UUID
	Email             string
	FullName          string
	PhoneNumber       string
	MustResetPassword bool
	CreatedAt         time.Time
}

// Baby belongs to exactly one mother. Name is unique per mother.
type Baby struct {
	ID          uuid.UUID
	MotherID    uuid.UUID
	Name        string
	DateOfBirth time.Time // calendar date at UTC midnight
	Gender      Gender
	CreatedAt   time.Time
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts "male" or "female" in any case.
func ParseGender(s string) (Gender, bool) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale:
		return g, true
	default:
		return "", false
	}
}
