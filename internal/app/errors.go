package app

import "fmt"

// Application-level errors. The HTTP and bot layers map these to user-facing responses.
var (
	ErrMotherNotFound    = fmt.Errorf("mother not found")
	ErrBabyNotFound      = fmt.Errorf("baby not found")
	ErrDuplicateBabyName = fmt.Errorf("a baby with this name already exists")

	ErrInvalidBabyName  = fmt.Errorf("baby name is required")
	ErrInvalidBirthDate = fmt.Errorf("birth date must be a valid date in YYYY-MM-DD format")
	ErrInvalidGender    = fmt.Errorf("gender must be male or female")

	ErrSweepInProgress = fmt.Errorf("a sweep of this type is already running")
)
