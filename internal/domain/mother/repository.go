// internal/domain/mother/repository.go
package mother

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the profile operations the reminder engine relies on.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Mother, error)
	// GetBaby fails with a not-found error when the baby does not belong to motherID.
	GetBaby(ctx context.Context, motherID, babyID uuid.UUID) (*Baby, error)
	ListBabies(ctx context.Context, motherID uuid.UUID) ([]*Baby, error)
	AddBaby(ctx context.Context, baby *Baby) error // sets ID and CreatedAt
	UpdateBirthDate(ctx context.Context, motherID, babyID uuid.UUID, dateOfBirth time.Time) error
}
