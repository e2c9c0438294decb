// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for reminders.
type Repository interface {
	// ReplaceForBaby deletes every reminder of the (mother, baby) pair, whatever its type or
	// sent state, and inserts reminders. Both steps commit together.
	ReplaceForBaby(ctx context.Context, motherID, babyID uuid.UUID, reminders []*Reminder) error
	ListByBaby(ctx context.Context, motherID, babyID uuid.UUID) ([]*Reminder, error)
	// ListDue returns unsent reminders of type t with scheduled_at <= now, oldest first.
	ListDue(ctx context.Context, t Type, now time.Time) ([]*Due, error)
	// MarkSent flags the given reminders as sent and reports how many rows changed.
	MarkSent(ctx context.Context, ids []int64) (int64, error)
	CountPending(ctx context.Context) (map[Type]int, error)
}
