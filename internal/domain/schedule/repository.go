// internal/domain/schedule/repository.go
package schedule

import "context"

// Repository gives read-only access to the reference vaccination schedule.
type Repository interface {
	List(ctx context.Context) ([]Entry, error) // ordered by ID
	ListByAge(ctx context.Context, age string) ([]Entry, error)
}
