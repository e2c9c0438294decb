// internal/infra/database/postgres_schedule_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vaccination_tracker/internal/domain/schedule"
)

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) List(ctx context.Context) ([]schedule.Entry, error) {
	query := `SELECT id, age, vaccine, protection_against FROM vaccination_schedules ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying vaccination schedule: %w", err)
	}
	defer rows.Close()
	return scanScheduleEntries(rows)
}

// ListByAge matches the descriptor case-insensitively, ignoring surrounding spaces.
func (r *PostgresScheduleRepository) ListByAge(ctx context.Context, age string) ([]schedule.Entry, error) {
	query := `SELECT id, age, vaccine, protection_against FROM vaccination_schedules
               WHERE LOWER(age) = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, strings.ToLower(strings.TrimSpace(age)))
	if err != nil {
		return nil, fmt.Errorf("error querying vaccination schedule by age: %w", err)
	}
	defer rows.Close()
	return scanScheduleEntries(rows)
}

func scanScheduleEntries(rows *sql.Rows) ([]schedule.Entry, error) {
	entries := make([]schedule.Entry, 0)
	for rows.Next() {
		var e schedule.Entry
		if err := rows.Scan(&e.ID, &e.Age, &e.Vaccine, &e.ProtectionAgainst); err != nil {
			return nil, fmt.Errorf("error scanning schedule row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule rows: %w", err)
	}
	return entries, nil
}
