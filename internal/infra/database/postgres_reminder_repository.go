// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array

	"vaccination_tracker/internal/domain/reminder"
)

var ErrDuplicateReminder = fmt.Errorf("duplicate unsent reminder (mother_id, baby_id, vaccine, vaccination_date, type)")

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

func (r *PostgresReminderRepository) ReplaceForBaby(ctx context.Context, motherID, babyID uuid.UUID, reminders []*reminder.Reminder) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for reminder replace: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if _, err := txn.ExecContext(ctx, `DELETE FROM reminders WHERE mother_id = $1 AND baby_id = $2`, motherID, babyID); err != nil {
		return fmt.Errorf("error deleting reminders for baby %s: %w", babyID, err)
	}

	if len(reminders) > 0 {
		stmt, err := txn.PrepareContext(ctx, `INSERT INTO reminders (type, mother_id, baby_id, vaccine, vaccination_date, scheduled_at, sent)
                                             VALUES ($1, $2, $3, $4, $5, $6, $7)
                                             RETURNING id, created_at`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement for reminder insert: %w", err)
		}
		defer stmt.Close()

		for _, rem := range reminders {
			err := stmt.QueryRowContext(ctx, rem.Type, rem.MotherID, rem.BabyID, rem.Vaccine,
				rem.VaccinationDate.Format(dateLayout), rem.ScheduledAt, rem.Sent).Scan(&rem.ID, &rem.CreatedAt)
			if err != nil {
				var pqErr *pq.Error
				if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
					return fmt.Errorf("error inserting %s reminder for %s: %w", rem.Type, rem.Vaccine, ErrDuplicateReminder)
				}
				return fmt.Errorf("error inserting %s reminder for %s: %w", rem.Type, rem.Vaccine, err)
			}
		}
	}

	return txn.Commit()
}

func (r *PostgresReminderRepository) ListByBaby(ctx context.Context, motherID, babyID uuid.UUID) ([]*reminder.Reminder, error) {
	query := `SELECT id, type, mother_id, baby_id, vaccine, vaccination_date, scheduled_at, sent, created_at
               FROM reminders
               WHERE mother_id = $1 AND baby_id = $2
               ORDER BY scheduled_at, id`
	rows, err := r.db.QueryContext(ctx, query, motherID, babyID)
	if err != nil {
		return nil, fmt.Errorf("error querying reminders by baby: %w", err)
	}
	defer rows.Close()

	reminders := make([]*reminder.Reminder, 0)
	for rows.Next() {
		rem := reminder.Reminder{}
		if err := rows.Scan(&rem.ID, &rem.Type, &rem.MotherID, &rem.BabyID, &rem.Vaccine,
			&rem.VaccinationDate, &rem.ScheduledAt, &rem.Sent, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder row: %w", err)
		}
		reminders = append(reminders, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder rows: %w", err)
	}
	return reminders, nil
}

func (r *PostgresReminderRepository) ListDue(ctx context.Context, t reminder.Type, now time.Time) ([]*reminder.Due, error) {
	query := `SELECT r.id, r.type, r.mother_id, r.baby_id, r.vaccine, r.vaccination_date, r.scheduled_at, r.sent, r.created_at,
                      m.full_name, m.email, b.name
               FROM reminders r
               JOIN mothers m ON m.id = r.mother_id
               JOIN babies b ON b.id = r.baby_id
               WHERE r.type = $1 AND r.sent = FALSE AND r.scheduled_at <= $2
               ORDER BY r.scheduled_at, r.id`
	rows, err := r.db.QueryContext(ctx, query, t, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due %s reminders: %w", t, err)
	}
	defer rows.Close()

	due := make([]*reminder.Due, 0)
	for rows.Next() {
		d := reminder.Due{}
		if err := rows.Scan(&d.ID, &d.Type, &d.MotherID, &d.BabyID, &d.Vaccine,
			&d.VaccinationDate, &d.ScheduledAt, &d.Sent, &d.CreatedAt,
			&d.MotherName, &d.MotherEmail, &d.BabyName); err != nil {
			return nil, fmt.Errorf("error scanning due reminder row: %w", err)
		}
		due = append(due, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due reminder rows: %w", err)
	}
	return due, nil
}

// MarkSent only touches rows that are still unsent, so a row is flipped at most once.
func (r *PostgresReminderRepository) MarkSent(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `UPDATE reminders SET sent = TRUE WHERE id = ANY($1) AND sent = FALSE`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("error marking reminders sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}

func (r *PostgresReminderRepository) CountPending(ctx context.Context) (map[reminder.Type]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM reminders WHERE sent = FALSE GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("error counting pending reminders: %w", err)
	}
	defer rows.Close()

	counts := make(map[reminder.Type]int, len(reminder.Types))
	for _, t := range reminder.Types {
		counts[t] = 0
	}
	for rows.Next() {
		var t reminder.Type
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("error scanning pending count row: %w", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending count rows: %w", err)
	}
	return counts, nil
}
