// internal/infra/database/postgres_mother_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vaccination_tracker/internal/domain/mother"
)

var ErrMotherNotFound = fmt.Errorf("mother not found")
var ErrBabyNotFound = fmt.Errorf("baby not found")
var ErrDuplicateBabyName = fmt.Errorf("baby with this name already exists for the mother")

// dateLayout is how calendar dates are bound to DATE columns, so the session time zone cannot shift them.
const dateLayout = "2006-01-02"

const uniqueViolation = pq.ErrorCode("23505")

type PostgresMotherRepository struct {
	db *sql.DB
}

func NewPostgresMotherRepository(db *sql.DB) *PostgresMotherRepository {
	return &PostgresMotherRepository{db: db}
}

func (r *PostgresMotherRepository) GetByID(ctx context.Context, id uuid.UUID) (*mother.Mother, error) {
	query := `SELECT id, email, full_name, phone_number, must_reset_password, created_at
               FROM mothers WHERE id = $1`
	m := mother.Mother{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Email, &m.FullName, &m.PhoneNumber, &m.MustResetPassword, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMotherNotFound
		}
		return nil, fmt.Errorf("error getting mother by ID: %w", err)
	}
	return &m, nil
}

func (r *PostgresMotherRepository) GetBaby(ctx context.Context, motherID, babyID uuid.UUID) (*mother.Baby, error) {
	query := `SELECT id, mother_id, name, date_of_birth, gender, created_at
               FROM babies WHERE id = $1 AND mother_id = $2`
	b := mother.Baby{}
	err := r.db.QueryRowContext(ctx, query, babyID, motherID).Scan(&b.ID, &b.MotherID, &b.Name, &b.DateOfBirth, &b.Gender, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBabyNotFound
		}
		return nil, fmt.Errorf("error getting baby: %w", err)
	}
	return &b, nil
}

func (r *PostgresMotherRepository) ListBabies(ctx context.Context, motherID uuid.UUID) ([]*mother.Baby, error) {
	query := `SELECT id, mother_id, name, date_of_birth, gender, created_at
               FROM babies WHERE mother_id = $1 ORDER BY created_at, name`
	rows, err := r.db.QueryContext(ctx, query, motherID)
	if err != nil {
		return nil, fmt.Errorf("error querying babies: %w", err)
	}
	defer rows.Close()

	babies := make([]*mother.Baby, 0)
	for rows.Next() {
		b := mother.Baby{}
		if err := rows.Scan(&b.ID, &b.MotherID, &b.Name, &b.DateOfBirth, &b.Gender, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning baby row: %w", err)
		}
		babies = append(babies, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating baby rows: %w", err)
	}
	return babies, nil
}

func (r *PostgresMotherRepository) AddBaby(ctx context.Context, baby *mother.Baby) error {
	if baby.ID == uuid.Nil {
		baby.ID = uuid.New()
	}
	query := `INSERT INTO babies (id, mother_id, name, date_of_birth, gender)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, baby.ID, baby.MotherID, baby.Name, baby.DateOfBirth.Format(dateLayout), baby.Gender).Scan(&baby.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch {
			case pqErr.Code == uniqueViolation && pqErr.Constraint == "unique_baby_name_per_mother":
				return ErrDuplicateBabyName
			case pqErr.Code.Name() == "foreign_key_violation":
				return ErrMotherNotFound
			}
		}
		return fmt.Errorf("error creating baby: %w", err)
	}
	return nil
}

func (r *PostgresMotherRepository) UpdateBirthDate(ctx context.Context, motherID, babyID uuid.UUID, dateOfBirth time.Time) error {
	query := `UPDATE babies SET date_of_birth = $1 WHERE id = $2 AND mother_id = $3`
	res, err := r.db.ExecContext(ctx, query, dateOfBirth.Format(dateLayout), babyID, motherID)
	if err != nil {
		return fmt.Errorf("error updating baby birth date: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrBabyNotFound
	}
	return nil
}
