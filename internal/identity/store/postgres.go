package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rushledger/internal/identity/models"
	"rushledger/internal/platform/postgres"
	"rushledger/pkg/platform/sentinel"
)

// Postgres persists users in PostgreSQL. Uniqueness of auth_id and email is
// enforced by the unique indexes in the users migration; violations surface
// as sentinel.ErrConflict through postgres.MapError.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const userColumns = `id, auth_id, email, first_name, last_name, phone, role,
	candidate_stage, is_active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, auth_id, email, first_name, last_name, phone, role, candidate_stage, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.AuthID, user.Email, user.FirstName, user.LastName,
		user.Phone, user.Role, stageValue(user.CandidateStage), user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, phone = $5,
		    role = $6, candidate_stage = $7, is_active = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Phone,
		user.Role, stageValue(user.CandidateStage), user.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", postgres.MapError(err))
	}
	return requireRow(res)
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Postgres) FindByAuthID(ctx context.Context, authID string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE auth_id = $1`, authID)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (s *Postgres) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND is_active ORDER BY last_name, first_name`
	rows, err := s.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", postgres.MapError(err))
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var stage sql.NullString
	err := row.Scan(&u.ID, &u.AuthID, &u.Email, &u.FirstName, &u.LastName,
		&u.Phone, &u.Role, &stage, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if stage.Valid {
		s := models.Stage(stage.String)
		u.CandidateStage = &s
	}
	return &u, nil
}

func stageValue(stage *models.Stage) any {
	if stage == nil {
		return nil
	}
	return string(*stage)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update user: %w", sentinel.ErrNotFound)
	}
	return nil
}
