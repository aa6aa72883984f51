package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rushledger/internal/attendance/models"
	"rushledger/internal/platform/postgres"
	"rushledger/pkg/platform/sentinel"
)

// Postgres persists attendance rows; the attendance_event_user_key unique
// index carries the pair invariant.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const attendanceColumns = `id, event_id, user_id, status, rsvp_status,
	checked_in_at, checked_in_by, notes, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, att *models.Attendance) error {
	query := `
		INSERT INTO attendance (id, event_id, user_id, status, rsvp_status,
			checked_in_at, checked_in_by, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		att.ID, att.EventID, att.UserID, att.Status, rsvpValue(att.RSVPStatus),
		att.CheckedInAt, att.CheckedInBy, att.Notes, att.CreatedAt, att.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, att *models.Attendance) error {
	query := `
		UPDATE attendance
		SET status = $2, rsvp_status = $3, checked_in_at = $4, checked_in_by = $5, notes = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		att.ID, att.Status, rsvpValue(att.RSVPStatus), att.CheckedInAt, att.CheckedInBy, att.Notes,
	)
	if err != nil {
		return fmt.Errorf("update attendance: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update attendance: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) FindByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Attendance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE event_id = $1 AND user_id = $2`,
		eventID, userID)
	att, err := scanAttendance(row)
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", postgres.MapError(err))
	}
	return att, nil
}

func (s *Postgres) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Attendance, error) {
	return s.list(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE event_id = $1 ORDER BY created_at`, eventID)
}

func (s *Postgres) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Attendance, error) {
	return s.list(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*models.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (*models.Attendance, error) {
	var a models.Attendance
	var rsvp sql.NullString
	err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.Status, &rsvp,
		&a.CheckedInAt, &a.CheckedInBy, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rsvp.Valid {
		r := models.RSVPStatus(rsvp.String)
		a.RSVPStatus = &r
	}
	return &a, nil
}

func rsvpValue(rsvp *models.RSVPStatus) any {
	if rsvp == nil {
		return nil
	}
	return string(*rsvp)
}
