package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rushledger/internal/dues/models"
	"rushledger/internal/platform/postgres"
	"rushledger/pkg/platform/sentinel"
)

// Postgres persists dues payments.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const paymentColumns = `id, user_id, amount_cents, payment_type, payment_method,
	status, due_date, paid_at, semester, reference_number, notes, recorded_by,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO dues_payments (id, user_id, amount_cents, payment_type, payment_method,
			status, due_date, paid_at, semester, reference_number, notes, recorded_by,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.AmountCents, p.Type, methodValue(p.Method), p.Status,
		p.DueDate, p.PaidAt, p.Semester, p.ReferenceNumber, p.Notes, p.RecordedBy,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, p *models.Payment) error {
	query := `
		UPDATE dues_payments
		SET amount_cents = $2, payment_type = $3, payment_method = $4, status = $5,
		    due_date = $6, paid_at = $7, semester = $8, reference_number = $9, notes = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		p.ID, p.AmountCents, p.Type, methodValue(p.Method), p.Status,
		p.DueDate, p.PaidAt, p.Semester, p.ReferenceNumber, p.Notes,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update payment: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM dues_payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", postgres.MapError(err))
	}
	return p, nil
}

func (s *Postgres) ListOutstanding(ctx context.Context) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments
		WHERE status IN ('NOT_PAID', 'PARTIAL', 'OVERDUE') ORDER BY due_date`
	return s.list(ctx, query)
}

func (s *Postgres) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM dues_payments WHERE user_id = $1 ORDER BY due_date`
	return s.list(ctx, query, userID)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var method sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.AmountCents, &p.Type, &method, &p.Status,
		&p.DueDate, &p.PaidAt, &p.Semester, &p.ReferenceNumber, &p.Notes,
		&p.RecordedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if method.Valid {
		m := models.PaymentMethod(method.String)
		p.Method = &m
	}
	return &p, nil
}

func methodValue(m *models.PaymentMethod) any {
	if m == nil {
		return nil
	}
	return string(*m)
}
