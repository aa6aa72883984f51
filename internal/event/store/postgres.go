package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rushledger/internal/event/models"
	"rushledger/internal/platform/postgres"
	"rushledger/pkg/platform/sentinel"
)

// Postgres persists events in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const eventColumns = `id, title, description, event_type, start_time, end_time,
	location, is_mandatory, is_voting, max_capacity, created_by, is_active,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, title, description, event_type, start_time, end_time, location,
			is_mandatory, is_voting, max_capacity, created_by, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Type, event.StartTime,
		event.EndTime, event.Location, event.IsMandatory, event.IsVoting,
		event.MaxCapacity, event.CreatedBy, event.IsActive, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, event_type = $4, start_time = $5, end_time = $6,
		    location = $7, is_mandatory = $8, is_voting = $9, max_capacity = $10, is_active = $11
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.Type, event.StartTime,
		event.EndTime, event.Location, event.IsMandatory, event.IsVoting,
		event.MaxCapacity, event.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update event: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("find event: %w", postgres.MapError(err))
	}
	return event, nil
}

func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active`
	args := []any{}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND event_type = $%d", len(args))
	}
	if filter.After != nil {
		args = append(args, *filter.After)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	query += " ORDER BY start_time"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Type, &e.StartTime,
		&e.EndTime, &e.Location, &e.IsMandatory, &e.IsVoting, &e.MaxCapacity,
		&e.CreatedBy, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
