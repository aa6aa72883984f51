package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rushledger/internal/feedback/models"
	"rushledger/internal/platform/postgres"
)

// Postgres persists feedback entries; tags ride in a text[] column.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const feedbackColumns = `id, event_id, author_id, candidate_id, rating, comment,
	tags, is_anonymous, is_private, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, fb *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, event_id, author_id, candidate_id, rating, comment,
			tags, is_anonymous, is_private, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		fb.ID, fb.EventID, fb.AuthorID, fb.CandidateID, fb.Rating, fb.Comment,
		pq.Array(fb.Tags), fb.IsAnonymous, fb.IsPrivate, fb.CreatedAt, fb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) ListForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*models.Feedback, error) {
	return s.list(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE candidate_id = $1 ORDER BY created_at`, candidateID)
}

func (s *Postgres) ListForAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Feedback, error) {
	return s.list(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE author_id = $1 ORDER BY created_at`, authorID)
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*models.Feedback
	for rows.Next() {
		var f models.Feedback
		err := rows.Scan(&f.ID, &f.EventID, &f.AuthorID, &f.CandidateID, &f.Rating,
			&f.Comment, pq.Array(&f.Tags), &f.IsAnonymous, &f.IsPrivate,
			&f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
