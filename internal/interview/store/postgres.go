package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rushledger/internal/interview/models"
	"rushledger/internal/platform/postgres"
	"rushledger/pkg/platform/sentinel"
)

// Postgres persists interviews. Questions travel as a JSONB document;
// strengths and concerns as text arrays.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const interviewColumns = `id, event_id, interviewer_id, candidate_id, interview_date,
	questions, notes, overall_rating, recommendation, strengths, concerns,
	is_complete, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, iv *models.Interview) error {
	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	query := `
		INSERT INTO interviews (id, event_id, interviewer_id, candidate_id, interview_date,
			questions, notes, overall_rating, recommendation, strengths, concerns,
			is_complete, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = s.db.ExecContext(ctx, query,
		iv.ID, iv.EventID, iv.InterviewerID, iv.CandidateID, iv.InterviewDate,
		questions, iv.Notes, iv.OverallRating, recValue(iv.Recommendation),
		pq.Array(iv.Strengths), pq.Array(iv.Concerns),
		iv.IsComplete, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, iv *models.Interview) error {
	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	query := `
		UPDATE interviews
		SET interview_date = $2, questions = $3, notes = $4, overall_rating = $5,
		    recommendation = $6, strengths = $7, concerns = $8, is_complete = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		iv.ID, iv.InterviewDate, questions, iv.Notes, iv.OverallRating,
		recValue(iv.Recommendation), pq.Array(iv.Strengths), pq.Array(iv.Concerns),
		iv.IsComplete,
	)
	if err != nil {
		return fmt.Errorf("update interview: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update interview: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if err != nil {
		return nil, fmt.Errorf("find interview: %w", postgres.MapError(err))
	}
	return iv, nil
}

func (s *Postgres) ListForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews
		WHERE candidate_id = $1 ORDER BY interview_date`
	return s.list(ctx, query, candidateID)
}

func (s *Postgres) ListForInterviewer(ctx context.Context, interviewerID uuid.UUID) ([]*models.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews
		WHERE interviewer_id = $1 ORDER BY interview_date`
	return s.list(ctx, query, interviewerID)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Interview, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func scanInterview(row rowScanner) (*models.Interview, error) {
	var iv models.Interview
	var questions []byte
	var rec sql.NullString
	err := row.Scan(&iv.ID, &iv.EventID, &iv.InterviewerID, &iv.CandidateID,
		&iv.InterviewDate, &questions, &iv.Notes, &iv.OverallRating, &rec,
		pq.Array(&iv.Strengths), pq.Array(&iv.Concerns),
		&iv.IsComplete, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &iv.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if rec.Valid {
		r := models.Recommendation(rec.String)
		iv.Recommendation = &r
	}
	return &iv, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func recValue(r *models.Recommendation) any {
	if r == nil {
		return nil
	}
	return string(*r)
}
