package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rushledger/internal/ballot/models"
	"rushledger/internal/platform/postgres"
	"rushledger/pkg/platform/sentinel"
)

// Postgres persists rounds and ballots. The unique index on
// (round_id, voter_id, candidate_id) arbitrates concurrent casts: exactly one
// INSERT wins, every loser surfaces sentinel.ErrConflict and takes the
// update-in-place path at the service layer.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateRound(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO voting_rounds (id, name, event_id, status, opened_at, closed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		round.ID, round.Name, round.EventID, round.Status, round.OpenedAt,
		round.ClosedAt, round.CreatedAt, round.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", postgres.MapError(err))
	}
	return nil
}

func (s *Postgres) UpdateRound(ctx context.Context, round *models.Round) error {
	query := `UPDATE voting_rounds SET status = $2, closed_at = $3 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, round.ID, round.Status, round.ClosedAt)
	if err != nil {
		return fmt.Errorf("update round: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update round: %w", sentinel.ErrNotFound)
	}
	return nil
}

const roundColumns = `id, name, event_id, status, opened_at, closed_at, created_at, updated_at`

func (s *Postgres) FindRound(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM voting_rounds WHERE id = $1`, id)
	round, err := scanRound(row)
	if err != nil {
		return nil, fmt.Errorf("find round: %w", postgres.MapError(err))
	}
	return round, nil
}

func (s *Postgres) ListRounds(ctx context.Context) ([]*models.Round, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roundColumns+` FROM voting_rounds ORDER BY opened_at`)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, round)
	}
	return out, rows.Err()
}

const ballotColumns = `id, round_id, event_id, voter_id, candidate_id, vote_type,
	vote_value, notes, is_anonymous, created_at, updated_at`

// CreateBallot inserts only while the round row still reads OPEN, so a
// CloseRound committing between the service's status check and the insert
// cannot let a first cast land in a closed round.
func (s *Postgres) CreateBallot(ctx context.Context, ballot *models.Ballot) error {
	query := `
		INSERT INTO ballots (id, round_id, event_id, voter_id, candidate_id, vote_type,
			vote_value, notes, is_anonymous, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		WHERE EXISTS (SELECT 1 FROM voting_rounds WHERE id = $2 AND status = 'OPEN')
	`
	res, err := s.db.ExecContext(ctx, query,
		ballot.ID, ballot.RoundID, ballot.EventID, ballot.VoterID, ballot.CandidateID,
		ballot.Type, ballot.Value, ballot.Notes, ballot.IsAnonymous,
		ballot.CreatedAt, ballot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ballot: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insert ballot: %w", sentinel.ErrInvalidState)
	}
	return nil
}

func (s *Postgres) UpdateBallot(ctx context.Context, ballot *models.Ballot) error {
	query := `
		UPDATE ballots
		SET vote_type = $2, vote_value = $3, notes = $4, is_anonymous = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		ballot.ID, ballot.Type, ballot.Value, ballot.Notes, ballot.IsAnonymous,
	)
	if err != nil {
		return fmt.Errorf("update ballot: %w", postgres.MapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update ballot: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *Postgres) FindBallot(ctx context.Context, roundID, voterID, candidateID uuid.UUID) (*models.Ballot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ballotColumns+` FROM ballots WHERE round_id = $1 AND voter_id = $2 AND candidate_id = $3`,
		roundID, voterID, candidateID)
	ballot, err := scanBallot(row)
	if err != nil {
		return nil, fmt.Errorf("find ballot: %w", postgres.MapError(err))
	}
	return ballot, nil
}

func (s *Postgres) ListForVoter(ctx context.Context, voterID uuid.UUID) ([]*models.Ballot, error) {
	return s.list(ctx, `SELECT `+ballotColumns+` FROM ballots WHERE voter_id = $1 ORDER BY created_at`, voterID)
}

func (s *Postgres) ListForRound(ctx context.Context, roundID uuid.UUID) ([]*models.Ballot, error) {
	return s.list(ctx, `SELECT `+ballotColumns+` FROM ballots WHERE round_id = $1 ORDER BY created_at`, roundID)
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.Ballot, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list ballots: %w", postgres.MapError(err))
	}
	defer rows.Close()

	var out []*models.Ballot
	for rows.Next() {
		ballot, err := scanBallot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ballot)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*models.Round, error) {
	var r models.Round
	err := row.Scan(&r.ID, &r.Name, &r.EventID, &r.Status, &r.OpenedAt,
		&r.ClosedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanBallot(row rowScanner) (*models.Ballot, error) {
	var b models.Ballot
	err := row.Scan(&b.ID, &b.RoundID, &b.EventID, &b.VoterID, &b.CandidateID,
		&b.Type, &b.Value, &b.Notes, &b.IsAnonymous, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
