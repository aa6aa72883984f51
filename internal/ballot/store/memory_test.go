package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"rushledger/internal/ballot/models"
	"rushledger/pkg/platform/sentinel"
)

func seedRound(t *testing.T, s *InMemory, status models.RoundStatus) *models.Round {
	t.Helper()
	now := time.Now().UTC()
	round := &models.Round{
		ID:        uuid.New(),
		Name:      uuid.NewString(),
		Status:    status,
		OpenedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateRound(context.Background(), round))
	return round
}

func ballotFor(roundID uuid.UUID) *models.Ballot {
	now := time.Now().UTC()
	return &models.Ballot{
		ID:          uuid.New(),
		RoundID:     roundID,
		VoterID:     uuid.New(),
		CandidateID: uuid.New(),
		Type:        models.VoteBid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateBallotRoundGuard(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	open := seedRound(t, s, models.RoundOpen)
	require.NoError(t, s.CreateBallot(ctx, ballotFor(open.ID)))

	closed := seedRound(t, s, models.RoundClosed)
	err := s.CreateBallot(ctx, ballotFor(closed.ID))
	require.ErrorIs(t, err, sentinel.ErrInvalidState)

	err = s.CreateBallot(ctx, ballotFor(uuid.New()))
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestCreateBallotAfterClose(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	round := seedRound(t, s, models.RoundOpen)
	closedAt := time.Now().UTC()
	round.Status = models.RoundClosed
	round.ClosedAt = &closedAt
	require.NoError(t, s.UpdateRound(ctx, round))

	err := s.CreateBallot(ctx, ballotFor(round.ID))
	require.ErrorIs(t, err, sentinel.ErrInvalidState)

	ballots, err := s.ListForRound(ctx, round.ID)
	require.NoError(t, err)
	require.Empty(t, ballots)
}
