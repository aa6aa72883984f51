//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rushledger/internal/ballot/models"
	identityModel "rushledger/internal/identity/models"
	identityStore "rushledger/internal/identity/store"
	"rushledger/internal/testutil/containers"
	"rushledger/pkg/platform/sentinel"
)

type PostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	users *identityStore.Postgres

	voter  uuid.UUID
	rushee uuid.UUID
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.users = identityStore.NewPostgres(s.pg.DB)
}

func (s *PostgresSuite) SetupTest() {
	ctx := context.Background()
	require.NoError(s.T(), s.pg.TruncateTables(ctx, "users", "voting_rounds", "ballots"))

	voter, err := identityModel.NewUser(uuid.New(), "auth0|voter", "voter@chapter.org", identityModel.RoleActive, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(ctx, voter))
	s.voter = voter.ID

	rushee, err := identityModel.NewUser(uuid.New(), "auth0|rushee", "rushee@chapter.org", identityModel.RoleRushee, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(ctx, rushee))
	s.rushee = rushee.ID
}

func (s *PostgresSuite) openRound(name string) *models.Round {
	now := time.Now().UTC()
	round := &models.Round{
		ID:        uuid.New(),
		Name:      name,
		Status:    models.RoundOpen,
		OpenedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.CreateRound(context.Background(), round))
	return round
}

func (s *PostgresSuite) newBallot(roundID uuid.UUID) *models.Ballot {
	now := time.Now().UTC()
	return &models.Ballot{
		ID:          uuid.New(),
		RoundID:     roundID,
		VoterID:     s.voter,
		CandidateID: s.rushee,
		Type:        models.VoteBid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *PostgresSuite) TestRoundNameUniqueness() {
	s.openRound("first round")

	now := time.Now().UTC()
	dup := &models.Round{
		ID: uuid.New(), Name: "First Round", Status: models.RoundOpen,
		OpenedAt: now, CreatedAt: now, UpdatedAt: now,
	}
	err := s.store.CreateRound(context.Background(), dup)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresSuite) TestBallotTripleUniqueness() {
	ctx := context.Background()
	round := s.openRound("uniqueness round")

	s.Require().NoError(s.store.CreateBallot(ctx, s.newBallot(round.ID)))

	err := s.store.CreateBallot(ctx, s.newBallot(round.ID))
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentInsertRace drives the duplicate-ballot race against the real
// unique index: exactly one insert wins, every loser sees ErrConflict.
func (s *PostgresSuite) TestConcurrentInsertRace() {
	ctx := context.Background()
	round := s.openRound("race round")

	const n = 8
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateBallot(ctx, s.newBallot(round.ID))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(n-1), conflicts.Load())

	ballots, err := s.store.ListForRound(ctx, round.ID)
	s.Require().NoError(err)
	s.Len(ballots, 1)
}

// TestClosedRoundInsertGuard covers a cast racing a concurrent close: once the
// round row reads CLOSED the insert must not land, however stale the caller's
// view of the round was.
func (s *PostgresSuite) TestClosedRoundInsertGuard() {
	ctx := context.Background()
	round := s.openRound("closing round")

	round.Status = models.RoundClosed
	closedAt := time.Now().UTC()
	round.ClosedAt = &closedAt
	s.Require().NoError(s.store.UpdateRound(ctx, round))

	err := s.store.CreateBallot(ctx, s.newBallot(round.ID))
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrInvalidState)

	ballots, err := s.store.ListForRound(ctx, round.ID)
	s.Require().NoError(err)
	s.Empty(ballots)
}

func (s *PostgresSuite) TestValueRangeCheck() {
	ctx := context.Background()
	round := s.openRound("value round")

	b := s.newBallot(round.ID)
	v := 11
	b.Value = &v
	err := s.store.CreateBallot(ctx, b)
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresSuite) TestFindAndUpdateBallot() {
	ctx := context.Background()
	round := s.openRound("update round")

	b := s.newBallot(round.ID)
	s.Require().NoError(s.store.CreateBallot(ctx, b))

	got, err := s.store.FindBallot(ctx, round.ID, s.voter, s.rushee)
	s.Require().NoError(err)
	s.Equal(b.ID, got.ID)

	got.Type = models.VoteNoBid
	got.Notes = "changed my mind"
	s.Require().NoError(s.store.UpdateBallot(ctx, got))

	again, err := s.store.FindBallot(ctx, round.ID, s.voter, s.rushee)
	s.Require().NoError(err)
	s.Equal(models.VoteNoBid, again.Type)
	s.Equal("changed my mind", again.Notes)
}
