package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rushledger/internal/ballot/models"
	"rushledger/internal/ballot/store"
	identityModel "rushledger/internal/identity/models"
	identityStore "rushledger/internal/identity/store"
	dErrors "rushledger/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	users   *identityStore.InMemory
	service *Service
	admin   *identityModel.User
	voter   *identityModel.User
	rushee  *identityModel.User
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.users = identityStore.NewInMemory()
	s.admin = s.seedUser(ctx, "auth0|admin", "admin@chapter.org", identityModel.RoleAdmin)
	s.voter = s.seedUser(ctx, "auth0|voter", "voter@chapter.org", identityModel.RoleActive)
	s.rushee = s.seedUser(ctx, "auth0|rushee", "rushee@chapter.org", identityModel.RoleRushee)

	s.service = New(store.NewInMemory(), s.users,
		WithClock(func() time.Time { return s.now }))
}

func (s *ServiceSuite) seedUser(ctx context.Context, authID, email string, role identityModel.Role) *identityModel.User {
	u, err := identityModel.NewUser(uuid.New(), authID, email, role, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(ctx, u))
	return u
}

func (s *ServiceSuite) openRound(name string) *models.Round {
	round, err := s.service.OpenRound(context.Background(), s.admin.ID, name, nil)
	s.Require().NoError(err)
	return round
}

func (s *ServiceSuite) TestRoundLifecycle() {
	ctx := context.Background()

	s.Run("only admins open rounds", func() {
		_, err := s.service.OpenRound(ctx, s.voter.ID, "first", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("round names are unique", func() {
		s.openRound("first round")
		_, err := s.service.OpenRound(ctx, s.admin.ID, "First Round", nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("closing twice is invalid state", func() {
		round := s.openRound("second round")
		closed, err := s.service.CloseRound(ctx, s.admin.ID, round.ID)
		s.Require().NoError(err)
		s.Equal(models.RoundClosed, closed.Status)
		s.Require().NotNil(closed.ClosedAt)

		_, err = s.service.CloseRound(ctx, s.admin.ID, round.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestCastValidation() {
	ctx := context.Background()
	round := s.openRound("validation round")

	s.Run("unknown vote type", func() {
		_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteType("MAYBE"),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("vote value out of range", func() {
		for _, v := range []int{0, 11} {
			v := v
			_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
				RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid, Value: &v,
			})
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	s.Run("pledges cannot vote", func() {
		pledge := s.seedUser(ctx, "auth0|pledge", "pledge@chapter.org", identityModel.RolePledge)
		_, err := s.service.Cast(ctx, pledge.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("deactivated voters cannot vote", func() {
		inactive := s.seedUser(ctx, "auth0|gone", "gone@chapter.org", identityModel.RoleActive)
		inactive.IsActive = false
		s.Require().NoError(s.users.Update(ctx, inactive))
		_, err := s.service.Cast(ctx, inactive.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("only rushees can be candidates", func() {
		_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.admin.ID, Type: models.VoteBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown round is not found", func() {
		_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
			RoundID: uuid.New(), CandidateID: s.rushee.ID, Type: models.VoteBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestCastAndRevise() {
	ctx := context.Background()
	round := s.openRound("cast round")

	five := 5
	first, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
		RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid, Value: &five,
	})
	s.Require().NoError(err)
	s.Equal(models.VoteBid, first.Type)

	s.Run("re-cast while open revises in place", func() {
		eight := 8
		revised, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteNoBid, Value: &eight,
		})
		s.Require().NoError(err)
		s.Equal(first.ID, revised.ID)
		s.Equal(models.VoteNoBid, revised.Type)
		s.Equal(8, *revised.Value)

		mine, err := s.service.BallotsForVoter(ctx, s.voter.ID)
		s.Require().NoError(err)
		s.Len(mine, 1)
	})

	s.Run("re-cast after close conflicts", func() {
		_, err := s.service.CloseRound(ctx, s.admin.ID, round.ID)
		s.Require().NoError(err)

		_, err = s.service.Cast(ctx, s.voter.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("first cast into a closed round is invalid state", func() {
		late := s.seedUser(ctx, "auth0|late", "late@chapter.org", identityModel.RoleActive)
		_, err := s.service.Cast(ctx, late.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestConcurrentCast() {
	ctx := context.Background()
	round := s.openRound("race round")

	// Many concurrent casts by one voter on one candidate must collapse into a
	// single ballot: one wins the insert, the rest take the revision path.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		v := (i % 10) + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
				RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid, Value: &v,
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	mine, err := s.service.BallotsForVoter(ctx, s.voter.ID)
	s.Require().NoError(err)
	s.Len(mine, 1)
}

func (s *ServiceSuite) TestResults() {
	ctx := context.Background()
	round := s.openRound("results round")
	other := s.seedUser(ctx, "auth0|rushee2", "rushee2@chapter.org", identityModel.RoleRushee)

	voters := []*identityModel.User{
		s.voter,
		s.seedUser(ctx, "auth0|v2", "v2@chapter.org", identityModel.RoleActive),
		s.seedUser(ctx, "auth0|v3", "v3@chapter.org", identityModel.RoleActive),
	}
	values := []int{4, 6, 8}
	types := []models.VoteType{models.VoteBid, models.VoteBid, models.VoteNoBid}
	for i, v := range voters {
		val := values[i]
		_, err := s.service.Cast(ctx, v.ID, CastRequest{
			RoundID: round.ID, CandidateID: s.rushee.ID, Type: types[i], Value: &val,
		})
		s.Require().NoError(err)
	}
	_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
		RoundID: round.ID, CandidateID: other.ID, Type: models.VoteAbstain,
	})
	s.Require().NoError(err)

	results, err := s.service.Results(ctx, round.ID)
	s.Require().NoError(err)
	s.Equal(round.ID, results.RoundID)
	s.Require().Len(results.Candidates, 2)

	var tally *models.CandidateTally
	for i := range results.Candidates {
		if results.Candidates[i].CandidateID == s.rushee.ID {
			tally = &results.Candidates[i]
		}
	}
	s.Require().NotNil(tally)
	s.Equal(2, tally.Bid)
	s.Equal(1, tally.NoBid)
	s.Equal(0, tally.Abstain)
	s.Equal(3, tally.Total)
	s.Require().NotNil(tally.AverageValue)
	s.InDelta(6.0, *tally.AverageValue, 0.001)
}

func (s *ServiceSuite) TestRawBallots() {
	ctx := context.Background()
	round := s.openRound("raw round")
	_, err := s.service.Cast(ctx, s.voter.ID, CastRequest{
		RoundID: round.ID, CandidateID: s.rushee.ID, Type: models.VoteBid, IsAnonymous: true,
	})
	s.Require().NoError(err)

	s.Run("non-admin is forbidden", func() {
		_, err := s.service.RawBallots(ctx, s.voter.ID, round.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin sees attribution even on anonymous ballots", func() {
		ballots, err := s.service.RawBallots(ctx, s.admin.ID, round.ID)
		s.Require().NoError(err)
		s.Require().Len(ballots, 1)
		s.Equal(s.voter.ID, ballots[0].VoterID)
		s.True(ballots[0].IsAnonymous)
	})
}
