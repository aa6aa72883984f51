package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	identityModel "rushledger/internal/identity/models"
	identityStore "rushledger/internal/identity/store"
	"rushledger/internal/interview/models"
	"rushledger/internal/interview/store"
	dErrors "rushledger/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	users   *identityStore.InMemory
	service *Service
	admin   *identityModel.User
	active  *identityModel.User
	rushee  *identityModel.User
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 1, 15, 17, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.users = identityStore.NewInMemory()
	s.admin = s.seedUser(ctx, "auth0|admin", "admin@chapter.org", identityModel.RoleAdmin)
	s.active = s.seedUser(ctx, "auth0|active", "active@chapter.org", identityModel.RoleActive)
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

func (s *ServiceSuite) TestRecord() {
	ctx := context.Background()

	s.Run("active interviews a rushee", func() {
		iv, err := s.service.Record(ctx, s.active.ID, RecordRequest{
			CandidateID: s.rushee.ID,
			Questions:   []models.QA{{Question: "Why this house?", Answer: "The people."}},
		})
		s.Require().NoError(err)
		s.Equal(s.active.ID, iv.InterviewerID)
		s.Equal(s.now, iv.InterviewDate)
		s.False(iv.IsComplete)
	})

	s.Run("pledges cannot interview", func() {
		pledge := s.seedUser(ctx, "auth0|pledge", "pledge@chapter.org", identityModel.RolePledge)
		_, err := s.service.Record(ctx, pledge.ID, RecordRequest{CandidateID: s.rushee.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("candidate must be a rushee", func() {
		_, err := s.service.Record(ctx, s.active.ID, RecordRequest{CandidateID: s.admin.ID})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestComplete() {
	ctx := context.Background()
	iv, err := s.service.Record(ctx, s.active.ID, RecordRequest{CandidateID: s.rushee.ID})
	s.Require().NoError(err)

	s.Run("only the interviewer may complete", func() {
		_, err := s.service.Complete(ctx, s.admin.ID, iv.ID, CompleteRequest{
			OverallRating: 4, Recommendation: models.RecBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rating out of range", func() {
		_, err := s.service.Complete(ctx, s.active.ID, iv.ID, CompleteRequest{
			OverallRating: 6, Recommendation: models.RecBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown recommendation", func() {
		_, err := s.service.Complete(ctx, s.active.ID, iv.ID, CompleteRequest{
			OverallRating: 4, Recommendation: models.Recommendation("SHRUG"),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("completing freezes the record", func() {
		done, err := s.service.Complete(ctx, s.active.ID, iv.ID, CompleteRequest{
			OverallRating:  4,
			Recommendation: models.RecBid,
			Strengths:      []string{"genuine", "engaged"},
		})
		s.Require().NoError(err)
		s.True(done.IsComplete)
		s.Require().NotNil(done.OverallRating)
		s.Equal(4, *done.OverallRating)

		_, err = s.service.Complete(ctx, s.active.ID, iv.ID, CompleteRequest{
			OverallRating: 5, Recommendation: models.RecStrongBid,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestListForCandidate() {
	ctx := context.Background()
	other := s.seedUser(ctx, "auth0|active2", "active2@chapter.org", identityModel.RoleActive)

	_, err := s.service.Record(ctx, s.active.ID, RecordRequest{CandidateID: s.rushee.ID})
	s.Require().NoError(err)
	_, err = s.service.Record(ctx, other.ID, RecordRequest{CandidateID: s.rushee.ID})
	s.Require().NoError(err)

	s.Run("admin sees all", func() {
		rows, err := s.service.ListForCandidate(ctx, s.admin.ID, s.rushee.ID)
		s.Require().NoError(err)
		s.Len(rows, 2)
	})

	s.Run("interviewer sees only their own", func() {
		rows, err := s.service.ListForCandidate(ctx, s.active.ID, s.rushee.ID)
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(s.active.ID, rows[0].InterviewerID)
	})
}

func (s *ServiceSuite) TestGet() {
	ctx := context.Background()
	other := s.seedUser(ctx, "auth0|active3", "active3@chapter.org", identityModel.RoleActive)
	iv, err := s.service.Record(ctx, s.active.ID, RecordRequest{CandidateID: s.rushee.ID})
	s.Require().NoError(err)

	s.Run("interviewer and admin may read", func() {
		_, err := s.service.Get(ctx, s.active.ID, iv.ID)
		s.Require().NoError(err)
		_, err = s.service.Get(ctx, s.admin.ID, iv.ID)
		s.Require().NoError(err)
	})

	s.Run("others are forbidden", func() {
		_, err := s.service.Get(ctx, other.ID, iv.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
