package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rushledger/internal/identity/models"
	"rushledger/internal/identity/store"
	dErrors "rushledger/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	users   *store.InMemory
	service *Service
	admin   *models.User
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.users = store.NewInMemory()
	s.service = New(s.users, WithClock(func() time.Time {
		return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	}))

	admin, err := s.service.Register(context.Background(), RegisterRequest{
		AuthID: "auth0|admin", Email: "admin@chapter.org", Role: models.RoleAdmin,
	})
	s.Require().NoError(err)
	s.admin = admin
}

func (s *ServiceSuite) register(authID, email string, role models.Role) *models.User {
	u, err := s.service.Register(context.Background(), RegisterRequest{
		AuthID: authID, Email: email, Role: role,
	})
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("defaults to rushee", func() {
		u := s.register("auth0|r1", "r1@x.com", "")
		s.Equal(models.RoleRushee, u.Role)
		s.Require().NotNil(u.CandidateStage)
		s.Equal(models.StageInitial, *u.CandidateStage)
	})

	s.Run("duplicate auth id conflicts", func() {
		s.register("auth0|dup", "first@x.com", models.RoleActive)
		_, err := s.service.Register(ctx, RegisterRequest{AuthID: "auth0|dup", Email: "second@x.com"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("duplicate email conflicts case-insensitively", func() {
		s.register("auth0|e1", "same@x.com", models.RoleActive)
		_, err := s.service.Register(ctx, RegisterRequest{AuthID: "auth0|e2", Email: "SAME@x.com"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestUpdateProfile() {
	ctx := context.Background()
	member := s.register("auth0|m1", "m1@x.com", models.RoleActive)
	other := s.register("auth0|m2", "m2@x.com", models.RoleActive)

	s.Run("self edit", func() {
		name := "Jordan"
		u, err := s.service.UpdateProfile(ctx, member.ID, member.ID, UpdateProfileRequest{FirstName: &name})
		s.Require().NoError(err)
		s.Equal("Jordan", u.FirstName)
	})

	s.Run("editing someone else is forbidden", func() {
		name := "Nope"
		_, err := s.service.UpdateProfile(ctx, member.ID, other.ID, UpdateProfileRequest{FirstName: &name})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin may edit anyone", func() {
		name := "Official"
		u, err := s.service.UpdateProfile(ctx, s.admin.ID, other.ID, UpdateProfileRequest{FirstName: &name})
		s.Require().NoError(err)
		s.Equal("Official", u.FirstName)
	})

	s.Run("email change to a taken address conflicts", func() {
		taken := other.Email
		_, err := s.service.UpdateProfile(ctx, member.ID, member.ID, UpdateProfileRequest{Email: &taken})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestChangeRole() {
	ctx := context.Background()
	rushee := s.register("auth0|r2", "r2@x.com", models.RoleRushee)

	s.Run("non-admin cannot change roles", func() {
		member := s.register("auth0|m3", "m3@x.com", models.RoleActive)
		_, err := s.service.ChangeRole(ctx, member.ID, rushee.ID, models.RolePledge)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("leaving rushee clears the stage", func() {
		u, err := s.service.ChangeRole(ctx, s.admin.ID, rushee.ID, models.RolePledge)
		s.Require().NoError(err)
		s.Equal(models.RolePledge, u.Role)
		s.Nil(u.CandidateStage)
	})

	s.Run("entering rushee restarts at initial", func() {
		u, err := s.service.ChangeRole(ctx, s.admin.ID, rushee.ID, models.RoleRushee)
		s.Require().NoError(err)
		s.Require().NotNil(u.CandidateStage)
		s.Equal(models.StageInitial, *u.CandidateStage)
	})
}

func (s *ServiceSuite) TestAdvanceStage() {
	ctx := context.Background()
	rushee := s.register("auth0|r3", "r3@x.com", models.RoleRushee)

	s.Run("legal advance", func() {
		u, err := s.service.AdvanceStage(ctx, s.admin.ID, rushee.ID, models.StageFirstRound)
		s.Require().NoError(err)
		s.Equal(models.StageFirstRound, *u.CandidateStage)
	})

	s.Run("skipping a round is invalid state", func() {
		_, err := s.service.AdvanceStage(ctx, s.admin.ID, rushee.ID, models.StageThirdRound)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("stage on a non-rushee is a validation error", func() {
		member := s.register("auth0|m4", "m4@x.com", models.RoleActive)
		_, err := s.service.AdvanceStage(ctx, s.admin.ID, member.ID, models.StageFirstRound)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("terminal stage is frozen", func() {
		_, err := s.service.AdvanceStage(ctx, s.admin.ID, rushee.ID, models.StageDropped)
		s.Require().NoError(err)
		_, err = s.service.AdvanceStage(ctx, s.admin.ID, rushee.ID, models.StageFirstRound)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestDeactivate() {
	ctx := context.Background()
	member := s.register("auth0|m5", "m5@x.com", models.RoleActive)

	s.Run("admin deactivates", func() {
		s.Require().NoError(s.service.Deactivate(ctx, s.admin.ID, member.ID))
		u, err := s.service.GetByID(ctx, member.ID)
		s.Require().NoError(err)
		s.False(u.IsActive)
	})

	s.Run("already deactivated is invalid state", func() {
		err := s.service.Deactivate(ctx, s.admin.ID, member.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("deactivated caller is forbidden", func() {
		err := s.service.Deactivate(ctx, member.ID, s.admin.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("record survives deactivation", func() {
		u, err := s.service.GetByID(ctx, member.ID)
		s.Require().NoError(err)
		s.Equal(member.Email, u.Email)
	})
}
