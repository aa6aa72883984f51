package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rushledger/internal/attendance/models"
	"rushledger/internal/attendance/store"
	eventModel "rushledger/internal/event/models"
	eventStore "rushledger/internal/event/store"
	identityModel "rushledger/internal/identity/models"
	identityStore "rushledger/internal/identity/store"
	dErrors "rushledger/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	admin   *identityModel.User
	member  *identityModel.User
	event   *eventModel.Event
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	ctx := context.Background()

	users := identityStore.NewInMemory()
	s.admin = s.seedUser(ctx, users, "auth0|admin", "admin@chapter.org", identityModel.RoleAdmin)
	s.member = s.seedUser(ctx, users, "auth0|member", "member@chapter.org", identityModel.RoleActive)

	events := eventStore.NewInMemory()
	s.event = &eventModel.Event{
		ID:        uuid.New(),
		Title:     "Chapter Dinner",
		Type:      eventModel.TypeDinner,
		StartTime: s.now,
		IsActive:  true,
		CreatedAt: s.now,
		UpdatedAt: s.now,
	}
	s.Require().NoError(events.Create(ctx, s.event))

	s.service = New(store.NewInMemory(), users, events,
		WithClock(func() time.Time { return s.now }))
}

func (s *ServiceSuite) seedUser(ctx context.Context, users *identityStore.InMemory, authID, email string, role identityModel.Role) *identityModel.User {
	u, err := identityModel.NewUser(uuid.New(), authID, email, role, s.now)
	s.Require().NoError(err)
	s.Require().NoError(users.Create(ctx, u))
	return u
}

func (s *ServiceSuite) TestRecord() {
	ctx := context.Background()

	s.Run("first record inserts", func() {
		att, err := s.service.Record(ctx, s.admin.ID, s.event.ID, s.member.ID, models.StatusPending)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, att.Status)
	})

	s.Run("second record for the same pair conflicts", func() {
		_, err := s.service.Record(ctx, s.admin.ID, s.event.ID, s.member.ID, models.StatusPresent)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-admin caller is forbidden", func() {
		_, err := s.service.Record(ctx, s.member.ID, s.event.ID, s.member.ID, models.StatusAbsent)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown event is not found", func() {
		_, err := s.service.Record(ctx, s.admin.ID, uuid.New(), s.member.ID, models.StatusPending)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown user is not found", func() {
		_, err := s.service.Record(ctx, s.admin.ID, s.event.ID, uuid.New(), models.StatusPending)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdateStatus() {
	ctx := context.Background()
	_, err := s.service.Record(ctx, s.admin.ID, s.event.ID, s.member.ID, models.StatusPending)
	s.Require().NoError(err)

	s.Run("explicit update path changes status", func() {
		att, err := s.service.UpdateStatus(ctx, s.admin.ID, s.event.ID, s.member.ID, models.StatusExcused)
		s.Require().NoError(err)
		s.Equal(models.StatusExcused, att.Status)
	})

	s.Run("non-admin caller cannot flip a status", func() {
		_, err := s.service.UpdateStatus(ctx, s.member.ID, s.event.ID, s.member.ID, models.StatusPresent)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("no row is invalid state", func() {
		_, err := s.service.UpdateStatus(ctx, s.admin.ID, s.event.ID, s.admin.ID, models.StatusExcused)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestRSVP() {
	ctx := context.Background()

	s.Run("rsvp with no row creates a pending one", func() {
		att, err := s.service.RSVP(ctx, s.event.ID, s.member.ID, models.RSVPGoing)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, att.Status)
		s.Require().NotNil(att.RSVPStatus)
		s.Equal(models.RSVPGoing, *att.RSVPStatus)
	})

	s.Run("rsvp with an existing row updates it in place", func() {
		att, err := s.service.RSVP(ctx, s.event.ID, s.member.ID, models.RSVPNotGoing)
		s.Require().NoError(err)
		s.Require().NotNil(att.RSVPStatus)
		s.Equal(models.RSVPNotGoing, *att.RSVPStatus)

		rows, err := s.service.ListForUser(ctx, s.member.ID)
		s.Require().NoError(err)
		s.Len(rows, 1)
	})
}

func (s *ServiceSuite) TestCheckIn() {
	ctx := context.Background()
	_, err := s.service.Record(ctx, s.admin.ID, s.event.ID, s.member.ID, models.StatusPending)
	s.Require().NoError(err)

	s.Run("check-in requires an admin", func() {
		_, err := s.service.CheckIn(ctx, s.event.ID, s.member.ID, s.member.ID, models.StatusPresent, time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("check-in must mark present or late", func() {
		_, err := s.service.CheckIn(ctx, s.event.ID, s.member.ID, s.admin.ID, models.StatusAbsent, time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("check-in sets timestamp and recorder together", func() {
		att, err := s.service.CheckIn(ctx, s.event.ID, s.member.ID, s.admin.ID, models.StatusPresent, time.Time{})
		s.Require().NoError(err)
		s.Equal(models.StatusPresent, att.Status)
		s.Require().NotNil(att.CheckedInAt)
		s.Equal(s.now, *att.CheckedInAt)
		s.Require().NotNil(att.CheckedInBy)
		s.Equal(s.admin.ID, *att.CheckedInBy)
	})

	s.Run("check-in without a row is invalid state", func() {
		_, err := s.service.CheckIn(ctx, s.event.ID, s.admin.ID, s.admin.ID, models.StatusLate, time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}
