package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rushledger/internal/dues/models"
	"rushledger/internal/dues/store"
	identityModel "rushledger/internal/identity/models"
	identityStore "rushledger/internal/identity/store"
	dErrors "rushledger/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	users   *identityStore.InMemory
	service *Service
	admin   *identityModel.User
	member  *identityModel.User
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.users = identityStore.NewInMemory()
	s.admin = s.seedUser(ctx, "auth0|admin", "admin@chapter.org", identityModel.RoleAdmin)
	s.member = s.seedUser(ctx, "auth0|member", "member@chapter.org", identityModel.RoleActive)

	s.service = New(store.NewInMemory(), s.users,
		WithClock(func() time.Time { return s.now }),
		WithGracePeriod(24*time.Hour))
}

func (s *ServiceSuite) seedUser(ctx context.Context, authID, email string, role identityModel.Role) *identityModel.User {
	u, err := identityModel.NewUser(uuid.New(), authID, email, role, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(ctx, u))
	return u
}

func (s *ServiceSuite) record(dueDate time.Time) *models.Payment {
	p, err := s.service.Record(context.Background(), s.admin.ID, RecordRequest{
		UserID:      s.member.ID,
		AmountCents: 15000,
		Type:        models.TypeSemester,
		DueDate:     dueDate,
		Semester:    "Spring 2026",
	})
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) TestRecord() {
	ctx := context.Background()

	s.Run("admin records an obligation", func() {
		p := s.record(s.now.Add(30 * 24 * time.Hour))
		s.Equal(models.StatusNotPaid, p.Status)
		s.Require().NotNil(p.RecordedBy)
		s.Equal(s.admin.ID, *p.RecordedBy)
	})

	s.Run("non-admin is forbidden", func() {
		_, err := s.service.Record(ctx, s.member.ID, RecordRequest{
			UserID: s.member.ID, AmountCents: 100, Type: models.TypeFine,
			DueDate: s.now, Semester: "Spring 2026",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("negative amount is a validation error", func() {
		_, err := s.service.Record(ctx, s.admin.ID, RecordRequest{
			UserID: s.member.ID, AmountCents: -1, Type: models.TypeFine,
			DueDate: s.now, Semester: "Spring 2026",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown user is not found", func() {
		_, err := s.service.Record(ctx, s.admin.ID, RecordRequest{
			UserID: uuid.New(), AmountCents: 100, Type: models.TypeFine,
			DueDate: s.now, Semester: "Spring 2026",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestMarkPaid() {
	ctx := context.Background()
	dueDate := s.now.Add(30 * 24 * time.Hour)
	p := s.record(dueDate)

	s.Run("status and timestamp move together", func() {
		method := models.MethodVenmo
		paid, err := s.service.MarkPaid(ctx, s.admin.ID, p.ID, &method, s.now, "txn-123")
		s.Require().NoError(err)
		s.Equal(models.StatusPaid, paid.Status)
		s.Require().NotNil(paid.PaidAt)
		s.Equal(s.now, *paid.PaidAt)
		s.Equal("txn-123", paid.ReferenceNumber)
	})

	s.Run("settling twice is invalid state", func() {
		_, err := s.service.MarkPaid(ctx, s.admin.ID, p.ID, nil, s.now, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("paid date too far before due date is a validation error", func() {
		p2 := s.record(dueDate)
		early := dueDate.Add(-48 * time.Hour)
		_, err := s.service.MarkPaid(ctx, s.admin.ID, p2.ID, nil, early, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("paid date within the grace window is fine", func() {
		p3 := s.record(dueDate)
		withinGrace := dueDate.Add(-12 * time.Hour)
		paid, err := s.service.MarkPaid(ctx, s.admin.ID, p3.ID, nil, withinGrace, "")
		s.Require().NoError(err)
		s.Equal(models.StatusPaid, paid.Status)
	})

	s.Run("non-admin is forbidden", func() {
		p4 := s.record(dueDate)
		_, err := s.service.MarkPaid(ctx, s.member.ID, p4.ID, nil, s.now, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestWaive() {
	ctx := context.Background()
	p := s.record(s.now.Add(24 * time.Hour))

	waived, err := s.service.Waive(ctx, s.admin.ID, p.ID, "scholarship")
	s.Require().NoError(err)
	s.Equal(models.StatusWaived, waived.Status)
	s.Equal("scholarship", waived.Notes)

	s.Run("waived payments cannot be settled", func() {
		_, err := s.service.MarkPaid(ctx, s.admin.ID, p.ID, nil, s.now, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestMarkOverdue() {
	ctx := context.Background()
	pastDue := s.record(s.now.Add(-24 * time.Hour))
	notDue := s.record(s.now.Add(24 * time.Hour))

	count, err := s.service.MarkOverdue(ctx, s.admin.ID)
	s.Require().NoError(err)
	s.Equal(1, count)

	rows, err := s.service.ListForUser(ctx, s.member.ID, s.member.ID)
	s.Require().NoError(err)
	statuses := make(map[uuid.UUID]models.PaymentStatus, len(rows))
	for _, p := range rows {
		statuses[p.ID] = p.Status
	}
	s.Equal(models.StatusOverdue, statuses[pastDue.ID])
	s.Equal(models.StatusNotPaid, statuses[notDue.ID])

	s.Run("second sweep is a no-op", func() {
		count, err := s.service.MarkOverdue(ctx, s.admin.ID)
		s.Require().NoError(err)
		s.Zero(count)
	})
}

func (s *ServiceSuite) TestListAccess() {
	ctx := context.Background()
	p := s.record(s.now.Add(24 * time.Hour))
	other := s.seedUser(ctx, "auth0|other", "other@chapter.org", identityModel.RoleActive)

	s.Run("outstanding list is admin only", func() {
		_, err := s.service.ListOutstanding(ctx, s.member.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		rows, err := s.service.ListOutstanding(ctx, s.admin.ID)
		s.Require().NoError(err)
		s.Len(rows, 1)
	})

	s.Run("member reads own history", func() {
		rows, err := s.service.ListForUser(ctx, s.member.ID, s.member.ID)
		s.Require().NoError(err)
		s.Len(rows, 1)
	})

	s.Run("member cannot read another member's history", func() {
		_, err := s.service.ListForUser(ctx, other.ID, s.member.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("get is owner or admin", func() {
		got, err := s.service.Get(ctx, s.member.ID, p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)

		_, err = s.service.Get(ctx, other.ID, p.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
