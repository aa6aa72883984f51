package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/attendance/models"
	eventmodels "rushledger/internal/event/models"
	identity "rushledger/internal/identity/models"
	"rushledger/internal/platform/metrics"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

type AttendanceStore interface {
	Create(ctx context.Context, att *models.Attendance) error
	Update(ctx context.Context, att *models.Attendance) error
	FindByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Attendance, error)
	ListForEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Attendance, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Attendance, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type EventDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*eventmodels.Event, error)
}

// Service owns the attendance ledger. Creating a second row for the same
// (event, user) pair always fails; status changes go through the explicit
// update path.
type Service struct {
	ledger  AttendanceStore
	users   UserDirectory
	events  EventDirectory
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(ledger AttendanceStore, users UserDirectory, events EventDirectory, opts ...Option) *Service {
	s := &Service{ledger: ledger, users: users, events: events, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record inserts a new attendance row, as on roster generation. Admin only;
// a row already existing for the pair is a conflict, never an overwrite.
func (s *Service) Record(ctx context.Context, callerID, eventID, userID uuid.UUID, status models.Status) (*models.Attendance, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", status).WithField("status")
	}
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, eventID, userID); err != nil {
		return nil, err
	}

	now := s.now()
	att := &models.Attendance{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledger.Create(ctx, att); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "attendance already recorded for this event and user")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event or user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attendance")
	}
	return att, nil
}

// UpdateStatus is the explicit, admin-only update path for an existing row.
func (s *Service) UpdateStatus(ctx context.Context, callerID, eventID, userID uuid.UUID, status models.Status) (*models.Attendance, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", status).WithField("status")
	}
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	att, err := s.getRow(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	att.Status = status
	att.UpdatedAt = s.now()
	if err := s.ledger.Update(ctx, att); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update attendance")
	}
	return att, nil
}

// RSVP records a user's own reply, creating a PENDING row when none exists.
func (s *Service) RSVP(ctx context.Context, eventID, userID uuid.UUID, rsvp models.RSVPStatus) (*models.Attendance, error) {
	if !rsvp.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown rsvp status %q", rsvp).WithField("rsvp_status")
	}

	att, err := s.ledger.FindByEventAndUser(ctx, eventID, userID)
	switch {
	case err == nil:
		att.RSVPStatus = &rsvp
		att.UpdatedAt = s.now()
		if err := s.ledger.Update(ctx, att); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update rsvp")
		}
		return att, nil
	case errors.Is(err, sentinel.ErrNotFound):
		if err := s.checkRefs(ctx, eventID, userID); err != nil {
			return nil, err
		}
		now := s.now()
		att = &models.Attendance{
			ID:         uuid.New(),
			EventID:    eventID,
			UserID:     userID,
			Status:     models.StatusPending,
			RSVPStatus: &rsvp,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.ledger.Create(ctx, att); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost a race with a concurrent RSVP; surface it as such.
				return nil, dErrors.New(dErrors.CodeConflict, "attendance already recorded for this event and user")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rsvp")
		}
		return att, nil
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
	}
}

// CheckIn marks a user present (or late) at an event. Requires an existing
// attendance row and an admin at the door; the timestamp and recording admin
// are set together.
func (s *Service) CheckIn(ctx context.Context, eventID, userID, adminID uuid.UUID, status models.Status, at time.Time) (*models.Attendance, error) {
	if status != models.StatusPresent && status != models.StatusLate {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "check-in must mark PRESENT or LATE, not %s", status)
	}

	admin, err := s.requireAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	att, err := s.getRow(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = s.now()
	}
	att.Status = status
	att.CheckedInAt = &at
	att.CheckedInBy = &admin.ID
	att.UpdatedAt = s.now()

	if err := s.ledger.Update(ctx, att); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check in")
	}
	s.log(ctx, "checked in", "event_id", eventID, "user_id", userID, "status", status)
	if s.metrics != nil {
		s.metrics.CheckIns.Inc()
	}
	return att, nil
}

func (s *Service) ListForEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Attendance, error) {
	rows, err := s.ledger.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attendance")
	}
	return rows, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Attendance, error) {
	rows, err := s.ledger.ListForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attendance")
	}
	return rows, nil
}

func (s *Service) getRow(ctx context.Context, eventID, userID uuid.UUID) (*models.Attendance, error) {
	att, err := s.ledger.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInvalidState, "no attendance row for this event and user")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
	}
	return att, nil
}

func (s *Service) requireAdmin(ctx context.Context, callerID uuid.UUID) (*identity.User, error) {
	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "caller not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load caller")
	}
	if !caller.IsActive || !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required to manage attendance")
	}
	return caller, nil
}

// checkRefs verifies both referenced entities exist before inserting, so the
// memory store behaves like the FK-constrained Postgres store.
func (s *Service) checkRefs(ctx context.Context, eventID, userID uuid.UUID) error {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
