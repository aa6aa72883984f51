package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/event/models"
	"rushledger/internal/event/store"
	identity "rushledger/internal/identity/models"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, filter store.Filter) ([]*models.Event, error)
}

// UserDirectory resolves caller identities for role gating. The identity
// store satisfies it.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Service owns the event catalog: admin-managed creation, updates, soft
// deactivation, and filtered chronological listings.
type Service struct {
	events EventStore
	users  UserDirectory
	logger *slog.Logger
	now    func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(events EventStore, users UserDirectory, opts ...Option) *Service {
	s := &Service{events: events, users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries the writable event fields.
type CreateRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        models.EventType `json:"event_type"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     *time.Time       `json:"end_time,omitempty"`
	Location    string           `json:"location"`
	IsMandatory bool             `json:"is_mandatory"`
	IsVoting    bool             `json:"is_voting"`
	MaxCapacity *int             `json:"max_capacity,omitempty"`
}

// Create schedules a new event. Admin only.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, req CreateRequest) (*models.Event, error) {
	caller, err := s.requireAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	creator := caller.ID
	event := &models.Event{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    strings.TrimSpace(req.Location),
		IsMandatory: req.IsMandatory,
		IsVoting:    req.IsVoting,
		MaxCapacity: req.MaxCapacity,
		CreatedBy:   &creator,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.Type == "" {
		event.Type = models.TypeOther
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	s.log(ctx, "event created", "event_id", event.ID, "type", event.Type)
	return event, nil
}

// UpdateRequest carries partial updates; nil fields stay unchanged.
type UpdateRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Type        *models.EventType `json:"event_type,omitempty"`
	StartTime   *time.Time        `json:"start_time,omitempty"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
	Location    *string           `json:"location,omitempty"`
	IsMandatory *bool             `json:"is_mandatory,omitempty"`
	IsVoting    *bool             `json:"is_voting,omitempty"`
	MaxCapacity *int              `json:"max_capacity,omitempty"`
}

// Update edits an event in place. Admin only.
func (s *Service) Update(ctx context.Context, callerID, eventID uuid.UUID, req UpdateRequest) (*models.Event, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Type != nil {
		event.Type = *req.Type
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = req.EndTime
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.IsMandatory != nil {
		event.IsMandatory = *req.IsMandatory
	}
	if req.IsVoting != nil {
		event.IsVoting = *req.IsVoting
	}
	if req.MaxCapacity != nil {
		event.MaxCapacity = req.MaxCapacity
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.now()

	if err := s.events.Update(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
	}
	return event, nil
}

// Deactivate soft-deletes an event. Admin only.
func (s *Service) Deactivate(ctx context.Context, callerID, eventID uuid.UUID) error {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.IsActive {
		return dErrors.New(dErrors.CodeInvalidState, "event is already deactivated")
	}
	event.IsActive = false
	event.UpdatedAt = s.now()
	if err := s.events.Update(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate event")
	}
	s.log(ctx, "event deactivated", "event_id", event.ID)
	return nil
}

func (s *Service) Get(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	return s.getEvent(ctx, eventID)
}

// List returns active events ordered by start time, optionally filtered by
// type, and optionally only those not yet started.
func (s *Service) List(ctx context.Context, eventType *models.EventType, upcomingOnly bool) ([]*models.Event, error) {
	if eventType != nil && !eventType.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", *eventType).WithField("event_type")
	}
	filter := store.Filter{Type: eventType}
	if upcomingOnly {
		now := s.now()
		filter.After = &now
	}
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

func (s *Service) getEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
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
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return caller, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
