package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/feedback/models"
	identity "rushledger/internal/identity/models"
	"rushledger/internal/platform/metrics"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

type FeedbackStore interface {
	Create(ctx context.Context, fb *models.Feedback) error
	ListForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*models.Feedback, error)
	ListForAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Feedback, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Service owns candidate feedback: unrestricted in volume, tiered in
// visibility.
type Service struct {
	store   FeedbackStore
	users   UserDirectory
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

func New(store FeedbackStore, users UserDirectory, opts ...Option) *Service {
	s := &Service{store: store, users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest carries one feedback entry.
type SubmitRequest struct {
	CandidateID uuid.UUID  `json:"candidate_id"`
	EventID     *uuid.UUID `json:"event_id,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
	Comment     string     `json:"comment"`
	Tags        []string   `json:"tags"`
	IsAnonymous bool       `json:"is_anonymous"`
	IsPrivate   bool       `json:"is_private"`
}

// Submit records feedback from an active, pledge, or admin about a rushee.
// Multiple submissions per author/candidate are allowed and intentional.
func (s *Service) Submit(ctx context.Context, authorID uuid.UUID, req SubmitRequest) (*models.Feedback, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5").WithField("rating")
	}

	author, err := s.lookupUser(ctx, authorID, "author")
	if err != nil {
		return nil, err
	}
	if !author.IsActive || author.Role == identity.RoleRushee {
		return nil, dErrors.New(dErrors.CodeForbidden, "only members may submit feedback")
	}
	candidate, err := s.lookupUser(ctx, req.CandidateID, "candidate")
	if err != nil {
		return nil, err
	}
	if candidate.Role != identity.RoleRushee {
		return nil, dErrors.New(dErrors.CodeForbidden, "feedback may only target rushees")
	}

	now := s.now()
	fb := &models.Feedback{
		ID:          uuid.New(),
		EventID:     req.EventID,
		AuthorID:    author.ID,
		CandidateID: candidate.ID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		Tags:        req.Tags,
		IsAnonymous: req.IsAnonymous,
		IsPrivate:   req.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if fb.Tags == nil {
		fb.Tags = []string{}
	}
	if err := s.store.Create(ctx, fb); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "referenced event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit feedback")
	}

	s.log(ctx, "feedback submitted", "candidate_id", candidate.ID)
	if s.metrics != nil {
		s.metrics.FeedbackSubmitted.Inc()
	}
	return fb, nil
}

// ListForCandidate returns the entries the caller is allowed to see, with
// anonymous authorship blanked for non-admins.
func (s *Service) ListForCandidate(ctx context.Context, callerID, candidateID uuid.UUID) ([]*models.Feedback, error) {
	caller, err := s.lookupUser(ctx, callerID, "caller")
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListForCandidate(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list feedback")
	}

	var out []*models.Feedback
	for _, fb := range entries {
		if !visibleTo(caller, fb) {
			continue
		}
		out = append(out, project(caller, fb))
	}
	return out, nil
}

// ListOwn returns everything the caller authored, unmasked.
func (s *Service) ListOwn(ctx context.Context, callerID uuid.UUID) ([]*models.Feedback, error) {
	entries, err := s.store.ListForAuthor(ctx, callerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list feedback")
	}
	return entries, nil
}

// visibleTo applies the visibility tiers.
func visibleTo(caller *identity.User, fb *models.Feedback) bool {
	if fb.AuthorID == caller.ID {
		return true
	}
	switch caller.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleActive:
		return !fb.IsPrivate
	default:
		return false
	}
}

// project blanks anonymous authorship for non-admin readers. The stored row
// is never modified; this is a read-time shape.
func project(caller *identity.User, fb *models.Feedback) *models.Feedback {
	if !fb.IsAnonymous || caller.Role == identity.RoleAdmin || fb.AuthorID == caller.ID {
		return fb
	}
	masked := *fb
	masked.AuthorID = uuid.Nil
	return &masked
}

func (s *Service) lookupUser(ctx context.Context, id uuid.UUID, who string) (*identity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "%s not found", who)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+who)
	}
	return user, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
