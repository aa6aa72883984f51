package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	identity "rushledger/internal/identity/models"
	"rushledger/internal/interview/models"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

type InterviewStore interface {
	Create(ctx context.Context, iv *models.Interview) error
	Update(ctx context.Context, iv *models.Interview) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Interview, error)
	ListForCandidate(ctx context.Context, candidateID uuid.UUID) ([]*models.Interview, error)
	ListForInterviewer(ctx context.Context, interviewerID uuid.UUID) ([]*models.Interview, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Service owns interview records. Only active brothers and admins conduct
// interviews, and only of candidates still in rush.
type Service struct {
	interviews InterviewStore
	users      UserDirectory
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(interviews InterviewStore, users UserDirectory, opts ...Option) *Service {
	s := &Service{interviews: interviews, users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RecordRequest struct {
	EventID       *uuid.UUID
	CandidateID   uuid.UUID
	InterviewDate time.Time
	Questions     []models.QA
	Notes         string
}

// Record opens a new interview record for a candidate.
func (s *Service) Record(ctx context.Context, interviewerID uuid.UUID, req RecordRequest) (*models.Interview, error) {
	if err := s.checkParties(ctx, interviewerID, req.CandidateID); err != nil {
		return nil, err
	}
	if req.InterviewDate.IsZero() {
		req.InterviewDate = s.now()
	}
	if req.Questions == nil {
		req.Questions = []models.QA{}
	}

	now := s.now()
	iv := &models.Interview{
		ID:            uuid.New(),
		EventID:       req.EventID,
		InterviewerID: interviewerID,
		CandidateID:   req.CandidateID,
		InterviewDate: req.InterviewDate,
		Questions:     req.Questions,
		Notes:         req.Notes,
		Strengths:     []string{},
		Concerns:      []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.interviews.Create(ctx, iv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record interview")
	}
	s.log(ctx, "interview recorded", "interview_id", iv.ID, "candidate_id", iv.CandidateID)
	return iv, nil
}

type CompleteRequest struct {
	Questions      []models.QA
	Notes          string
	OverallRating  int
	Recommendation models.Recommendation
	Strengths      []string
	Concerns       []string
}

// Complete finalizes an interview with a rating and recommendation. Only the
// interviewer who opened it may complete it; a completed interview is frozen.
func (s *Service) Complete(ctx context.Context, interviewerID, interviewID uuid.UUID, req CompleteRequest) (*models.Interview, error) {
	iv, err := s.getInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if iv.InterviewerID != interviewerID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the interviewer may complete this interview")
	}
	if iv.IsComplete {
		return nil, dErrors.New(dErrors.CodeInvalidState, "interview is already complete")
	}
	if req.OverallRating < 1 || req.OverallRating > 5 {
		return nil, dErrors.New(dErrors.CodeValidation, "overall rating must be between 1 and 5").WithField("overall_rating")
	}
	if !req.Recommendation.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown recommendation %q", req.Recommendation).WithField("recommendation")
	}

	if req.Questions != nil {
		iv.Questions = req.Questions
	}
	if req.Notes != "" {
		iv.Notes = req.Notes
	}
	rating := req.OverallRating
	rec := req.Recommendation
	iv.OverallRating = &rating
	iv.Recommendation = &rec
	if req.Strengths != nil {
		iv.Strengths = req.Strengths
	}
	if req.Concerns != nil {
		iv.Concerns = req.Concerns
	}
	iv.IsComplete = true
	iv.UpdatedAt = s.now()

	if err := s.interviews.Update(ctx, iv); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete interview")
	}
	s.log(ctx, "interview completed", "interview_id", iv.ID, "recommendation", rec)
	return iv, nil
}

// ListForCandidate returns a candidate's interviews. Admins see all of them;
// everyone else sees only the interviews they conducted.
func (s *Service) ListForCandidate(ctx context.Context, callerID, candidateID uuid.UUID) ([]*models.Interview, error) {
	caller, err := s.lookupUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.interviews.ListForCandidate(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list interviews")
	}
	if caller.IsAdmin() {
		return rows, nil
	}
	var out []*models.Interview
	for _, iv := range rows {
		if iv.InterviewerID == callerID {
			out = append(out, iv)
		}
	}
	return out, nil
}

// ListOwn returns the interviews the caller has conducted.
func (s *Service) ListOwn(ctx context.Context, interviewerID uuid.UUID) ([]*models.Interview, error) {
	rows, err := s.interviews.ListForInterviewer(ctx, interviewerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list interviews")
	}
	return rows, nil
}

func (s *Service) Get(ctx context.Context, callerID, interviewID uuid.UUID) (*models.Interview, error) {
	iv, err := s.getInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if iv.InterviewerID == callerID {
		return iv, nil
	}
	caller, err := s.lookupUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "not your interview")
	}
	return iv, nil
}

func (s *Service) checkParties(ctx context.Context, interviewerID, candidateID uuid.UUID) error {
	interviewer, err := s.lookupUser(ctx, interviewerID)
	if err != nil {
		return err
	}
	if !interviewer.IsActive || (interviewer.Role != identity.RoleActive && interviewer.Role != identity.RoleAdmin) {
		return dErrors.New(dErrors.CodeForbidden, "only active brothers may conduct interviews")
	}
	candidate, err := s.lookupUser(ctx, candidateID)
	if err != nil {
		return err
	}
	if candidate.Role != identity.RoleRushee {
		return dErrors.New(dErrors.CodeForbidden, "interviews may only target rushees")
	}
	return nil
}

func (s *Service) getInterview(ctx context.Context, id uuid.UUID) (*models.Interview, error) {
	iv, err := s.interviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "interview not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load interview")
	}
	return iv, nil
}

func (s *Service) lookupUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
