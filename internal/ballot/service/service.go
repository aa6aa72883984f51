package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/ballot/models"
	identity "rushledger/internal/identity/models"
	"rushledger/internal/platform/metrics"
	dErrors "rushledger/pkg/domain-errors"
	"rushledger/pkg/platform/sentinel"
)

type BallotStore interface {
	CreateRound(ctx context.Context, round *models.Round) error
	UpdateRound(ctx context.Context, round *models.Round) error
	FindRound(ctx context.Context, id uuid.UUID) (*models.Round, error)
	ListRounds(ctx context.Context) ([]*models.Round, error)

	CreateBallot(ctx context.Context, ballot *models.Ballot) error
	UpdateBallot(ctx context.Context, ballot *models.Ballot) error
	FindBallot(ctx context.Context, roundID, voterID, candidateID uuid.UUID) (*models.Ballot, error)
	ListForVoter(ctx context.Context, voterID uuid.UUID) ([]*models.Ballot, error)
	ListForRound(ctx context.Context, roundID uuid.UUID) ([]*models.Ballot, error)
}

type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Service owns secret voting. Its core invariants: one ballot per
// (round, voter, candidate), revisable only while the round is open, and
// per-voter attribution never leaves this package except to admins.
type Service struct {
	store   BallotStore
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

func New(store BallotStore, users UserDirectory, opts ...Option) *Service {
	s := &Service{store: store, users: users, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRound starts a named voting phase. Admin only; names are unique.
func (s *Service) OpenRound(ctx context.Context, callerID uuid.UUID, name string, eventID *uuid.UUID) (*models.Round, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "round name is required").WithField("name")
	}

	now := s.now()
	round := &models.Round{
		ID:        uuid.New(),
		Name:      name,
		EventID:   eventID,
		Status:    models.RoundOpen,
		OpenedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateRound(ctx, round); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a round with this name already exists").WithField("name")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open round")
	}
	s.log(ctx, "round opened", "round_id", round.ID, "name", name)
	return round, nil
}

// CloseRound ends a voting phase; ballots in it become immutable.
func (s *Service) CloseRound(ctx context.Context, callerID, roundID uuid.UUID) (*models.Round, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.IsOpen() {
		return nil, dErrors.New(dErrors.CodeInvalidState, "round is already closed")
	}
	now := s.now()
	round.Status = models.RoundClosed
	round.ClosedAt = &now
	round.UpdatedAt = now
	if err := s.store.UpdateRound(ctx, round); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close round")
	}
	s.log(ctx, "round closed", "round_id", round.ID)
	return round, nil
}

func (s *Service) GetRound(ctx context.Context, roundID uuid.UUID) (*models.Round, error) {
	return s.getRound(ctx, roundID)
}

func (s *Service) ListRounds(ctx context.Context) ([]*models.Round, error) {
	rounds, err := s.store.ListRounds(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rounds")
	}
	return rounds, nil
}

// CastRequest carries one voting decision.
type CastRequest struct {
	RoundID     uuid.UUID       `json:"round_id"`
	CandidateID uuid.UUID       `json:"candidate_id"`
	Type        models.VoteType `json:"vote_type"`
	Value       *int            `json:"vote_value,omitempty"`
	Notes       string          `json:"notes"`
	IsAnonymous bool            `json:"is_anonymous"`
}

// Cast records the voter's decision. The first cast for a
// (round, voter, candidate) triple inserts; a repeat cast while the round is
// open revises the existing ballot in place; a repeat cast after the round
// closed is a conflict. Two concurrent first casts race on the store's
// uniqueness key, so exactly one inserts and the other lands on the revision
// path deterministically.
func (s *Service) Cast(ctx context.Context, voterID uuid.UUID, req CastRequest) (*models.Ballot, error) {
	if !req.Type.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown vote type %q", req.Type).WithField("vote_type")
	}
	if req.Value != nil && (*req.Value < 1 || *req.Value > 10) {
		return nil, dErrors.New(dErrors.CodeValidation, "vote value must be between 1 and 10").WithField("vote_value")
	}

	voter, err := s.lookupUser(ctx, voterID, "voter")
	if err != nil {
		return nil, err
	}
	if !voter.CanVote() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only active members and admins may vote")
	}
	candidate, err := s.lookupUser(ctx, req.CandidateID, "candidate")
	if err != nil {
		return nil, err
	}
	if candidate.Role != identity.RoleRushee {
		return nil, dErrors.New(dErrors.CodeForbidden, "ballots may only be cast on rushees")
	}

	round, err := s.getRound(ctx, req.RoundID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ballot := &models.Ballot{
		ID:          uuid.New(),
		RoundID:     round.ID,
		EventID:     round.EventID,
		VoterID:     voter.ID,
		CandidateID: candidate.ID,
		Type:        req.Type,
		Value:       req.Value,
		Notes:       req.Notes,
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if round.IsOpen() {
		err = s.store.CreateBallot(ctx, ballot)
		if err == nil {
			s.log(ctx, "ballot cast", "round_id", round.ID, "candidate_id", candidate.ID)
			s.countCast("insert")
			return ballot, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the insert race or re-voting: revise the existing ballot.
			return s.revise(ctx, round, voter.ID, candidate.ID, req)
		}
		if !errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cast ballot")
		}
		// The round closed between the status check and the insert; fall
		// through to the closed-round handling below.
	}

	// Round is closed: no new ballots and no revisions.
	if _, err := s.store.FindBallot(ctx, round.ID, voter.ID, candidate.ID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "already voted; round is closed")
	}
	return nil, dErrors.New(dErrors.CodeInvalidState, "round is closed")
}

func (s *Service) revise(ctx context.Context, round *models.Round, voterID, candidateID uuid.UUID, req CastRequest) (*models.Ballot, error) {
	existing, err := s.store.FindBallot(ctx, round.ID, voterID, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load existing ballot")
	}
	existing.Type = req.Type
	existing.Value = req.Value
	existing.Notes = req.Notes
	existing.IsAnonymous = req.IsAnonymous
	existing.UpdatedAt = s.now()

	if err := s.store.UpdateBallot(ctx, existing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revise ballot")
	}
	s.log(ctx, "ballot revised", "round_id", round.ID, "candidate_id", candidateID)
	s.countCast("update")
	return existing, nil
}

// BallotsForVoter returns only the voter's own ballots, notes included.
func (s *Service) BallotsForVoter(ctx context.Context, voterID uuid.UUID) ([]*models.Ballot, error) {
	ballots, err := s.store.ListForVoter(ctx, voterID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ballots")
	}
	return ballots, nil
}

// Results aggregates a round's ballots per candidate. The response carries
// counts and averages only; per-voter attribution never appears regardless of
// each ballot's IsAnonymous flag.
func (s *Service) Results(ctx context.Context, roundID uuid.UUID) (*models.RoundResults, error) {
	round, err := s.getRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	ballots, err := s.store.ListForRound(ctx, roundID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ballots")
	}

	type agg struct {
		tally    models.CandidateTally
		valueSum int
		valueN   int
	}
	byCandidate := make(map[uuid.UUID]*agg)
	for _, b := range ballots {
		a, ok := byCandidate[b.CandidateID]
		if !ok {
			a = &agg{tally: models.CandidateTally{CandidateID: b.CandidateID}}
			byCandidate[b.CandidateID] = a
		}
		switch b.Type {
		case models.VoteBid:
			a.tally.Bid++
		case models.VoteNoBid:
			a.tally.NoBid++
		case models.VoteAbstain:
			a.tally.Abstain++
		}
		a.tally.Total++
		if b.Value != nil {
			a.valueSum += *b.Value
			a.valueN++
		}
	}

	results := &models.RoundResults{
		RoundID:   round.ID,
		RoundName: round.Name,
		Status:    round.Status,
	}
	for _, a := range byCandidate {
		if a.valueN > 0 {
			avg := float64(a.valueSum) / float64(a.valueN)
			a.tally.AverageValue = &avg
		}
		results.Candidates = append(results.Candidates, a.tally)
	}
	sort.Slice(results.Candidates, func(i, j int) bool {
		return results.Candidates[i].CandidateID.String() < results.Candidates[j].CandidateID.String()
	})
	return results, nil
}

// RawBallots exposes individual rows, attribution included. Admin only; this
// is the single sanctioned path past the aggregate-only read model.
func (s *Service) RawBallots(ctx context.Context, callerID, roundID uuid.UUID) ([]*models.Ballot, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if _, err := s.getRound(ctx, roundID); err != nil {
		return nil, err
	}
	ballots, err := s.store.ListForRound(ctx, roundID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ballots")
	}
	return ballots, nil
}

func (s *Service) getRound(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	round, err := s.store.FindRound(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "round not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load round")
	}
	return round, nil
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

func (s *Service) requireAdmin(ctx context.Context, callerID uuid.UUID) (*identity.User, error) {
	caller, err := s.lookupUser(ctx, callerID, "caller")
	if err != nil {
		return nil, err
	}
	if !caller.IsActive || !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return caller, nil
}

func (s *Service) countCast(mode string) {
	if s.metrics != nil {
		s.metrics.BallotsCast.WithLabelValues(mode).Inc()
	}
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
