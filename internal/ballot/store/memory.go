package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rushledger/internal/ballot/models"
	"rushledger/pkg/platform/sentinel"
)

type ballotKey struct {
	round     uuid.UUID
	voter     uuid.UUID
	candidate uuid.UUID
}

// InMemory holds rounds and ballots under one mutex so the check-then-insert
// in Cast is atomic, the same guarantee the Postgres unique index provides.
type InMemory struct {
	mu           sync.RWMutex
	rounds       map[uuid.UUID]models.Round
	roundsByName map[string]uuid.UUID
	ballots      map[uuid.UUID]models.Ballot
	byKey        map[ballotKey]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		rounds:       make(map[uuid.UUID]models.Round),
		roundsByName: make(map[string]uuid.UUID),
		ballots:      make(map[uuid.UUID]models.Ballot),
		byKey:        make(map[ballotKey]uuid.UUID),
	}
}

func (s *InMemory) CreateRound(_ context.Context, round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := strings.ToLower(round.Name)
	if _, ok := s.roundsByName[name]; ok {
		return sentinel.ErrConflict
	}
	s.rounds[round.ID] = *round
	s.roundsByName[name] = round.ID
	return nil
}

func (s *InMemory) UpdateRound(_ context.Context, round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[round.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rounds[round.ID] = *round
	return nil
}

func (s *InMemory) FindRound(_ context.Context, id uuid.UUID) (*models.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if round, ok := s.rounds[id]; ok {
		r := round
		return &r, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListRounds(_ context.Context) ([]*models.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Round
	for _, round := range s.rounds {
		r := round
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

func (s *InMemory) CreateBallot(_ context.Context, ballot *models.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	round, ok := s.rounds[ballot.RoundID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if round.Status != models.RoundOpen {
		return sentinel.ErrInvalidState
	}
	key := ballotKey{round: ballot.RoundID, voter: ballot.VoterID, candidate: ballot.CandidateID}
	if _, ok := s.byKey[key]; ok {
		return sentinel.ErrConflict
	}
	s.ballots[ballot.ID] = *ballot
	s.byKey[key] = ballot.ID
	return nil
}

func (s *InMemory) UpdateBallot(_ context.Context, ballot *models.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ballots[ballot.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.ballots[ballot.ID] = *ballot
	return nil
}

func (s *InMemory) FindBallot(_ context.Context, roundID, voterID, candidateID uuid.UUID) (*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[ballotKey{round: roundID, voter: voterID, candidate: candidateID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	ballot := s.ballots[id]
	return &ballot, nil
}

func (s *InMemory) ListForVoter(_ context.Context, voterID uuid.UUID) ([]*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Ballot
	for _, ballot := range s.ballots {
		if ballot.VoterID == voterID {
			b := ballot
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ListForRound(_ context.Context, roundID uuid.UUID) ([]*models.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Ballot
	for _, ballot := range s.ballots {
		if ballot.RoundID == roundID {
			b := ballot
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
