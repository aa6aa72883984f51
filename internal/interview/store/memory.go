package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rushledger/internal/interview/models"
	"rushledger/pkg/platform/sentinel"
)

// InMemory keeps interviews in process memory, for tests and local runs.
type InMemory struct {
	mu         sync.RWMutex
	interviews map[uuid.UUID]*models.Interview
}

func NewInMemory() *InMemory {
	return &InMemory{interviews: make(map[uuid.UUID]*models.Interview)}
}

func (s *InMemory) Create(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.interviews[iv.ID]; ok {
		return fmt.Errorf("interview %s: %w", iv.ID, sentinel.ErrConflict)
	}
	cp := *iv
	s.interviews[iv.ID] = &cp
	return nil
}

func (s *InMemory) Update(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.interviews[iv.ID]; !ok {
		return fmt.Errorf("interview %s: %w", iv.ID, sentinel.ErrNotFound)
	}
	cp := *iv
	s.interviews[iv.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iv, ok := s.interviews[id]
	if !ok {
		return nil, fmt.Errorf("interview %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *iv
	return &cp, nil
}

func (s *InMemory) ListForCandidate(_ context.Context, candidateID uuid.UUID) ([]*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(iv *models.Interview) bool { return iv.CandidateID == candidateID }), nil
}

func (s *InMemory) ListForInterviewer(_ context.Context, interviewerID uuid.UUID) ([]*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(func(iv *models.Interview) bool { return iv.InterviewerID == interviewerID }), nil
}

func (s *InMemory) collect(keep func(*models.Interview) bool) []*models.Interview {
	var out []*models.Interview
	for _, iv := range s.interviews {
		if keep(iv) {
			cp := *iv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InterviewDate.Before(out[j].InterviewDate) })
	return out
}
