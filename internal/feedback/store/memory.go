package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rushledger/internal/feedback/models"
)

// InMemory stores feedback entries for unit tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]models.Feedback
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[uuid.UUID]models.Feedback)}
}

func (s *InMemory) Create(_ context.Context, fb *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[fb.ID] = *fb
	return nil
}

func (s *InMemory) ListForCandidate(_ context.Context, candidateID uuid.UUID) ([]*models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Feedback
	for _, fb := range s.entries {
		if fb.CandidateID == candidateID {
			f := fb
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ListForAuthor(_ context.Context, authorID uuid.UUID) ([]*models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Feedback
	for _, fb := range s.entries {
		if fb.AuthorID == authorID {
			f := fb
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
