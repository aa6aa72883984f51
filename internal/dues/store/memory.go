package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"rushledger/internal/dues/models"
	"rushledger/pkg/platform/sentinel"
)

// InMemory stores payments for unit tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]models.Payment
}

func NewInMemory() *InMemory {
	return &InMemory{payments: make(map[uuid.UUID]models.Payment)}
}

func (s *InMemory) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = *p
	return nil
}

func (s *InMemory) Update(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.payments[p.ID] = *p
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.payments[id]; ok {
		payment := p
		return &payment, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListOutstanding(_ context.Context) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.Status.Outstanding() {
			payment := p
			out = append(out, &payment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *InMemory) ListForUser(_ context.Context, userID uuid.UUID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			payment := p
			out = append(out, &payment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}
