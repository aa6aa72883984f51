package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rushledger/internal/event/models"
	"rushledger/pkg/platform/sentinel"
)

// Filter narrows List results. A nil Type matches every type; After keeps
// only events starting at or after the given instant.
type Filter struct {
	Type  *models.EventType
	After *time.Time
}

// InMemory keeps events in a map, sorted at read time. Backs unit tests and
// local development.
type InMemory struct {
	mu     sync.RWMutex
	events map[uuid.UUID]models.Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[uuid.UUID]models.Event)}
}

func (s *InMemory) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}

func (s *InMemory) Update(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[event.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.events[event.ID] = *event
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if event, ok := s.events[id]; ok {
		e := event
		return &e, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, filter Filter) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Event
	for _, event := range s.events {
		if !event.IsActive {
			continue
		}
		if filter.Type != nil && event.Type != *filter.Type {
			continue
		}
		if filter.After != nil && event.StartTime.Before(*filter.After) {
			continue
		}
		e := event
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}
