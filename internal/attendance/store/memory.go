package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rushledger/internal/attendance/models"
	"rushledger/pkg/platform/sentinel"
)

type pairKey struct {
	event uuid.UUID
	user  uuid.UUID
}

// InMemory enforces the one-row-per-(event,user) invariant with a secondary
// index, the same shape the Postgres unique index gives us.
type InMemory struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]models.Attendance
	byPair map[pairKey]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		rows:   make(map[uuid.UUID]models.Attendance),
		byPair: make(map[pairKey]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, att *models.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{event: att.EventID, user: att.UserID}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrConflict
	}
	s.rows[att.ID] = *att
	s.byPair[key] = att.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, att *models.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[att.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rows[att.ID] = *att
	return nil
}

func (s *InMemory) FindByEventAndUser(_ context.Context, eventID, userID uuid.UUID) (*models.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey{event: eventID, user: userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	row := s.rows[id]
	return &row, nil
}

func (s *InMemory) ListForEvent(_ context.Context, eventID uuid.UUID) ([]*models.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Attendance
	for _, row := range s.rows {
		if row.EventID == eventID {
			r := row
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *InMemory) ListForUser(_ context.Context, userID uuid.UUID) ([]*models.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Attendance
	for _, row := range s.rows {
		if row.UserID == userID {
			r := row
			out = append(out, &r)
		}
	}
	return out, nil
}
