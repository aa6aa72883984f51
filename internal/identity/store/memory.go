package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rushledger/internal/identity/models"
	"rushledger/pkg/platform/sentinel"
)

// InMemory keeps users in maps with secondary indexes on auth id and email so
// both lookups stay O(1), mirroring the unique indexes the Postgres store
// relies on. It favors clarity over performance and backs the unit tests.
type InMemory struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	byAuthID map[string]uuid.UUID
	byEmail  map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[uuid.UUID]models.User),
		byAuthID: make(map[string]uuid.UUID),
		byEmail:  make(map[string]uuid.UUID),
	}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byAuthID[user.AuthID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byEmail[strings.ToLower(user.Email)]; ok {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = *user
	s.byAuthID[user.AuthID] = user.ID
	s.byEmail[strings.ToLower(user.Email)] = user.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	newEmail := strings.ToLower(user.Email)
	if id, taken := s.byEmail[newEmail]; taken && id != user.ID {
		return sentinel.ErrConflict
	}
	delete(s.byEmail, strings.ToLower(existing.Email))
	s.byEmail[newEmail] = user.ID
	s.users[user.ID] = *user
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		u := user
		return &u, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByAuthID(ctx context.Context, authID string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.byAuthID[authID]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *InMemory) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.User
	for _, user := range s.users {
		if user.Role == role && user.IsActive {
			u := user
			out = append(out, &u)
		}
	}
	return out, nil
}
