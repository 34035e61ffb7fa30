// Package memstore is an in-process goAccount.UserStore. It enforces the
// same uniqueness rules as the MongoDB store and is used by tests and by
// accountd when no database is configured.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]*goAccount.User
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users: make(map[string]*goAccount.User),
		now:   time.Now,
	}
}

func (s *Store) CreateUser(_ context.Context, u *goAccount.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflictLocked("", u.Email, u.AccountID, u.Provider) {
		return goAccount.ErrStoreDuplicate
	}

	now := s.now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	c := *u
	s.users[c.ID] = &c
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*goAccount.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, goAccount.ErrStoreNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*goAccount.User, error) {
	return s.find(func(u *goAccount.User) bool {
		return email != "" && u.Email == email
	})
}

func (s *Store) GetUserByIdentity(_ context.Context, accountID, provider string) (*goAccount.User, error) {
	return s.find(func(u *goAccount.User) bool {
		return accountID != "" && u.AccountID == accountID && u.Provider == provider
	})
}

func (s *Store) UpdateUser(_ context.Context, id string, update goAccount.UserUpdate) (*goAccount.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, goAccount.ErrStoreNotFound
	}
	if update.Email != nil && s.conflictLocked(id, *update.Email, "", "") {
		return nil, goAccount.ErrStoreDuplicate
	}

	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Role != nil {
		u.Role = *update.Role
	}
	u.UpdatedAt = s.now().UTC()

	c := *u
	return &c, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return goAccount.ErrStoreNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return goAccount.ErrStoreNotFound
	}
	delete(s.users, id)
	return nil
}

// ListUsers returns users in creation order.
func (s *Store) ListUsers(_ context.Context) ([]*goAccount.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*goAccount.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) find(match func(*goAccount.User) bool) (*goAccount.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, goAccount.ErrStoreNotFound
}

// conflictLocked reports whether another record than exceptID already holds
// email or the (accountID, provider) pair.
func (s *Store) conflictLocked(exceptID, email, accountID, provider string) bool {
	for id, u := range s.users {
		if id == exceptID {
			continue
		}
		if email != "" && u.Email == email {
			return true
		}
		if accountID != "" && u.AccountID == accountID && u.Provider == provider {
			return true
		}
	}
	return false
}
