package identity

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User // keyed by subject
}

// NewMemoryRepository builds an in-memory user store for testing and
// gateway-less development.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Subject]; exists {
		return errors.New("user exists")
	}
	r.users[user.Subject] = user
	return nil
}

func (r *memoryRepository) FindBySubject(_ context.Context, subject string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[subject]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) UpdateProfile(_ context.Context, updated User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for subject, user := range r.users {
		if user.ID == updated.ID {
			updated.Subject = user.Subject
			updated.CreatedAt = user.CreatedAt
			r.users[subject] = updated
			return nil
		}
	}
	return ErrNotFound
}
