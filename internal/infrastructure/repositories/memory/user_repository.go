package memory

import (
	"context"
	"sync"

	"pairlink/internal/core/domain"
	"pairlink/internal/core/ports"
)

type MemoryUserRepository struct {
	users map[string]*domain.User
	mu    sync.RWMutex
}

func NewMemoryUserRepository() ports.UserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *MemoryUserRepository) Register(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return domain.ErrUsernameTaken
	}

	r.users[user.Username] = user
	return nil
}

func (r *MemoryUserRepository) Unregister(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, username)
	return nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}

	return user, nil
}

// FindByConnection scans current entries. Linear is fine at the two-party
// ceiling; a reverse index would be needed for larger fleets.
func (r *MemoryUserRepository) FindByConnection(ctx context.Context, id domain.ConnectionID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ConnectionID == id {
			return user, nil
		}
	}

	return nil, domain.ErrUserNotFound
}

func (r *MemoryUserRepository) Snapshot(ctx context.Context) (domain.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(domain.Presence, len(r.users))
	for username, user := range r.users {
		u := *user
		snapshot[username] = &u
	}

	return snapshot, nil
}

func (r *MemoryUserRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users), nil
}

func (r *MemoryUserRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]*domain.User)
	return nil
}
