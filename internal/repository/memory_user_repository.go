package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourorg/tasklist/internal/domain"
)

// MemoryUserRepository implements domain.UserRepository in process memory.
// Used with the memory and redis item backends, where no SQL database is
// configured.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byEmail    map[string]*domain.User
	byUsername map[string]*domain.User
	seq        int
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[string]*domain.User),
		byEmail:    make(map[string]*domain.User),
		byUsername: make(map[string]*domain.User),
	}
}

// Create creates a new user, assigning an id if none is set.
func (r *MemoryUserRepository) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return fmt.Errorf("email already registered")
	}
	if _, exists := r.byUsername[user.Username]; exists {
		return fmt.Errorf("username already taken")
	}

	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	r.byUsername[user.Username] = user
	return nil
}

// GetByID retrieves a user by ID.
func (r *MemoryUserRepository) GetByID(id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found")
}

// GetByEmail retrieves a user by email.
func (r *MemoryUserRepository) GetByEmail(email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found")
}

// GetByUsername retrieves a user by username.
func (r *MemoryUserRepository) GetByUsername(username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byUsername[username]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found")
}

// Update replaces a stored user.
func (r *MemoryUserRepository) Update(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	user.UpdatedAt = time.Now().UTC()
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user
	r.byUsername[user.Username] = user
	return nil
}

// Delete removes a user.
func (r *MemoryUserRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byID, id)
		delete(r.byEmail, u.Email)
		delete(r.byUsername, u.Username)
	}
	return nil
}

// ListByTenant lists all users in a tenant.
func (r *MemoryUserRepository) ListByTenant(tenantID string) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := []*domain.User{}
	for _, u := range r.byID {
		if u.TenantID == tenantID {
			users = append(users, u)
		}
	}
	return users, nil
}
