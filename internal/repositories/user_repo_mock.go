package repositories

import (
	"fmt"
	"sync"
	"time"

	"atelier/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockUserRepository is an in-memory implementation of UserRepository with
// the same soft-delete semantics as the GORM one.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.users[user.ID] = *user
	return nil
}

// GetByUsername retrieves a live user by username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username && !user.DeletedAt.Valid {
			found := user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user with username %s not found", username)
}

// GetByEmail retrieves a live user by email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email && !user.DeletedAt.Valid {
			found := user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found", email)
}

// GetByID retrieves a live user by ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok || user.DeletedAt.Valid {
		return nil, fmt.Errorf("user with ID %s not found", id)
	}
	return &user, nil
}

// GetByVerificationToken retrieves a live user by verification token.
func (r *MockUserRepository) GetByVerificationToken(token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return nil, fmt.Errorf("no user with empty verification token")
	}
	for _, user := range r.users {
		if user.VerificationToken == token && !user.DeletedAt.Valid {
			found := user
			return &found, nil
		}
	}
	return nil, fmt.Errorf("no user with verification token %s", token)
}

// Update replaces an existing user.
func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user with ID %s not found for update", user.ID)
	}
	r.users[user.ID] = *user
	return nil
}

// SoftDelete marks the user deleted without removing the row.
func (r *MockUserRepository) SoftDelete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.DeletedAt.Valid {
		return fmt.Errorf("user with ID %s not found for deletion", id)
	}
	user.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.users[id] = user
	return nil
}

// Restore clears the deletion marker on a soft-deleted account.
func (r *MockUserRepository) Restore(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.users {
		if user.Email == email && user.DeletedAt.Valid {
			user.DeletedAt = gorm.DeletedAt{}
			r.users[id] = user
			return nil
		}
	}
	return fmt.Errorf("no deleted account found for email %s", email)
}
