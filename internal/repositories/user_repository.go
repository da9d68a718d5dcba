package repositories

import "atelier/internal/models"

// UserRepository defines the interface for user data access. Soft-deleted
// users are invisible to the Get* methods; Restore brings them back.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetByVerificationToken(token string) (*models.User, error)
	Update(user *models.User) error
	SoftDelete(id string) error
	Restore(email string) error
}
