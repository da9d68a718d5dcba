package repositories

import (
	"fmt"
	"sync"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository defines the interface for wishlist data access.
type FavoriteRepository interface {
	List(userID string) ([]models.Favorite, error)
	Add(favorite *models.Favorite) error
	Remove(userID string, productID string) error
}

// GORMFavoriteRepository is a GORM implementation of FavoriteRepository.
type GORMFavoriteRepository struct {
	db *gorm.DB
}

// NewGORMFavoriteRepository creates a new instance of GORMFavoriteRepository.
func NewGORMFavoriteRepository(db *gorm.DB) *GORMFavoriteRepository {
	return &GORMFavoriteRepository{
		db: db,
	}
}

// List returns all wishlist entries for a user.
func (r *GORMFavoriteRepository) List(userID string) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := r.db.Where("user_id = ?", userID).Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorites for user %s: %w", userID, err)
	}
	return favorites, nil
}

// Add stores a wishlist entry. Adding the same product twice is a no-op.
func (r *GORMFavoriteRepository) Add(favorite *models.Favorite) error {
	var existing models.Favorite
	err := r.db.First(&existing, "user_id = ? AND product_id = ?",
		favorite.UserID, favorite.ProductID).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return fmt.Errorf("failed to look up favorite: %w", err)
	}
	if createErr := r.db.Create(favorite).Error; createErr != nil {
		return fmt.Errorf("failed to add favorite: %w", createErr)
	}
	return nil
}

// Remove deletes a wishlist entry.
func (r *GORMFavoriteRepository) Remove(userID string, productID string) error {
	res := r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Favorite{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove favorite %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("favorite %s not found", productID)
	}
	return nil
}

// MockFavoriteRepository is an in-memory implementation of FavoriteRepository.
type MockFavoriteRepository struct {
	favorites map[string][]models.Favorite // userID -> entries
	mu        sync.RWMutex
}

// NewMockFavoriteRepository creates a new instance of MockFavoriteRepository.
func NewMockFavoriteRepository() *MockFavoriteRepository {
	return &MockFavoriteRepository{
		favorites: make(map[string][]models.Favorite),
	}
}

// List returns all wishlist entries for a user.
func (r *MockFavoriteRepository) List(userID string) ([]models.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]models.Favorite, len(r.favorites[userID]))
	copy(entries, r.favorites[userID])
	return entries, nil
}

// Add stores a wishlist entry, ignoring duplicates.
func (r *MockFavoriteRepository) Add(favorite *models.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.favorites[favorite.UserID] {
		if entry.ProductID == favorite.ProductID {
			return nil
		}
	}
	r.favorites[favorite.UserID] = append(r.favorites[favorite.UserID], *favorite)
	return nil
}

// Remove deletes a wishlist entry.
func (r *MockFavoriteRepository) Remove(userID string, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.favorites[userID]
	for i, entry := range entries {
		if entry.ProductID == productID {
			r.favorites[userID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("favorite %s not found", productID)
}
