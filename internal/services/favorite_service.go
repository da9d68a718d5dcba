package services

import (
	"atelier/internal/models"
	"atelier/internal/repositories"
)

// FavoriteService handles the wishlist.
type FavoriteService struct {
	repo repositories.FavoriteRepository
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(repo repositories.FavoriteRepository) *FavoriteService {
	return &FavoriteService{
		repo: repo,
	}
}

// List returns all wishlist entries for a user.
func (s *FavoriteService) List(userID string) ([]models.Favorite, error) {
	return s.repo.List(userID)
}

// Add stores a wishlist entry; duplicates are ignored.
func (s *FavoriteService) Add(userID string, productID string) error {
	if productID == "" {
		return &models.ValidationError{Fields: []string{"product_id"}}
	}
	return s.repo.Add(&models.Favorite{UserID: userID, ProductID: productID})
}

// Remove deletes a wishlist entry.
func (s *FavoriteService) Remove(userID string, productID string) error {
	return s.repo.Remove(userID, productID)
}
