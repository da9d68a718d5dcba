package repositories

import (
	"fmt"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// CartRepository defines the interface for cart data access. Carts are keyed
// by session id; after login the guest cart is merged into the user's.
type CartRepository interface {
	GetItems(sessionID string) ([]models.CartItem, error)
	Upsert(item *models.CartItem) error
	Remove(sessionID string, itemID string) error
	Clear(sessionID string) error
}

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetItems returns all cart lines for a session.
func (r *GORMCartRepository) GetItems(sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Where("session_id = ?", sessionID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get cart for session %s: %w", sessionID, err)
	}
	return items, nil
}

// Upsert inserts the line or, if the item (by item id and color) already
// exists for the session, replaces its quantity.
func (r *GORMCartRepository) Upsert(item *models.CartItem) error {
	var existing models.CartItem
	err := r.db.First(&existing, "session_id = ? AND item_id = ? AND color = ?",
		item.SessionID, item.ItemID, item.Color).Error
	if err == gorm.ErrRecordNotFound {
		if createErr := r.db.Create(item).Error; createErr != nil {
			return fmt.Errorf("failed to add cart item: %w", createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up cart item: %w", err)
	}

	existing.Quantity = item.Quantity
	existing.Price = item.Price
	if saveErr := r.db.Save(&existing).Error; saveErr != nil {
		return fmt.Errorf("failed to update cart item: %w", saveErr)
	}
	return nil
}

// Remove deletes a single line from the cart.
func (r *GORMCartRepository) Remove(sessionID string, itemID string) error {
	res := r.db.Where("session_id = ? AND item_id = ?", sessionID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s not found", itemID)
	}
	return nil
}

// Clear removes every line for the session.
func (r *GORMCartRepository) Clear(sessionID string) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart for session %s: %w", sessionID, err)
	}
	return nil
}
