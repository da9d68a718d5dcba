package services

import (
	"fmt"

	"atelier/internal/models"
	"atelier/internal/repositories"
)

// CartService handles cart mutations. A cart belongs to a session; after
// authentication the guest cart is merged into the user's server-side cart.
type CartService struct {
	repo repositories.CartRepository
}

// NewCartService creates a new CartService.
func NewCartService(repo repositories.CartRepository) *CartService {
	return &CartService{
		repo: repo,
	}
}

// GetItems returns the cart lines for a session.
func (s *CartService) GetItems(sessionID string) ([]models.CartItem, error) {
	return s.repo.GetItems(sessionID)
}

// AddItem adds a line to the cart, or replaces its quantity if the same item
// and color are already present.
func (s *CartService) AddItem(sessionID string, item models.CartItem) error {
	if item.ItemID == "" || item.Quantity <= 0 {
		return &models.ValidationError{Fields: []string{"id", "quantity"}}
	}
	item.SessionID = sessionID
	return s.repo.Upsert(&item)
}

// UpdateQuantity sets the quantity of an existing line; zero removes it.
func (s *CartService) UpdateQuantity(sessionID string, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.repo.Remove(sessionID, itemID)
	}
	items, err := s.repo.GetItems(sessionID)
	if err != nil {
		return err
	}
	for _, line := range items {
		if line.ItemID == itemID {
			line.Quantity = quantity
			return s.repo.Upsert(&line)
		}
	}
	return fmt.Errorf("cart item %s not found", itemID)
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(sessionID string, itemID string) error {
	return s.repo.Remove(sessionID, itemID)
}

// Clear empties the cart.
func (s *CartService) Clear(sessionID string) error {
	return s.repo.Clear(sessionID)
}

// Merge folds a guest cart into a user cart after login. Quantities of
// matching lines are summed; the guest cart is emptied afterwards.
func (s *CartService) Merge(guestSessionID, userSessionID string) error {
	guestItems, err := s.repo.GetItems(guestSessionID)
	if err != nil {
		return fmt.Errorf("failed to load guest cart: %w", err)
	}
	if len(guestItems) == 0 {
		return nil
	}

	userItems, err := s.repo.GetItems(userSessionID)
	if err != nil {
		return fmt.Errorf("failed to load user cart: %w", err)
	}

	existing := make(map[string]models.CartItem, len(userItems))
	for _, line := range userItems {
		existing[line.ItemID+"|"+line.Color] = line
	}

	for _, guestLine := range guestItems {
		merged := guestLine
		merged.SessionID = userSessionID
		merged.RowID = 0
		if userLine, ok := existing[guestLine.ItemID+"|"+guestLine.Color]; ok {
			merged.Quantity = userLine.Quantity + guestLine.Quantity
		}
		if err := s.repo.Upsert(&merged); err != nil {
			return fmt.Errorf("failed to merge cart item %s: %w", guestLine.ItemID, err)
		}
	}
	return s.repo.Clear(guestSessionID)
}
