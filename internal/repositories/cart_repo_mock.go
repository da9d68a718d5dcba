package repositories

import (
	"fmt"
	"sync"

	"atelier/internal/models"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	items map[string][]models.CartItem // sessionID -> lines
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		items: make(map[string][]models.CartItem),
	}
}

// GetItems returns all cart lines for a session.
func (r *MockCartRepository) GetItems(sessionID string) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]models.CartItem, len(r.items[sessionID]))
	copy(lines, r.items[sessionID])
	return lines, nil
}

// Upsert inserts the line or replaces the quantity of an existing one.
func (r *MockCartRepository) Upsert(item *models.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.items[item.SessionID]
	for i, line := range lines {
		if line.ItemID == item.ItemID && line.Color == item.Color {
			lines[i].Quantity = item.Quantity
			lines[i].Price = item.Price
			return nil
		}
	}
	r.items[item.SessionID] = append(lines, *item)
	return nil
}

// Remove deletes a single line from the cart.
func (r *MockCartRepository) Remove(sessionID string, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.items[sessionID]
	for i, line := range lines {
		if line.ItemID == itemID {
			r.items[sessionID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cart item %s not found", itemID)
}

// Clear removes every line for the session.
func (r *MockCartRepository) Clear(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, sessionID)
	return nil
}
