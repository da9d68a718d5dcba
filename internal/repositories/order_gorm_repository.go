package repositories

import (
	"fmt"

	"atelier/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// GetBySession retrieves all orders created under a session.
func (r *GORMOrderRepository) GetBySession(sessionID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Where("session_id = ?", sessionID).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for session %s: %w", sessionID, err)
	}
	return orders, nil
}

// Create persists a new order and its item snapshot.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdateStatus sets the order status. Last write wins; callers re-fetch
// before branching on terminal status.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	return nil
}

// RecordCancellation stores a best-effort cancellation note on the order.
func (r *GORMOrderRepository) RecordCancellation(id string, reason string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Update("cancel_reason", reason)
	if res.Error != nil {
		return fmt.Errorf("failed to record cancellation for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for cancellation note", id)
	}
	return nil
}
