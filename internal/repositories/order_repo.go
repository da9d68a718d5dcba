package repositories

import (
	"errors"

	"atelier/internal/models"
)

// ErrOrderNotFound marks a lookup for an order id that does not exist, as
// opposed to a transient storage failure. Callers branch on it with
// errors.Is: only a definitive not-found may invalidate a resume pointer.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the interface for order data access. Status writes
// are last-write-wins; the order row is the single source of truth the
// reconciler branches on.
type OrderRepository interface {
	GetByID(id string) (*models.Order, error)
	GetBySession(sessionID string) ([]models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status models.OrderStatus) error
	RecordCancellation(id string, reason string) error
}
