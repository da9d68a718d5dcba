package models

import "time"

// ProviderName identifies a payment provider. The provider is selected once
// at checkout start and recorded on the order.
type ProviderName string

const (
	ProviderPayPal ProviderName = "paypal"
	ProviderStripe ProviderName = "stripe"
	ProviderMollie ProviderName = "mollie"
)

// OrderStatus is the canonical status vocabulary. Provider-specific statuses
// are mapped onto this set by the provider adapters.
type OrderStatus string

const (
	StatusPaymentPending      OrderStatus = "PAYMENT_PENDING"
	StatusPayerActionRequired OrderStatus = "PAYER_ACTION_REQUIRED"
	StatusApproved            OrderStatus = "APPROVED"
	StatusCompleted           OrderStatus = "COMPLETED"
	StatusCanceled            OrderStatus = "CANCELED"
	StatusVoided              OrderStatus = "VOIDED"
)

// IsTerminal reports whether no further provider interaction is expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusApproved, StatusCanceled, StatusVoided:
		return true
	}
	return false
}

// IsSuccess reports whether the order reached a successful terminal state.
// Both values count because providers differ: an approved PayPal order and a
// captured one are equally done from the buyer's perspective.
func (s OrderStatus) IsSuccess() bool {
	return s == StatusCompleted || s == StatusApproved
}

// OrderItem is a snapshot of a cart item at order-creation time.
type OrderItem struct {
	ID       uint    `json:"-" gorm:"primaryKey"`
	OrderID  string  `json:"-" gorm:"size:64;index;not null"`
	ItemID   string  `json:"id" gorm:"size:64;not null"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Color    string  `json:"color"`
}

// Order is the server-owned order record. The client only ever holds a
// ResumeToken pointing at it; all status transitions happen here.
type Order struct {
	ID           string          `json:"id" gorm:"primaryKey;size:64"`
	SessionID    string          `json:"-" gorm:"size:64;index"`
	Provider     ProviderName    `json:"provider" gorm:"size:16"`
	Status       OrderStatus     `json:"status" gorm:"size:32;index"`
	Items        []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount  float64         `json:"total_amount"`
	Email        string          `json:"email" gorm:"size:255"`
	CancelReason string          `json:"cancel_reason,omitempty" gorm:"size:255"`
	Measurements Measurements    `json:"measurements" gorm:"embedded;embeddedPrefix:m_"`
	Delivery     DeliveryDetails `json:"delivery_details" gorm:"embedded;embeddedPrefix:d_"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ResumeToken is the client-side back-reference to an in-flight order. It is
// a weak pointer: the backend owns the order, the token only makes the
// checkout resumable across page loads and tabs.
type ResumeToken struct {
	OrderID string `json:"order_id"`
}

// Valid reports whether the token points at anything.
func (t ResumeToken) Valid() bool {
	return t.OrderID != ""
}
