package models

// CartItem is a single line in a shopping cart.
type CartItem struct {
	RowID     uint    `json:"-" gorm:"primaryKey"`
	SessionID string  `json:"-" gorm:"size:64;index;not null"`
	ItemID    string  `json:"id" gorm:"size:64;not null"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	Image     string  `json:"image"`
	Color     string  `json:"color"`
}

// CartTotal sums price*quantity over the given items.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// Favorite is a wishlist entry for a user.
type Favorite struct {
	RowID     uint   `json:"-" gorm:"primaryKey"`
	UserID    string `json:"-" gorm:"size:64;index;not null"`
	ProductID string `json:"product_id" gorm:"size:64;not null"`
}
