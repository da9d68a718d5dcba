package models

// Measurements is the tailoring step of the checkout draft.
type Measurements struct {
	Height float64 `json:"height" validate:"required,gt=0"`
	Chest  float64 `json:"chest" validate:"required,gt=0"`
	Waist  float64 `json:"waist" validate:"required,gt=0"`
	Hips   float64 `json:"hips" validate:"required,gt=0"`
}

// Complete reports whether every measurement has been supplied.
func (m Measurements) Complete() bool {
	return len(m.MissingFields()) == 0
}

// MissingFields returns the names of measurements still at their zero value.
func (m Measurements) MissingFields() []string {
	var missing []string
	if m.Height <= 0 {
		missing = append(missing, "height")
	}
	if m.Chest <= 0 {
		missing = append(missing, "chest")
	}
	if m.Waist <= 0 {
		missing = append(missing, "waist")
	}
	if m.Hips <= 0 {
		missing = append(missing, "hips")
	}
	return missing
}

// DeliveryDetails is the shipping step of the checkout draft.
type DeliveryDetails struct {
	FullName   string `json:"full_name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
}

// Complete reports whether every delivery field has been supplied.
func (d DeliveryDetails) Complete() bool {
	return len(d.MissingFields()) == 0
}

// MissingFields returns the names of delivery fields that are still empty.
func (d DeliveryDetails) MissingFields() []string {
	var missing []string
	if d.FullName == "" {
		missing = append(missing, "fullName")
	}
	if d.Address == "" {
		missing = append(missing, "address")
	}
	if d.City == "" {
		missing = append(missing, "city")
	}
	if d.PostalCode == "" {
		missing = append(missing, "postalCode")
	}
	if d.Country == "" {
		missing = append(missing, "country")
	}
	if d.Email == "" {
		missing = append(missing, "email")
	}
	if d.Phone == "" {
		missing = append(missing, "phone")
	}
	return missing
}

// OrderDraft accumulates buyer input across the sequential checkout steps.
// Each step is additive; a rejected submit leaves the draft untouched.
type OrderDraft struct {
	SessionID    string          `json:"-" gorm:"primaryKey;size:64"`
	Measurements Measurements    `json:"measurements" gorm:"embedded;embeddedPrefix:m_"`
	Delivery     DeliveryDetails `json:"delivery_details" gorm:"embedded;embeddedPrefix:d_"`
}

// Step derives the current checkout step from what has been completed:
// 3 once delivery details are in, 2 once measurements are in, 1 otherwise.
func (d OrderDraft) Step() int {
	switch {
	case d.Measurements.Complete() && d.Delivery.Complete():
		return 3
	case d.Measurements.Complete():
		return 2
	default:
		return 1
	}
}
